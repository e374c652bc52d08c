package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/applytrack/internal/db"
	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

func newTestManager(t *testing.T) (*Manager, *db.MemoryStore, uuid.UUID) {
	t.Helper()
	store := db.NewMemoryStore()
	return NewManager(store), store, uuid.New()
}

func createResume(t *testing.T, m *Manager, userID uuid.UUID) (*types.Master, *types.Version) {
	t.Helper()
	master, v1, err := m.CreateMaster(context.Background(), types.KindResume, userID, types.MasterInput{
		Title: "Backend Resume", Content: "# Resume",
	})
	require.NoError(t, err)
	return master, v1
}

func bindVersion(t *testing.T, store *db.MemoryStore, userID uuid.UUID, master *types.Master, v *types.Version, company string) *types.Application {
	t.Helper()
	app, err := store.CreateApplication(context.Background(), &types.Application{
		UserID:          userID,
		ResumeID:        master.ID,
		ResumeVersionID: v.ID,
		Company:         company,
		Position:        "Engineer",
	}, nil)
	require.NoError(t, err)
	return app
}

func TestCreateMaster_Validation(t *testing.T) {
	m, _, userID := newTestManager(t)
	ctx := context.Background()

	_, _, err := m.CreateMaster(ctx, types.KindResume, userID, types.MasterInput{Title: "No Content"})
	assert.Error(t, err)

	_, _, err = m.CreateMaster(ctx, "diploma", userID, types.MasterInput{Title: "X", Content: "y"})
	assert.Error(t, err)
}

func TestDeleteVersion_LastVersionError(t *testing.T) {
	m, _, userID := newTestManager(t)
	_, v1 := createResume(t, m, userID)

	err := m.DeleteVersion(context.Background(), types.KindResume, userID, v1.ID)
	var onlyErr *policy.OnlyVersionError
	require.ErrorAs(t, err, &onlyErr)
	assert.Equal(t, types.KindResume, onlyErr.Kind)
}

func TestDeleteVersion_ReferencedError(t *testing.T) {
	m, store, userID := newTestManager(t)
	ctx := context.Background()
	master, v1 := createResume(t, m, userID)
	_, err := m.CreateVersion(ctx, types.KindResume, userID, master.ID, types.VersionInput{Content: "second"})
	require.NoError(t, err)

	bindVersion(t, store, userID, master, v1, "Acme")
	bindVersion(t, store, userID, master, v1, "Globex")

	err = m.DeleteVersion(ctx, types.KindResume, userID, v1.ID)
	var refErr *policy.ReferencedError
	require.ErrorAs(t, err, &refErr)
	assert.Len(t, refErr.Blockers, 2)

	// The version survives the rejected delete and can be retried later
	_, err = m.GetVersion(ctx, types.KindResume, userID, v1.ID)
	assert.NoError(t, err)
}

func TestDeleteVersion_FreeVersionSucceeds(t *testing.T) {
	m, _, userID := newTestManager(t)
	ctx := context.Background()
	master, _ := createResume(t, m, userID)
	v2, err := m.CreateVersion(ctx, types.KindResume, userID, master.ID, types.VersionInput{Content: "second"})
	require.NoError(t, err)

	require.NoError(t, m.DeleteVersion(ctx, types.KindResume, userID, v2.ID))
	_, err = m.GetVersion(ctx, types.KindResume, userID, v2.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeleteMaster_BlockedThenUnblocked(t *testing.T) {
	m, store, userID := newTestManager(t)
	ctx := context.Background()
	master, v1 := createResume(t, m, userID)
	app := bindVersion(t, store, userID, master, v1, "Acme")

	_, err := m.DeleteMaster(ctx, types.KindResume, userID, master.ID)
	var refErr *policy.ReferencedError
	require.ErrorAs(t, err, &refErr)

	_, err = store.DeleteApplication(ctx, userID, app.ID)
	require.NoError(t, err)

	cascaded, err := m.DeleteMaster(ctx, types.KindResume, userID, master.ID)
	require.NoError(t, err)
	assert.Len(t, cascaded, 1)
}

func TestUpdateDraft_RejectedOnceReferenced(t *testing.T) {
	m, store, userID := newTestManager(t)
	ctx := context.Background()
	master, v1 := createResume(t, m, userID)

	_, err := m.UpdateDraft(ctx, types.KindResume, userID, v1.ID, "still a draft")
	require.NoError(t, err)

	bindVersion(t, store, userID, master, v1, "Acme")

	_, err = m.UpdateDraft(ctx, types.KindResume, userID, v1.ID, "immutable now")
	var refErr *policy.ReferencedError
	assert.ErrorAs(t, err, &refErr)
}

func TestVersionDependents_Idempotent(t *testing.T) {
	m, store, userID := newTestManager(t)
	ctx := context.Background()
	master, v1 := createResume(t, m, userID)
	bindVersion(t, store, userID, master, v1, "Acme")

	first, err := m.VersionDependents(ctx, types.KindResume, userID, v1.ID)
	require.NoError(t, err)
	second, err := m.VersionDependents(ctx, types.KindResume, userID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first, 1)
	assert.Equal(t, types.RefResumeOriginal, first[0].Kind)
}

func TestMasterDependents_IncludesVersionRefs(t *testing.T) {
	m, store, userID := newTestManager(t)
	ctx := context.Background()
	master, v1 := createResume(t, m, userID)
	bindVersion(t, store, userID, master, v1, "Acme")

	refs, err := m.MasterDependents(ctx, types.KindResume, userID, master.ID)
	require.NoError(t, err)
	// One application referencing both the master and its version dedupes
	// to a single entry
	assert.Len(t, refs, 1)
}

func TestPreviewDeleteMaster_DoesNotMutate(t *testing.T) {
	m, _, userID := newTestManager(t)
	ctx := context.Background()
	master, v1 := createResume(t, m, userID)

	d, err := m.PreviewDeleteMaster(ctx, types.KindResume, userID, master.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Cascade, d.Outcome)
	assert.Len(t, d.CascadeVersionIDs, 1)

	_, err = m.GetMaster(ctx, types.KindResume, userID, master.ID)
	assert.NoError(t, err)
	_, err = m.GetVersion(ctx, types.KindResume, userID, v1.ID)
	assert.NoError(t, err)
}

func TestPreviewDeleteVersion_OnlyVersion(t *testing.T) {
	m, _, userID := newTestManager(t)
	_, v1 := createResume(t, m, userID)

	d, err := m.PreviewDeleteVersion(context.Background(), types.KindResume, userID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Reject, d.Outcome)
	assert.Equal(t, policy.ReasonOnlyVersion, d.Reason)
}

func TestSetDefault(t *testing.T) {
	m, _, userID := newTestManager(t)
	ctx := context.Background()
	m1, _ := createResume(t, m, userID)
	m2, _, err := m.CreateMaster(ctx, types.KindResume, userID, types.MasterInput{
		Title: "Second Resume", Content: "# Other",
	})
	require.NoError(t, err)

	_, err = m.SetDefault(ctx, types.KindResume, userID, m1.ID)
	require.NoError(t, err)
	updated, err := m.SetDefault(ctx, types.KindResume, userID, m2.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	old, err := m.GetMaster(ctx, types.KindResume, userID, m1.ID)
	require.NoError(t, err)
	assert.False(t, old.IsDefault)
}

func TestNotFoundPassthrough(t *testing.T) {
	m, _, userID := newTestManager(t)
	ctx := context.Background()

	_, err := m.GetMaster(ctx, types.KindResume, userID, uuid.New())
	assert.True(t, errors.Is(err, db.ErrNotFound))

	err = m.DeleteVersion(ctx, types.KindResume, userID, uuid.New())
	assert.True(t, errors.Is(err, db.ErrNotFound))
}
