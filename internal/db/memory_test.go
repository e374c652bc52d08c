package db

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/applytrack/internal/policy"
	"github.com/jonathan/applytrack/internal/types"
)

func newTestStore(t *testing.T) (*MemoryStore, uuid.UUID) {
	t.Helper()
	return NewMemoryStore(), uuid.New()
}

func mustCreateMaster(t *testing.T, s *MemoryStore, kind types.DocumentKind, userID uuid.UUID, title string) (*types.Master, *types.Version) {
	t.Helper()
	m, v, err := s.CreateMaster(context.Background(), kind, userID, types.MasterInput{
		Title: title, Content: "# " + title,
	})
	require.NoError(t, err)
	return m, v
}

func TestCreateMaster_SeedsOriginalVersion(t *testing.T) {
	s, userID := newTestStore(t)

	m, v := mustCreateMaster(t, s, types.KindResume, userID, "Backend Resume")

	assert.Equal(t, "Backend Resume", m.Title)
	assert.Equal(t, m.ID, v.MasterID)
	assert.Equal(t, "v1", v.Label)
	assert.True(t, v.IsOriginal)

	versions, err := s.ListVersions(context.Background(), types.KindResume, userID, m.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestCreateVersion_SequentialLabels(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, _ := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	v2, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{Content: "updated"})
	require.NoError(t, err)
	assert.Equal(t, "v2", v2.Label)

	v3, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{
		Content: "tailored", LabelSuffix: "Acme Corp",
	})
	require.NoError(t, err)
	assert.Equal(t, "v3 - Acme Corp", v3.Label)

	custom, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{
		Content: "named", Label: "final-draft",
	})
	require.NoError(t, err)
	assert.Equal(t, "final-draft", custom.Label)
}

func TestListVersions_NewestFirst(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, _ := mustCreateMaster(t, s, types.KindCoverLetter, userID, "Letter")

	v2, err := s.CreateVersion(ctx, types.KindCoverLetter, userID, m.ID, types.VersionInput{Content: "b"})
	require.NoError(t, err)

	versions, err := s.ListVersions(ctx, types.KindCoverLetter, userID, m.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, v2.ID, versions[0].ID)
}

func TestUserScoping(t *testing.T) {
	s, userID := newTestStore(t)
	other := uuid.New()
	m, v := mustCreateMaster(t, s, types.KindResume, userID, "Mine")
	ctx := context.Background()

	_, err := s.GetMaster(ctx, types.KindResume, other, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetVersion(ctx, types.KindResume, other, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Kind scoping works the same way
	_, err = s.GetMaster(ctx, types.KindCoverLetter, userID, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMaster_DefaultIsExclusive(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m1, _ := mustCreateMaster(t, s, types.KindResume, userID, "First")
	m2, _ := mustCreateMaster(t, s, types.KindResume, userID, "Second")

	isDefault := true
	_, err := s.UpdateMaster(ctx, types.KindResume, userID, m1.ID, types.MasterUpdate{IsDefault: &isDefault})
	require.NoError(t, err)

	updated, err := s.UpdateMaster(ctx, types.KindResume, userID, m2.ID, types.MasterUpdate{IsDefault: &isDefault})
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	first, err := s.GetMaster(ctx, types.KindResume, userID, m1.ID)
	require.NoError(t, err)
	assert.False(t, first.IsDefault, "setting a new default must clear the old one")
}

func bindApplication(t *testing.T, s *MemoryStore, userID uuid.UUID, m *types.Master, v *types.Version, company string) *types.Application {
	t.Helper()
	app, err := s.CreateApplication(context.Background(), &types.Application{
		UserID:          userID,
		ResumeID:        m.ID,
		ResumeVersionID: v.ID,
		Company:         company,
		Position:        "Engineer",
	}, nil)
	require.NoError(t, err)
	return app
}

func TestDeleteVersion_OnlyVersionRejected(t *testing.T) {
	s, userID := newTestStore(t)
	_, v := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	d, err := s.DeleteVersion(context.Background(), types.KindResume, userID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Reject, d.Outcome)
	assert.Equal(t, policy.ReasonOnlyVersion, d.Reason)

	// Nothing was deleted
	_, err = s.GetVersion(context.Background(), types.KindResume, userID, v.ID)
	assert.NoError(t, err)
}

func TestDeleteVersion_ReferencedRejected(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")
	_, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{Content: "second"})
	require.NoError(t, err)

	bindApplication(t, s, userID, m, v1, "Acme")

	d, err := s.DeleteVersion(ctx, types.KindResume, userID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Reject, d.Outcome)
	assert.Equal(t, policy.ReasonReferenced, d.Reason)
	require.Len(t, d.Blockers, 1)
	assert.Equal(t, "Acme", d.Blockers[0].Company)
}

func TestDeleteVersion_UnreferencedProceeds(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, _ := mustCreateMaster(t, s, types.KindResume, userID, "Resume")
	v2, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{Content: "second"})
	require.NoError(t, err)

	d, err := s.DeleteVersion(ctx, types.KindResume, userID, v2.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Proceed, d.Outcome)

	_, err = s.GetVersion(ctx, types.KindResume, userID, v2.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMaster_CascadesWhenUnreferenced(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")
	v2, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{Content: "second"})
	require.NoError(t, err)

	d, err := s.DeleteMaster(ctx, types.KindResume, userID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Cascade, d.Outcome)
	assert.Len(t, d.CascadeVersionIDs, 2)

	for _, id := range []uuid.UUID{v1.ID, v2.ID} {
		_, err = s.GetVersion(ctx, types.KindResume, userID, id)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestDeleteMaster_ReferencedRejected(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")
	bindApplication(t, s, userID, m, v1, "Acme")

	d, err := s.DeleteMaster(ctx, types.KindResume, userID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Reject, d.Outcome)
	assert.Equal(t, policy.ReasonReferenced, d.Reason)

	// Master and version survive a rejected deletion
	_, err = s.GetMaster(ctx, types.KindResume, userID, m.ID)
	assert.NoError(t, err)
	_, err = s.GetVersion(ctx, types.KindResume, userID, v1.ID)
	assert.NoError(t, err)
}

func TestUpdateVersionContent_ImmutableOnceReferenced(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	updated, err := s.UpdateVersionContent(ctx, types.KindResume, userID, v1.ID, "edited draft")
	require.NoError(t, err)
	assert.Equal(t, "edited draft", updated.Content)

	bindApplication(t, s, userID, m, v1, "Acme")

	_, err = s.UpdateVersionContent(ctx, types.KindResume, userID, v1.ID, "too late")
	var refErr *policy.ReferencedError
	require.ErrorAs(t, err, &refErr)
	require.Len(t, refErr.Blockers, 1)

	v, err := s.GetVersion(ctx, types.KindResume, userID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited draft", v.Content)
}

func TestDeleteApplication_CascadesOwnedVersionsOnly(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	customized, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{
		Content: "tailored", LabelSuffix: "Acme",
	})
	require.NoError(t, err)

	app, err := s.CreateApplication(ctx, &types.Application{
		UserID:                    userID,
		ResumeID:                  m.ID,
		ResumeVersionID:           v1.ID,
		CustomizedResumeVersionID: &customized.ID,
		Company:                   "Acme",
		Position:                  "Engineer",
	}, nil)
	require.NoError(t, err)

	d, err := s.DeleteApplication(ctx, userID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Cascade, d.Outcome)
	assert.Equal(t, []uuid.UUID{customized.ID}, d.CascadeVersionIDs)

	// Owned version is gone, original and master survive
	_, err = s.GetVersion(ctx, types.KindResume, userID, customized.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetVersion(ctx, types.KindResume, userID, v1.ID)
	assert.NoError(t, err)
	_, err = s.GetMaster(ctx, types.KindResume, userID, m.ID)
	assert.NoError(t, err)
}

func TestDeleteVersion_OwnedRejected(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")
	customized, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{
		Content: "tailored",
	})
	require.NoError(t, err)

	_, err = s.CreateApplication(ctx, &types.Application{
		UserID:                    userID,
		ResumeID:                  m.ID,
		ResumeVersionID:           v1.ID,
		CustomizedResumeVersionID: &customized.ID,
		Company:                   "Acme",
		Position:                  "Engineer",
	}, nil)
	require.NoError(t, err)

	d, err := s.DeleteVersion(ctx, types.KindResume, userID, customized.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Reject, d.Outcome)
	assert.Equal(t, policy.ReasonOwned, d.Reason)
}

func TestListApplications_FiltersAndPagination(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	for _, company := range []string{"Acme", "Globex", "Initech"} {
		bindApplication(t, s, userID, m, v1, company)
	}
	interviewing := types.StatusInterviewing
	apps, _, err := s.ListApplications(ctx, userID, types.ApplicationFilter{})
	require.NoError(t, err)
	_, err = s.UpdateApplication(ctx, userID, apps[0].ID, types.ApplicationUpdate{Status: &interviewing})
	require.NoError(t, err)

	filtered, total, err := s.ListApplications(ctx, userID, types.ApplicationFilter{Status: types.StatusInterviewing})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, filtered, 1)

	byCompany, total, err := s.ListApplications(ctx, userID, types.ApplicationFilter{Company: "glo"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Globex", byCompany[0].Company)

	paged, total, err := s.ListApplications(ctx, userID, types.ApplicationFilter{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, paged, 1)
}

func TestSearchApplications(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	_, err := s.CreateApplication(ctx, &types.Application{
		UserID: userID, ResumeID: m.ID, ResumeVersionID: v1.ID,
		Company: "Acme", Position: "Platform Engineer", Notes: "referred by Sam",
	}, nil)
	require.NoError(t, err)
	bindApplication(t, s, userID, m, v1, "Globex")

	hits, total, err := s.SearchApplications(ctx, userID, "platform", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Acme", hits[0].Company)

	hits, _, err = s.SearchApplications(ctx, userID, "sam", 1, 20)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestApplicationStats(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	a1 := bindApplication(t, s, userID, m, v1, "Acme")
	bindApplication(t, s, userID, m, v1, "Globex")

	rejected := types.StatusRejected
	_, err := s.UpdateApplication(ctx, userID, a1.ID, types.ApplicationUpdate{Status: &rejected})
	require.NoError(t, err)

	stats, err := s.ApplicationStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[types.StatusApplied])
	assert.Equal(t, 1, stats.ByStatus[types.StatusRejected])
}

func TestDeleteUser_RemovesEverything(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")
	cl, _ := mustCreateMaster(t, s, types.KindCoverLetter, userID, "Letter")
	app := bindApplication(t, s, userID, m, v1, "Acme")

	require.NoError(t, s.DeleteUser(ctx, userID))

	_, err := s.GetMaster(ctx, types.KindResume, userID, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetMaster(ctx, types.KindCoverLetter, userID, cl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetApplication(ctx, userID, app.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplates_CRUD(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tpl, err := s.CreateTemplate(ctx, types.TemplateInput{
		Name:    "Standard",
		Content: "Dear {company}, I am excited about the {position} role.",
	})
	require.NoError(t, err)

	rendered := tpl.Render("Acme", "Engineer")
	assert.Equal(t, "Dear Acme, I am excited about the Engineer role.", rendered)

	tpls, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, tpls, 1)

	require.NoError(t, s.DeleteTemplate(ctx, tpl.ID))
	assert.ErrorIs(t, s.DeleteTemplate(ctx, tpl.ID), ErrNotFound)
}

func TestCreateApplication_VanishedReferencesRejected(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	missing := uuid.New()
	tests := []struct {
		name   string
		mutate func(*types.Application)
	}{
		{"resume master gone", func(a *types.Application) { a.ResumeID = missing }},
		{"resume version gone", func(a *types.Application) { a.ResumeVersionID = missing }},
		{"cover letter master gone", func(a *types.Application) { a.CoverLetterID = &missing }},
		{"cover letter version gone", func(a *types.Application) { a.CoverLetterVersionID = &missing }},
		{"customized resume version gone", func(a *types.Application) { a.CustomizedResumeVersionID = &missing }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &types.Application{
				UserID: userID, ResumeID: m.ID, ResumeVersionID: v1.ID,
				Company: "Acme", Position: "Engineer",
			}
			tt.mutate(app)
			_, err := s.CreateApplication(ctx, app, nil)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}

	_, total, err := s.ListApplications(ctx, userID, types.ApplicationFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "rejected creates must persist nothing")
}

func TestCreateApplication_BindCreatesRowsAtomically(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	bind := &types.ApplicationBind{
		CustomizedResume: &types.VersionInput{Content: "tailored", LabelSuffix: "Acme", JobDescription: "Go"},
	}
	app, err := s.CreateApplication(ctx, &types.Application{
		UserID: userID, ResumeID: m.ID, ResumeVersionID: v1.ID,
		Company: "Acme", Position: "Engineer",
	}, bind)
	require.NoError(t, err)
	require.NotNil(t, app.CustomizedResumeVersionID)

	v, err := s.GetVersion(ctx, types.KindResume, userID, *app.CustomizedResumeVersionID)
	require.NoError(t, err)
	assert.Equal(t, "v2 - Acme", v.Label)
	assert.False(t, v.IsOriginal)
}

func TestCreateApplication_RejectedBindLeavesNoVersions(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")

	// The customized cover letter needs a cover letter master; none is
	// bound, so the whole create must fail with the resume bind unapplied.
	bind := &types.ApplicationBind{
		CustomizedResume:      &types.VersionInput{Content: "tailored", LabelSuffix: "Acme"},
		CustomizedCoverLetter: &types.VersionInput{Content: "tailored letter", LabelSuffix: "Acme"},
	}
	_, err := s.CreateApplication(ctx, &types.Application{
		UserID: userID, ResumeID: m.ID, ResumeVersionID: v1.ID,
		Company: "Acme", Position: "Engineer",
	}, bind)
	assert.ErrorIs(t, err, ErrNotFound)

	versions, err := s.ListVersions(ctx, types.KindResume, userID, m.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1, "a rejected create must not leave customized versions behind")
}

func TestDeleteVersion_ConcurrentDeletesKeepOneVersion(t *testing.T) {
	s, userID := newTestStore(t)
	ctx := context.Background()
	m, v1 := mustCreateMaster(t, s, types.KindResume, userID, "Resume")
	v2, err := s.CreateVersion(ctx, types.KindResume, userID, m.ID, types.VersionInput{Content: "second"})
	require.NoError(t, err)

	// Both deletes observe two versions before either runs; only one may
	// proceed, the other must see the survivor as the last version.
	var wg sync.WaitGroup
	decisions := make([]policy.Decision, 2)
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{v1.ID, v2.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			decisions[i], errs[i] = s.DeleteVersion(ctx, types.KindResume, userID, id)
		}(i, id)
	}
	wg.Wait()

	allowed := 0
	for i := range decisions {
		require.NoError(t, errs[i])
		if decisions[i].Allowed() {
			allowed++
		} else {
			assert.Equal(t, policy.ReasonOnlyVersion, decisions[i].Reason)
		}
	}
	assert.Equal(t, 1, allowed)

	versions, err := s.ListVersions(ctx, types.KindResume, userID, m.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}
