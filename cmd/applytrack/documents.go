package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/applytrack/internal/types"
)

func init() {
	rootCmd.AddCommand(newDocumentCommand(types.KindResume, "resume", "Manage resumes and their versions"))
	rootCmd.AddCommand(newDocumentCommand(types.KindCoverLetter, "cover-letter", "Manage cover letters and their versions"))
}

// newDocumentCommand builds the subcommand tree for one document family.
// Resumes and cover letters share identical lifecycle semantics, so the same
// tree serves both kinds.
func newDocumentCommand(kind types.DocumentKind, use, short string) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short}

	var createTitle, createFile string
	create := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s with an initial v1 version", kind),
		RunE: func(c *cobra.Command, _ []string) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				content, err := readContent(createFile)
				if err != nil {
					return err
				}
				master, version, err := e.lifecycle.CreateMaster(ctx, kind, e.userID, types.MasterInput{
					Title: createTitle, Content: content,
				})
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"master": master, "version": version})
			})
		},
	}
	create.Flags().StringVarP(&createTitle, "title", "t", "", "Document title")
	create.Flags().StringVarP(&createFile, "file", "f", "-", "Content file (default: stdin)")
	_ = create.MarkFlagRequired("title")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List your %ss, newest first", kind),
		RunE: func(c *cobra.Command, _ []string) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				masters, err := e.lifecycle.ListMasters(ctx, kind, e.userID)
				if err != nil {
					return err
				}
				return printJSON(masters)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				master, err := e.lifecycle.GetMaster(ctx, kind, e.userID, id)
				if err != nil {
					return err
				}
				return printJSON(master)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-default <id>",
		Short: fmt.Sprintf("Mark a %s as your default", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				master, err := e.lifecycle.SetDefault(ctx, kind, e.userID, id)
				if err != nil {
					return err
				}
				return printJSON(master)
			})
		},
	})

	var deleteDryRun bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s and all of its versions", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				if deleteDryRun {
					d, err := e.lifecycle.PreviewDeleteMaster(ctx, kind, e.userID, id)
					if err != nil {
						return err
					}
					return printJSON(d)
				}
				cascaded, err := e.lifecycle.DeleteMaster(ctx, kind, e.userID, id)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"deleted": id, "cascaded_versions": cascaded})
			})
		},
	}
	del.Flags().BoolVar(&deleteDryRun, "dry-run", false, "Report what the deletion would do without deleting")
	cmd.AddCommand(del)

	cmd.AddCommand(&cobra.Command{
		Use:   "deps <id>",
		Short: fmt.Sprintf("List applications referencing a %s or any of its versions", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				refs, err := e.lifecycle.MasterDependents(ctx, kind, e.userID, id)
				if err != nil {
					return err
				}
				return printJSON(refs)
			})
		},
	})

	cmd.AddCommand(newVersionCommand(kind))
	return cmd
}

func newVersionCommand(kind types.DocumentKind) *cobra.Command {
	cmd := &cobra.Command{Use: "version", Short: fmt.Sprintf("Manage %s versions", kind)}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <master-id>",
		Short: "List versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				versions, err := e.lifecycle.ListVersions(ctx, kind, e.userID, id)
				if err != nil {
					return err
				}
				return printJSON(versions)
			})
		},
	})

	var addLabel, addFile string
	add := &cobra.Command{
		Use:   "add <master-id>",
		Short: "Add a version (label defaults to the next v{n})",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				content, err := readContent(addFile)
				if err != nil {
					return err
				}
				v, err := e.lifecycle.CreateVersion(ctx, kind, e.userID, id, types.VersionInput{
					Label: addLabel, Content: content, IsOriginal: true,
				})
				if err != nil {
					return err
				}
				return printJSON(v)
			})
		},
	}
	add.Flags().StringVarP(&addLabel, "label", "l", "", "Version label (optional)")
	add.Flags().StringVarP(&addFile, "file", "f", "-", "Content file (default: stdin)")
	cmd.AddCommand(add)

	var editFile string
	edit := &cobra.Command{
		Use:   "edit <version-id>",
		Short: "Replace a draft version's content (rejected once referenced)",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				content, err := readContent(editFile)
				if err != nil {
					return err
				}
				v, err := e.lifecycle.UpdateDraft(ctx, kind, e.userID, id, content)
				if err != nil {
					return err
				}
				return printJSON(v)
			})
		},
	}
	edit.Flags().StringVarP(&editFile, "file", "f", "-", "Content file (default: stdin)")
	cmd.AddCommand(edit)

	var delDryRun bool
	del := &cobra.Command{
		Use:   "delete <version-id>",
		Short: "Delete a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				if delDryRun {
					d, err := e.lifecycle.PreviewDeleteVersion(ctx, kind, e.userID, id)
					if err != nil {
						return err
					}
					return printJSON(d)
				}
				if err := e.lifecycle.DeleteVersion(ctx, kind, e.userID, id); err != nil {
					return err
				}
				return printJSON(map[string]any{"deleted": id})
			})
		},
	}
	del.Flags().BoolVar(&delDryRun, "dry-run", false, "Report what the deletion would do without deleting")
	cmd.AddCommand(del)

	cmd.AddCommand(&cobra.Command{
		Use:   "deps <version-id>",
		Short: "List applications referencing a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				refs, err := e.lifecycle.VersionDependents(ctx, kind, e.userID, id)
				if err != nil {
					return err
				}
				return printJSON(refs)
			})
		},
	})

	return cmd
}

// withEnv runs fn with a fully wired environment, closing it afterwards.
func withEnv(c *cobra.Command, fn func(context.Context, *env) error) error {
	ctx := context.Background()
	e, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(ctx, e)
}

// withEnvID is withEnv plus parsing of a UUID positional argument.
func withEnvID(c *cobra.Command, raw string, fn func(context.Context, *env, uuid.UUID) error) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return withEnv(c, func(ctx context.Context, e *env) error {
		return fn(ctx, e, id)
	})
}
