package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/applytrack/internal/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Manage job applications",
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

var (
	applyCompany        string
	applyPosition       string
	applyJobFile        string
	applyResumeID       string
	applyResumeVersion  string
	applyCustomize      bool
	applyCoverID        string
	applyCoverVersion   string
	applyCustomizeCover bool
	applyGenerateCover  bool
	applyTemplateID     string
	applyInstructions   string
	applyStatus         string
	applyDate           string
	applyNotes          string
)

var applyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an application binding a resume version (and optionally a cover letter)",
	Long: `Creates a job application bound to a resume version. The bound version is
protected from deletion for the life of the application. With --customize-resume
or --customize-cover-letter, a tailored version owned by the application is
generated from the job description; --generate-cover-letter writes a brand-new
cover letter document when none is bound.`,
	RunE: func(c *cobra.Command, _ []string) error {
		return withEnv(c, func(ctx context.Context, e *env) error {
			req := types.CreateApplicationRequest{
				Company:                applyCompany,
				Position:               applyPosition,
				CustomizeResume:        applyCustomize,
				CustomizeCoverLetter:   applyCustomizeCover,
				GenerateCoverLetter:    applyGenerateCover,
				AdditionalInstructions: applyInstructions,
				Status:                 applyStatus,
				Notes:                  applyNotes,
			}

			var err error
			if req.ResumeID, err = uuid.Parse(applyResumeID); err != nil {
				return fmt.Errorf("invalid --resume-id: %w", err)
			}
			if req.ResumeVersionID, err = uuid.Parse(applyResumeVersion); err != nil {
				return fmt.Errorf("invalid --resume-version: %w", err)
			}
			if applyCoverID != "" {
				id, err := uuid.Parse(applyCoverID)
				if err != nil {
					return fmt.Errorf("invalid --cover-letter-id: %w", err)
				}
				req.CoverLetterID = &id
			}
			if applyCoverVersion != "" {
				id, err := uuid.Parse(applyCoverVersion)
				if err != nil {
					return fmt.Errorf("invalid --cover-letter-version: %w", err)
				}
				req.CoverLetterVersionID = &id
			}
			if applyTemplateID != "" {
				id, err := uuid.Parse(applyTemplateID)
				if err != nil {
					return fmt.Errorf("invalid --template-id: %w", err)
				}
				req.TemplateID = &id
			}
			if applyJobFile != "" {
				if req.JobDescription, err = readContent(applyJobFile); err != nil {
					return err
				}
			}
			if applyDate != "" {
				if req.AppliedDate, err = time.Parse("2006-01-02", applyDate); err != nil {
					return fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
				}
			}

			app, err := e.binding.CreateApplication(ctx, e.userID, req)
			if err != nil {
				return err
			}
			return printJSON(app)
		})
	},
}

func init() {
	f := applyCreateCmd.Flags()
	f.StringVarP(&applyCompany, "company", "c", "", "Company name")
	f.StringVarP(&applyPosition, "position", "p", "", "Position title")
	f.StringVarP(&applyJobFile, "job", "j", "", "Path to job description text file")
	f.StringVar(&applyResumeID, "resume-id", "", "Resume to bind")
	f.StringVar(&applyResumeVersion, "resume-version", "", "Resume version to bind")
	f.BoolVar(&applyCustomize, "customize-resume", false, "Generate an AI-tailored resume version owned by this application")
	f.StringVar(&applyCoverID, "cover-letter-id", "", "Cover letter to bind (optional)")
	f.StringVar(&applyCoverVersion, "cover-letter-version", "", "Cover letter version to bind (optional)")
	f.BoolVar(&applyCustomizeCover, "customize-cover-letter", false, "Generate an AI-tailored cover letter version owned by this application")
	f.BoolVar(&applyGenerateCover, "generate-cover-letter", false, "Generate a brand-new cover letter document for this application")
	f.StringVar(&applyTemplateID, "template-id", "", "Template to seed cover letter generation (optional)")
	f.StringVar(&applyInstructions, "instructions", "", "Additional instructions for AI customization")
	f.StringVar(&applyStatus, "status", "", "Initial status (default: Applied)")
	f.StringVar(&applyDate, "date", "", "Applied date, YYYY-MM-DD (default: today)")
	f.StringVar(&applyNotes, "notes", "", "Free-form notes")
	_ = applyCreateCmd.MarkFlagRequired("company")
	_ = applyCreateCmd.MarkFlagRequired("position")
	_ = applyCreateCmd.MarkFlagRequired("resume-id")
	_ = applyCreateCmd.MarkFlagRequired("resume-version")
	applyCmd.AddCommand(applyCreateCmd)
}

var (
	listStatus  string
	listCompany string
	listPage    int
	listPerPage int
)

var applyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications with optional filters",
	RunE: func(c *cobra.Command, _ []string) error {
		return withEnv(c, func(ctx context.Context, e *env) error {
			apps, total, err := e.binding.ListApplications(ctx, e.userID, types.ApplicationFilter{
				Status: listStatus, Company: listCompany, Page: listPage, PerPage: listPerPage,
			})
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"total": total, "applications": apps})
		})
	},
}

var applySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search applications by company, position, job description, or notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return withEnv(c, func(ctx context.Context, e *env) error {
			apps, total, err := e.binding.SearchApplications(ctx, e.userID, args[0], listPage, listPerPage)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"total": total, "applications": apps})
		})
	},
}

func init() {
	applyListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
	applyListCmd.Flags().StringVar(&listCompany, "company", "", "Filter by company substring")
	for _, c := range []*cobra.Command{applyListCmd, applySearchCmd} {
		c.Flags().IntVar(&listPage, "page", 1, "Page number")
		c.Flags().IntVar(&listPerPage, "per-page", 20, "Results per page")
	}
	applyCmd.AddCommand(applyListCmd, applySearchCmd)
}

func init() {
	applyCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				app, err := e.binding.GetApplication(ctx, e.userID, id)
				if err != nil {
					return err
				}
				return printJSON(app)
			})
		},
	})

	applyCmd.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an application through the status workflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				app, err := e.binding.UpdateStatus(ctx, e.userID, id, args[1])
				if err != nil {
					return err
				}
				return printJSON(app)
			})
		},
	})

	applyCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Summarize your applications by status",
		RunE: func(c *cobra.Command, _ []string) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				stats, err := e.binding.Stats(ctx, e.userID)
				if err != nil {
					return err
				}
				return printJSON(stats)
			})
		},
	})
}

var recentLimit int

func init() {
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Show your most recent applications",
		RunE: func(c *cobra.Command, _ []string) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				apps, err := e.binding.Recent(ctx, e.userID, recentLimit)
				if err != nil {
					return err
				}
				return printJSON(apps)
			})
		},
	}
	recent.Flags().IntVarP(&recentLimit, "limit", "n", 5, "Number of applications to show")
	applyCmd.AddCommand(recent)
}

var applyDeleteDryRun bool

func init() {
	del := &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete applications and the customized versions they own",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				ids := make([]uuid.UUID, len(args))
				for i, raw := range args {
					id, err := uuid.Parse(raw)
					if err != nil {
						return fmt.Errorf("invalid id %q: %w", raw, err)
					}
					ids[i] = id
				}

				if applyDeleteDryRun {
					if len(ids) != 1 {
						return fmt.Errorf("--dry-run takes exactly one id")
					}
					d, err := e.binding.PreviewDelete(ctx, e.userID, ids[0])
					if err != nil {
						return err
					}
					return printJSON(d)
				}
				if len(ids) == 1 {
					cascaded, err := e.binding.DeleteApplication(ctx, e.userID, ids[0])
					if err != nil {
						return err
					}
					return printJSON(map[string]any{"deleted": ids[0], "cascaded_versions": cascaded})
				}
				return printJSON(e.binding.BulkDelete(ctx, e.userID, ids))
			})
		},
	}
	del.Flags().BoolVar(&applyDeleteDryRun, "dry-run", false, "Report what the deletion would cascade to without deleting")
	applyCmd.AddCommand(del)
}
