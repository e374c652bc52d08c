package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/applytrack/internal/types"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage reusable cover letter templates",
}

var (
	tplName        string
	tplDescription string
	tplFile        string
)

func init() {
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a template ({company} and {position} placeholders are filled at generation time)",
		RunE: func(c *cobra.Command, _ []string) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				content, err := readContent(tplFile)
				if err != nil {
					return err
				}
				tpl, err := e.binding.CreateTemplate(ctx, types.TemplateInput{
					Name: tplName, Description: tplDescription, Content: content,
				})
				if err != nil {
					return err
				}
				return printJSON(tpl)
			})
		},
	}
	create.Flags().StringVarP(&tplName, "name", "n", "", "Template name")
	create.Flags().StringVarP(&tplDescription, "description", "d", "", "Template description")
	create.Flags().StringVarP(&tplFile, "file", "f", "-", "Content file (default: stdin)")
	_ = create.MarkFlagRequired("name")
	templateCmd.AddCommand(create)

	templateCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(c *cobra.Command, _ []string) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				tpls, err := e.binding.ListTemplates(ctx)
				if err != nil {
					return err
				}
				return printJSON(tpls)
			})
		},
	})

	templateCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				tpl, err := e.binding.GetTemplate(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(tpl)
			})
		},
	})

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a template's name, description, and content",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				content, err := readContent(tplFile)
				if err != nil {
					return err
				}
				tpl, err := e.binding.UpdateTemplate(ctx, id, types.TemplateInput{
					Name: tplName, Description: tplDescription, Content: content,
				})
				if err != nil {
					return err
				}
				return printJSON(tpl)
			})
		},
	}
	update.Flags().StringVarP(&tplName, "name", "n", "", "Template name")
	update.Flags().StringVarP(&tplDescription, "description", "d", "", "Template description")
	update.Flags().StringVarP(&tplFile, "file", "f", "-", "Content file (default: stdin)")
	_ = update.MarkFlagRequired("name")
	templateCmd.AddCommand(update)

	templateCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template (applications are unaffected)",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withEnvID(c, args[0], func(ctx context.Context, e *env, id uuid.UUID) error {
				if err := e.binding.DeleteTemplate(ctx, id); err != nil {
					return err
				}
				return printJSON(map[string]any{"deleted": id})
			})
		},
	})

	rootCmd.AddCommand(templateCmd)
}
