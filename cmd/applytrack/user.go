package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var userDeleteConfirm bool

func init() {
	del := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the user with every application, document, and version they own",
		RunE: func(c *cobra.Command, _ []string) error {
			if !userDeleteConfirm {
				return fmt.Errorf("refusing to delete account without --yes")
			}
			return withEnv(c, func(ctx context.Context, e *env) error {
				if err := e.binding.DeleteUser(ctx, e.userID); err != nil {
					return err
				}
				return printJSON(map[string]any{"deleted_user": e.userID})
			})
		},
	}
	del.Flags().BoolVar(&userDeleteConfirm, "yes", false, "Confirm the deletion")
	rootCmd.AddCommand(del)
}
