// Package main provides the entry point for the applytrack CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "applytrack",
	Short: "Job application and document lifecycle tracker",
	Long:  "applytrack manages resumes, cover letters, and their version histories, binds them to job applications with referential integrity, and optionally tailors documents to a job description with Gemini.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
