// Package main provides the species_resolver CLI, which resolves a policy
// code or scientific name into one identity across EUNIS, GBIF,
// ChecklistBank and Global Names.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "species_resolver <query>",
	Short: "Species Identifier Resolution Service",
	Long:  "Species Identifier Resolution Service - dynamically resolves species across databases (EEA EUNIS policy codes, GBIF Backbone, ChecklistBank, Global Names Verifier).",
	Example: `  species_resolver "A072"
  species_resolver "Pernis apivorus"
  species_resolver "Falco apivorus" --format json
  species_resolver "1234" --refresh-cache`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE:       validateFlags,
	RunE:          runResolve,
}

// execute runs the root command with args and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// resetFlags restores every flag to its default so that repeated in-process
// executions do not inherit values from earlier runs.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
