// Package main provides the natura2000 CLI, which queries Natura 2000 site
// and habitat tables on EEA DiscoData.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jonathan/bioquery/internal/natura2000"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errNoResult = errors.New("no result")

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "natura2000 <command> <code>",
	Short:         "BMD Natura2000 CLI Tool",
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	cobra.EnableCaseInsensitive = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		printHelp(cmd.OutOrStdout())
	})

	for _, q := range natura2000.Queries {
		rootCmd.AddCommand(newQueryCmd(q))
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		printHelp(cmd.OutOrStdout())
		return errors.New("no command provided")
	}
	printHelp(cmd.OutOrStdout())
	return fmt.Errorf("unknown command '%s'", args[0])
}

func printHelp(w io.Writer) {
	var b strings.Builder
	b.WriteString("\nBMD Natura2000 CLI Tool\n")
	b.WriteString("Usage: natura2000 <command> <code>\n\n")
	b.WriteString("Commands:\n")
	for _, q := range natura2000.Queries {
		fmt.Fprintf(&b, "  %-28s%s\n", q.Name+" <"+q.Arg+">", q.Short)
	}
	fmt.Fprintf(&b, "  %-28s%s\n", "help", "Show this help message")
	b.WriteString("\nFlags:\n")
	b.WriteString("  --config <path>             JSON config file\n")
	b.WriteString("  --log-level <level>         debug, info, warn or error\n")
	b.WriteString("\nExamples:\n")
	b.WriteString("  natura2000 site-info NL9801015\n")
	b.WriteString("  natura2000 site-habitats NL9801015\n")
	b.WriteString("  natura2000 site-species NL9801015\n")
	b.WriteString("  natura2000 habitat-info 6230\n")
	_, _ = io.WriteString(w, b.String())
}

// execute runs the root command with args and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errNoResult) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// resetFlags restores every flag of cmd and its subcommands to its default
// so that repeated in-process executions start clean.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
