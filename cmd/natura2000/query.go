package main

import (
	"fmt"

	"github.com/jonathan/bioquery/internal/config"
	"github.com/jonathan/bioquery/internal/fetch"
	"github.com/jonathan/bioquery/internal/natura2000"
	"github.com/jonathan/bioquery/internal/observability"
	"github.com/spf13/cobra"
)

func newQueryCmd(q natura2000.Query) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <%s>", q.Name, q.Arg),
		Short: q.Short,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				printHelp(cmd.OutOrStdout())
				return fmt.Errorf("command '%s' requires a code argument", q.Name)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, q, args[0])
		},
	}
}

func runQuery(cmd *cobra.Command, q natura2000.Query, code string) error {
	if err := natura2000.ValidateCode(code); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	httpClient := fetch.NewClient(&fetch.Options{
		Timeout:   config.Seconds(cfg.Natura2000.TimeoutSeconds),
		UserAgent: cfg.HTTP.UserAgent,
	})
	defer httpClient.Close()

	client := natura2000.NewClient(cfg.Natura2000.Endpoint, httpClient, logger)
	env := client.Run(cmd.Context(), q, code)
	if env == nil {
		return errNoResult
	}

	if err := observability.NewPrinter(cmd.OutOrStdout()).PrintJSON(env); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
