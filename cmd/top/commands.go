package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/topnuomi/top/top"
	"github.com/topnuomi/top/topservices/database"
)

var (
	success = color.New(color.FgGreen, color.Bold)
	muted   = color.New(color.Faint)
)

func loadConfig(cmd *cobra.Command) (top.AppConfig, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	config, err := top.LoadConfig(path)
	if err != nil {
		return top.AppConfig{}, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.LogLevel(),
	}))

	return config, logger, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the application over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			cacheDriver, err := config.CacheDriver()
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()

			databaseService, err := config.Database(
				database.WithLogger(logger),
				database.WithSchemaCache(cacheDriver, 10*time.Minute),
				database.WithMetrics(registry),
			)
			if err != nil {
				return err
			}
			defer databaseService.Close()

			app, err := top.NewApp(
				cmd.Context(),
				config,
				top.WithLogger(logger),
				top.WithDatabase(databaseService),
				top.WithMetrics(registry),
				top.WithHandler("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNoContent)
				})),
			)
			if err != nil {
				return err
			}

			return app.Serve(cmd.Context())
		},
	}
}

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			databaseService, err := config.Database()
			if err != nil {
				return err
			}
			defer databaseService.Close()

			started := time.Now()
			if err := databaseService.Connect(cmd.Context()); err != nil {
				return err
			}

			success.Fprintf(cmd.OutOrStdout(), "connected to %s", databaseService.Driver().Name())
			muted.Fprintf(cmd.OutOrStdout(), " (%s)\n", time.Since(started).Round(time.Millisecond))

			return nil
		},
	}
}

func newSQLCommand() *cobra.Command {
	var (
		table  string
		fields []string
		where  string
		order  string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the select statement for a table without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseService, err := sqlService(cmd)
			if err != nil {
				return err
			}
			defer databaseService.Close()

			builder := databaseService.Table(table).Field(fields...).Order(order)
			if where != "" {
				builder.Where(database.Raw(where))
			}

			switch {
			case offset > 0:
				builder.LimitOffset(offset, limit)
			case limit > 0:
				builder.Limit(limit)
			}

			statement, err := builder.SelectSQL(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), statement)

			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Table to select from, without prefix")
	cmd.Flags().StringSliceVar(&fields, "field", nil, "Columns to select")
	cmd.Flags().StringVar(&where, "where", "", "Raw where condition")
	cmd.Flags().StringVar(&order, "order", "", "Order by expression")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip, requires --limit")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

// sqlService compiles against the configured database when a config file is
// given and against an in memory SQLite database otherwise. Nothing is
// executed either way.
func sqlService(cmd *cobra.Command) (*database.Service, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		config, _, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}

		return config.Database()
	}

	return database.New(database.NewDriverSQLite(":memory:"))
}
