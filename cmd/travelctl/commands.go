package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"travelshop/internal/adapters/objectstore"
	"travelshop/internal/adapters/xlsx"
	"travelshop/internal/app"
	"travelshop/internal/domain"
	"travelshop/internal/normalize"
	"travelshop/internal/storage/sqlstore"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newMigrateCommand(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := env.openDB(ctx); err != nil {
				return err
			}
			if err := sqlstore.Migrate(ctx, env.db, env.dialect); err != nil {
				return err
			}
			v, err := sqlstore.MigrationVersion(ctx, env.db, env.dialect)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", v, env.dialect)
			return nil
		},
	}
}

func newSeedCommand(env *cliEnv) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo packages, notices and the admin account; existing rows are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := env.migratedRepo(ctx)
			if err != nil {
				return err
			}
			data := app.DefaultSeed()
			if file != "" {
				if data, err = os.ReadFile(file); err != nil {
					return fmt.Errorf("read seed file: %w", err)
				}
			}
			auth, err := env.authService(repo)
			if err != nil {
				return err
			}
			rep, err := app.NewSeeder(repo, repo, auth).Seed(ctx, data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixture file (defaults to the built-in demo catalogue)")
	return cmd
}

func newBackfillCommand(env *cliEnv) *cobra.Command {
	var opt app.BackfillOptions
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Rewrite legacy package rows into the current shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := env.migratedRepo(ctx)
			if err != nil {
				return err
			}
			if opt.Workers <= 0 {
				opt.Workers = env.cfg.BackfillWorkers
			}
			var cache domain.Cache
			if !opt.DryRun {
				cache = env.optionalCache(ctx)
			}
			rep, err := app.NewBackfillService(repo, cache).Run(ctx, opt)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if rep.Failed > 0 {
				return fmt.Errorf("%d rows failed to rewrite", rep.Failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opt.Workers, "workers", 0, "concurrent rewrites (defaults to BACKFILL_WORKERS)")
	cmd.Flags().IntVar(&opt.Batch, "batch", 200, "rows read per batch")
	cmd.Flags().BoolVar(&opt.DryRun, "dry-run", false, "report what would change without writing")
	return cmd
}

func newBucketCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bucket",
		Short: "Manage the image bucket",
	}
	var private bool
	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create the image bucket when it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if env.cfg.StorageBase == "" || env.cfg.StorageKey == "" {
				return fmt.Errorf("STORAGE_BASE_URL and STORAGE_API_KEY are required")
			}
			c, err := objectstore.New(env.cfg.StorageBase, env.cfg.StorageKey, env.cfg.StorageRPS)
			if err != nil {
				return err
			}
			created, err := c.EnsureBucket(cmd.Context(), env.cfg.StorageBucket, !private)
			if err != nil {
				return err
			}
			state := "exists"
			if created {
				state = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bucket %s %s\n", env.cfg.StorageBucket, state)
			return nil
		},
	}
	ensure.Flags().BoolVar(&private, "private", false, "create the bucket without public read access")
	cmd.AddCommand(ensure)
	return cmd
}

type diagnosis struct {
	Driver          string `json:"driver"`
	Database        string `json:"database"`
	SchemaVersion   int64  `json:"schema_version"`
	Packages        int    `json:"packages"`
	LegacyPackages  int    `json:"legacy_packages"`
	Redis           string `json:"redis"`
	ImageUploads    bool   `json:"image_uploads"`
	BackfillPending bool   `json:"backfill_pending"`
}

func newDiagnoseCommand(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check database, schema and cache health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d := diagnosis{
				Driver:       env.cfg.DBDriver,
				Database:     "ok",
				Redis:        "ok",
				ImageUploads: env.cfg.StorageBase != "" && env.cfg.StorageKey != "",
			}
			repo, err := env.openDB(ctx)
			if err != nil {
				d.Database = err.Error()
				_ = printJSON(cmd.OutOrStdout(), d)
				return err
			}
			if d.SchemaVersion, err = sqlstore.MigrationVersion(ctx, env.db, env.dialect); err != nil {
				return err
			}
			if d.SchemaVersion > 0 {
				if d.Packages, d.LegacyPackages, err = repo.CountPackages(ctx); err != nil {
					return err
				}
				d.BackfillPending = d.LegacyPackages > 0
			}
			if env.optionalCache(ctx) == nil {
				d.Redis = "unreachable"
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
}

func newExportCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export data for back-office tools",
	}
	var out, status string
	resv := &cobra.Command{
		Use:   "reservations",
		Short: "Write reservations to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := env.migratedRepo(ctx)
			if err != nil {
				return err
			}
			admin := app.NewAdminService(repo, repo, repo, nil, nil, "")
			rs, err := admin.ListReservations(ctx, domain.ReservationFilter{
				Status: domain.ReservationStatus(strings.ToLower(status)),
			})
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := xlsx.WriteReservations(f, rs); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d reservations to %s\n", len(rs), out)
			return nil
		},
	}
	resv.Flags().StringVar(&out, "out", "reservations.xlsx", "output file")
	resv.Flags().StringVar(&status, "status", "", "only export reservations in this status")
	cmd.AddCommand(resv)
	return cmd
}

func newNormalizeCommand(env *cliEnv) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "normalize <id>",
		Short: "Print the normalized view of one stored package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := env.migratedRepo(ctx)
			if err != nil {
				return err
			}
			p, err := repo.GetPackage(ctx, args[0])
			if err != nil {
				return fmt.Errorf("package %s: %w", args[0], err)
			}
			if raw {
				return printJSON(cmd.OutOrStdout(), p)
			}
			n := normalize.Normalize(p)
			return printJSON(cmd.OutOrStdout(), struct {
				domain.NormalizedPackage
				DroppedImages int `json:"droppedImages"`
			}{n, n.DroppedImages})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored record instead")
	return cmd
}
