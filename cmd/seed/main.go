package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/EmpoweredVote/EV-Choropleth/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	csvPath     string
	dsn         string
	dryRun      bool
	confirm     bool
	advisoryKey int64
}

func main() {
	_ = godotenv.Load(".env.local")
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace choropleth.observations with the rows of a CSV file",
		Long: `seed parses the observation CSV (iso3c, year, value, type), validates it and
replaces the contents of choropleth.observations in one transaction.

Run with --dry-run first to see the plan; --confirm is required to write.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.csvPath, "csv", "", "Path to the source CSV (required)")
	cmd.Flags().StringVar(&o.dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Parse + validate only; no DB writes")
	cmd.Flags().BoolVar(&o.confirm, "confirm", false, "Required to perform destructive replace")
	cmd.Flags().Int64Var(&o.advisoryKey, "advisory-lock", 0, "Optional Postgres advisory lock key. 0 = disabled")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, o *options) error {
	out := cmd.OutOrStdout()

	f, err := os.Open(o.csvPath)
	if err != nil {
		return fmt.Errorf("CSV error: %w", err)
	}
	obs, skipped, err := dataset.ParseObservations(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("CSV error: %w", err)
	}
	if err := validateRows(obs); err != nil {
		return fmt.Errorf("CSV validation failed: %w", err)
	}

	fmt.Fprintf(out, "Loaded %d observations from %s (%d rows skipped)\n", len(obs), o.csvPath, skipped)

	if o.dryRun {
		printPlan(cmd, obs)
		fmt.Fprintln(out, "Dry run complete. No changes made.")
		return nil
	}
	if !o.confirm {
		return errors.New("refusing to run without --confirm. Add --dry-run to preview")
	}
	if o.dsn == "" {
		return errors.New("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	// Schema and table come from the gorm model so the server and the
	// seeder agree on column types.
	gdb, err := db.Connect(o.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	conn, err := pgx.Connect(ctx, o.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background()) // no-op if already committed
	}()

	if o.advisoryKey != 0 {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, o.advisoryKey); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
	}

	before, err := countRows(ctx, tx)
	if err != nil {
		return fmt.Errorf("pre-count: %w", err)
	}
	fmt.Fprintf(out, "Before: observations=%d\n", before)

	if _, err := tx.Exec(ctx, `DELETE FROM `+observationsTable.Sanitize()); err != nil {
		return fmt.Errorf("wipe data: %w", err)
	}

	n, err := tx.CopyFrom(ctx, observationsTable, observationColumns, pgx.CopyFromRows(copyRows(obs)))
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	after, err := countRows(ctx, tx)
	if err != nil {
		return fmt.Errorf("post-count: %w", err)
	}
	fmt.Fprintf(out, "After:  observations=%d\n", after)

	if after != n || n != int64(len(obs)) {
		return fmt.Errorf("sanity check failed: copied=%d counted=%d expected=%d", n, after, len(obs))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	fmt.Fprintln(out, "Seed complete ✅")
	return nil
}

var (
	observationsTable  = pgx.Identifier{db.Schema, "observations"}
	observationColumns = []string{"iso3c", "year", "value", "type"}
)

func countRows(ctx context.Context, tx pgx.Tx) (int64, error) {
	var n int64
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM `+observationsTable.Sanitize()).Scan(&n)
	return n, err
}

// copyRows lays out observations in observationColumns order. Missing
// values are written as NULL.
func copyRows(obs []dataset.Observation) [][]any {
	rows := make([][]any, len(obs))
	for i, o := range obs {
		r := db.RowFromObservation(o)
		var value any
		if r.Value != nil {
			value = *r.Value
		}
		rows[i] = []any{r.ISO3C, r.Year, value, r.Type}
	}
	return rows
}

func validateRows(obs []dataset.Observation) error {
	if len(obs) == 0 {
		return errors.New("no observations")
	}
	for i, o := range obs {
		if o.ISO3C == "" {
			return fmt.Errorf("row %d: empty iso3c", i+2)
		}
		if len(o.ISO3C) > 8 {
			return fmt.Errorf("row %d: iso3c %q longer than 8 characters", i+2, o.ISO3C)
		}
		if math.IsInf(o.Value, 0) {
			return fmt.Errorf("row %d: infinite value", i+2)
		}
	}
	return nil
}

type yearPlan struct {
	Year     int
	Rows     int
	Positive int
}

func planByYear(obs []dataset.Observation) []yearPlan {
	byYear := map[int]*yearPlan{}
	for _, o := range obs {
		p, ok := byYear[o.Year]
		if !ok {
			p = &yearPlan{Year: o.Year}
			byYear[o.Year] = p
		}
		p.Rows++
		if o.Positive() {
			p.Positive++
		}
	}
	out := make([]yearPlan, 0, len(byYear))
	for _, p := range byYear {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func printPlan(cmd *cobra.Command, obs []dataset.Observation) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Plan (destructive replace of "+observationsTable.Sanitize()+"):")
	for _, p := range planByYear(obs) {
		fmt.Fprintf(out, "  %d: %d rows, %d with positive values\n", p.Year, p.Rows, p.Positive)
	}
}
