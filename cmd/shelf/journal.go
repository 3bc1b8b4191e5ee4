package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/config"
	"github.com/sagarc03/shelf/database"
)

var errJournalDisabled = errors.New("journal is disabled: set journal.type to sqlite or postgres")

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect and maintain the operation journal",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded storage operations",
	Long: `List recorded storage operations, oldest first.

Examples:
  # Everything recorded under images/
  shelf journal list --prefix images/

  # Only deletions, as JSON
  shelf journal list --op delete_file --json

  # Next page
  shelf journal list --cursor <next_cursor>`,
	Args: cobra.NoArgs,
	RunE: runJournalList,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old journal entries",
	Long: `Delete journal entries older than the given duration.

Examples:
  # Keep the last 30 days
  shelf journal prune --older-than 720h`,
	Args: cobra.NoArgs,
	RunE: runJournalPrune,
}

var (
	journalPrefix    string
	journalOp        string
	journalLimit     int
	journalCursor    string
	journalJSON      bool
	journalOlderThan time.Duration
)

func init() {
	journalListCmd.Flags().StringVar(&journalPrefix, "prefix", "", "only entries whose path starts with prefix")
	journalListCmd.Flags().StringVar(&journalOp, "op", "", "only entries of this operation: upload, copy, delete_file, delete_dir")
	journalListCmd.Flags().IntVar(&journalLimit, "limit", 100, "maximum number of entries per page")
	journalListCmd.Flags().StringVar(&journalCursor, "cursor", "", "cursor returned by a previous page")
	journalListCmd.Flags().BoolVar(&journalJSON, "json", false, "print the page as JSON")

	journalPruneCmd.Flags().DurationVar(&journalOlderThan, "older-than", 0, "delete entries older than this duration (e.g. 720h)")
	_ = journalPruneCmd.MarkFlagRequired("older-than")

	journalCmd.AddCommand(journalListCmd, journalPruneCmd)
	rootCmd.AddCommand(journalCmd)
}

// openJournal connects to the configured journal without migrating it.
func openJournal(ctx context.Context) (shelf.Journal, func(), error) {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Journal.Enabled() {
		return nil, nil, errJournalDisabled
	}

	db, err := database.Connect(ctx, cfg.Journal)
	if err != nil {
		return nil, nil, fmt.Errorf("connect journal: %w", err)
	}
	closeDB := func() { _ = db.Close() }

	if err = db.Ping(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("ping journal: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("validate journal schema: %w", err)
	}

	return db.GetJournal(), closeDB, nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	q := shelf.JournalQuery{
		PathPrefix: journalPrefix,
		Limit:      journalLimit,
		Cursor:     journalCursor,
	}
	if journalOp != "" {
		op, err := shelf.ParseOperation(journalOp)
		if err != nil {
			return err
		}
		q.Op = op
	}

	journal, closeDB, err := openJournal(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	page, err := journal.List(ctx, q)
	if err != nil {
		return fmt.Errorf("list journal: %w", err)
	}

	if journalJSON {
		return writeJournalJSON(cmd.OutOrStdout(), page)
	}
	return writeJournalTable(cmd.OutOrStdout(), page)
}

func runJournalPrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if journalOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive, got %s", journalOlderThan)
	}

	journal, closeDB, err := openJournal(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	before := time.Now().Add(-journalOlderThan)
	removed, err := journal.Prune(ctx, before)
	if err != nil {
		return fmt.Errorf("prune journal: %w", err)
	}

	slog.Info("journal pruned", "before", before.UTC().Format(time.RFC3339), "removed", removed)
	return nil
}

func writeJournalJSON(w io.Writer, page shelf.JournalPage) error {
	if page.Items == nil {
		page.Items = []shelf.JournalEntry{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(page)
}

func writeJournalTable(w io.Writer, page shelf.JournalPage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "TIME\tOP\tPATH\tSOURCE\tSIZE")
	for _, e := range page.Items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			e.CreatedAt.UTC().Format(time.RFC3339), e.Op, e.Path, e.Source, e.SizeBytes)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if page.NextCursor != "" {
		_, err := fmt.Fprintf(w, "\nnext cursor: %s\n", page.NextCursor)
		return err
	}
	return nil
}
