// Package tracker orchestrates one oracle tracking run: scan the data
// root, compare against the persisted snapshot, and commit the new
// state.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/oracletrack/config"
	"github.com/c360studio/oracletrack/diff"
	"github.com/c360studio/oracletrack/extract"
	"github.com/c360studio/oracletrack/protocol"
	"github.com/c360studio/oracletrack/snapshot"
	"github.com/google/uuid"
)

// OutcomeKind distinguishes the three run results. A first run (no
// snapshot yet) is not the same as a run with no differences.
type OutcomeKind string

const (
	OutcomeFirstRun  OutcomeKind = "first-run"
	OutcomeNoChanges OutcomeKind = "no-changes"
	OutcomeChanges   OutcomeKind = "changes"
)

// Outcome is the result of a single run.
type Outcome struct {
	Kind     OutcomeKind
	RunID    string
	Revision string

	// Dataset is the freshly scanned record set.
	Dataset protocol.Dataset

	// Changes is empty for first runs and no-change runs.
	Changes diff.Changeset

	// Collisions lists cross-file id overrides observed during the scan.
	Collisions []protocol.Collision
}

// RunOptions are per-run parameters.
type RunOptions struct {
	// DryRun suppresses all snapshot writes.
	DryRun bool

	// Revision identifies the data source state being scanned (for
	// example the data repo's commit SHA). It is stamped on every
	// change record and on the committed snapshot.
	Revision string
}

// Runner executes tracking runs against a fixed configuration. The
// external control loop guarantees at most one run at a time, so the
// runner takes no locks.
type Runner struct {
	cfg     *config.Config
	scanner *extract.Scanner
	store   *snapshot.Store
	logger  *slog.Logger
}

// NewRunner creates a runner from an explicit configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:     cfg,
		scanner: extract.NewScanner(cfg.Repo.Path, cfg.Scan.Targets, logger),
		store:   snapshot.NewStore(cfg.Snapshot.Path),
		logger:  logger,
	}
}

// Store returns the runner's snapshot store.
func (r *Runner) Store() *snapshot.Store {
	return r.store
}

// Scan builds the current dataset without touching the snapshot. Used
// by the debug dump modes, which bypass diffing entirely.
func (r *Runner) Scan(ctx context.Context) (protocol.Dataset, []protocol.Collision, error) {
	return r.scanner.ScanRoot(ctx)
}

// Run executes one complete cycle: scan, load snapshot, seed or diff,
// and commit. Parse failures and snapshot corruption abort the run;
// missing target files and malformed records were already skipped
// during the scan.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Outcome, error) {
	runID := uuid.New().String()
	logger := r.logger.With(slog.String("run_id", runID))

	dataset, collisions, err := r.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan data root: %w", err)
	}
	logger.Debug("Scan complete",
		slog.Int("records", len(dataset)),
		slog.Int("collisions", len(collisions)))

	if r.cfg.Scan.ReportCollisions {
		for _, c := range collisions {
			logger.Warn("Record id collision, last file wins",
				slog.String("id", c.ID),
				slog.String("shadowed", c.Shadowed),
				slog.String("winner", c.Winner))
		}
	}

	outcome := &Outcome{
		RunID:      runID,
		Revision:   opts.Revision,
		Dataset:    dataset,
		Changes:    diff.Changeset{},
		Collisions: collisions,
	}

	doc, err := r.store.Load()
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		outcome.Kind = OutcomeFirstRun
		if opts.DryRun {
			logger.Info("Dry run: snapshot absent, skipping seed")
			return outcome, nil
		}
		if err := r.commit(outcome); err != nil {
			return nil, err
		}
		logger.Info("Seeded initial snapshot", slog.String("path", r.store.Path()))
		return outcome, nil
	}
	if err != nil {
		return nil, err
	}

	outcome.Changes = diff.Diff(doc.Protocols, dataset, opts.Revision)
	if len(outcome.Changes) > 0 {
		outcome.Kind = OutcomeChanges
	} else {
		outcome.Kind = OutcomeNoChanges
	}

	logRecordTurnover(logger, doc.Protocols, dataset)

	if !opts.DryRun {
		if err := r.commit(outcome); err != nil {
			return nil, err
		}
	}

	logger.Info("Run complete",
		slog.String("outcome", string(outcome.Kind)),
		slog.Int("changed", len(outcome.Changes)))
	return outcome, nil
}

// commit replaces the snapshot with the outcome's dataset.
func (r *Runner) commit(outcome *Outcome) error {
	return r.store.Save(&snapshot.Document{
		GeneratedAt: time.Now().UTC(),
		RunID:       outcome.RunID,
		Revision:    outcome.Revision,
		Protocols:   outcome.Dataset,
	})
}

// logRecordTurnover logs protocols that appeared or disappeared
// entirely. Record-level add/remove is deliberately excluded from the
// change-set, so this is the only place the turnover is observable.
func logRecordTurnover(logger *slog.Logger, prev, next protocol.Dataset) {
	for _, id := range next.IDs() {
		if _, ok := prev[id]; !ok {
			logger.Debug("New protocol observed", slog.String("id", id))
		}
	}
	for _, id := range prev.IDs() {
		if _, ok := next[id]; !ok {
			logger.Debug("Protocol no longer present", slog.String("id", id))
		}
	}
}
