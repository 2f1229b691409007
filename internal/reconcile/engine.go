package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"gamesheet/internal/config"
	"gamesheet/internal/igdb"
	"gamesheet/internal/logging"
	"gamesheet/internal/match"
	"gamesheet/internal/runstate"
	"gamesheet/internal/services"
	"gamesheet/internal/sheets"
)

// Catalog bundles the lookup operations the engine needs per row.
type Catalog interface {
	igdb.Searcher
	igdb.Hydrator
}

// Summary aggregates the outcomes of a finished or aborted run.
type Summary struct {
	RunID     string
	SheetID   string
	Processed int
	Matched   int
	Ambiguous int
	NotFound  int
	Failed    int
	Skipped   int
}

// Engine drives a reconciliation run: it reads the title column, resolves
// each unprocessed row against the catalog, writes the outcome back to the
// sheet, and records progress in run state. Rows are processed strictly in
// sheet order so the persisted cursor stays meaningful across interrupts.
type Engine struct {
	cfg     *config.Config
	store   *runstate.Store
	sheet   sheets.Adapter
	catalog Catalog
	matcher *match.Matcher
	logger  *slog.Logger
	layout  outputLayout
	lock    *flock.Flock
	sleep   func(context.Context, time.Duration) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithSleep overrides the retry delay sleep (used in tests).
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(e *Engine) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

func New(cfg *config.Config, store *runstate.Store, sheet sheets.Adapter, catalog Catalog, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil || store == nil || sheet == nil || catalog == nil {
		return nil, errors.New("engine requires config, store, sheet adapter, and catalog")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	layout, err := newOutputLayout(cfg.Sheets.OutputColumn)
	if err != nil {
		return nil, fmt.Errorf("output column layout: %w", err)
	}

	engine := &Engine{
		cfg:     cfg,
		store:   store,
		sheet:   sheet,
		catalog: catalog,
		matcher: match.New(cfg),
		logger:  logging.NewComponentLogger(logger, "reconcile"),
		layout:  layout,
		lock:    flock.New(filepath.Join(cfg.Paths.StateDir, "gamesheet.lock")),
		sleep:   sleepWithContext,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Run executes one reconciliation pass over the sheet, resuming from run
// state if a previous pass was interrupted. The returned summary is valid
// even when Run returns an error; it covers the rows processed before the
// abort.
func (e *Engine) Run(ctx context.Context, sheetID string) (*Summary, error) {
	sheetID = strings.TrimSpace(sheetID)
	if sheetID == "" {
		return nil, services.Wrap(services.ErrValidation, "reconcile", "run", "sheet id required", nil)
	}

	ok, err := e.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another reconciliation run is already in progress")
	}
	defer func() {
		_ = e.lock.Unlock()
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithSheetID(ctx, sheetID)
	logger := logging.WithContext(ctx, e.logger)
	summary := &Summary{RunID: runID, SheetID: sheetID}

	if err := e.sheet.Preflight(ctx, sheetID); err != nil {
		return summary, err
	}

	column, err := e.sheet.ReadColumn(ctx, sheetID, e.cfg.Sheets.TitleColumn)
	if err != nil {
		return summary, err
	}
	var titles []string
	if len(column) > e.cfg.Sheets.HeaderRows {
		titles = column[e.cfg.Sheets.HeaderRows:]
	}
	for i := range titles {
		titles[i] = strings.TrimSpace(titles[i])
	}

	if _, err := e.store.ResetStuck(ctx, sheetID); err != nil {
		return summary, err
	}
	if err := e.store.Snapshot(ctx, sheetID, titles); err != nil {
		return summary, err
	}
	pending, err := e.store.Pending(ctx, sheetID)
	if err != nil {
		return summary, err
	}
	summary.Skipped = len(titles) - len(pending)
	logger.Info("run starting",
		logging.Int("rows", len(titles)),
		logging.Int("pending", len(pending)),
		logging.Int("skipped", summary.Skipped))

	for _, row := range pending {
		rowCtx := services.WithRowIndex(ctx, row.RowIndex)
		if err := e.processRow(rowCtx, sheetID, row, summary); err != nil {
			logger.Error("run aborted", logging.Error(err), logging.Int("processed", summary.Processed))
			return summary, err
		}
		summary.Processed++
	}

	logger.Info("run completed",
		logging.Int("processed", summary.Processed),
		logging.Int("matched", summary.Matched),
		logging.Int("ambiguous", summary.Ambiguous),
		logging.Int("notfound", summary.NotFound),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (e *Engine) processRow(ctx context.Context, sheetID string, row runstate.Row, summary *Summary) error {
	logger := logging.WithContext(ctx, e.logger)

	if row.Title == "" {
		// Blank rows get no sheet write; marking them keeps resume simple.
		summary.NotFound++
		return e.store.MarkProcessed(ctx, sheetID, row.RowIndex, runstate.StatusNotFound, "blank title")
	}

	if err := e.store.MarkQuerying(ctx, sheetID, row.RowIndex); err != nil {
		return err
	}

	outcome, lookupErr := e.resolveWithRetry(ctx, logger, row.Title)
	if lookupErr != nil {
		if services.IsRunFatal(lookupErr) || ctx.Err() != nil {
			return lookupErr
		}
		// Row-level failure: flag it in the sheet and keep going. One bad
		// row never blocks the rest of the run.
		cause := causeText(lookupErr)
		logger.Warn("row lookups exhausted", logging.String("title", row.Title), logging.Error(lookupErr))
		if err := e.writeCells(ctx, sheetID, row.RowIndex, e.layout.failureCells(cause)); err != nil {
			return err
		}
		summary.Failed++
		return e.store.MarkProcessed(ctx, sheetID, row.RowIndex, runstate.StatusFailed, cause)
	}

	cells, status, detail := e.layout.cellsFor(outcome)
	if err := e.writeCells(ctx, sheetID, row.RowIndex, cells); err != nil {
		return err
	}
	switch status {
	case runstate.StatusMatched:
		summary.Matched++
	case runstate.StatusAmbiguous:
		summary.Ambiguous++
	case runstate.StatusNotFound:
		summary.NotFound++
	}
	logger.Info("row resolved",
		logging.String("title", row.Title),
		logging.String("status", string(status)))
	return e.store.MarkProcessed(ctx, sheetID, row.RowIndex, status, detail)
}

// resolveWithRetry runs the search/match/hydrate sequence for one title,
// retrying transient catalog failures up to the configured budget.
func (e *Engine) resolveWithRetry(ctx context.Context, logger *slog.Logger, title string) (match.Outcome, error) {
	attempts := e.cfg.Runner.MaxRetries + 1
	delay := time.Duration(e.cfg.Runner.RetryDelaySeconds) * time.Second
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err := e.resolveOnce(ctx, title)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		if services.IsRunFatal(err) || !services.IsRowRetryable(err) || ctx.Err() != nil {
			return match.Outcome{}, err
		}
		if attempt < attempts {
			logger.Warn("row lookup retrying",
				logging.Int("attempt", attempt),
				logging.Error(err))
			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				return match.Outcome{}, sleepErr
			}
		}
	}
	return match.Outcome{}, lastErr
}

func (e *Engine) resolveOnce(ctx context.Context, title string) (match.Outcome, error) {
	candidates, err := e.catalog.Search(ctx, title)
	if err != nil {
		return match.Outcome{}, err
	}
	outcome := e.matcher.Resolve(title, candidates)
	if outcome.Decision == match.DecisionMatched {
		if err := e.catalog.Hydrate(ctx, &outcome.Best.Candidate); err != nil {
			return match.Outcome{}, err
		}
	}
	return outcome, nil
}

// writeCells persists one row's outcome, retrying transient backend failures.
// A write that keeps failing aborts the run: marking a row processed without
// its outcome on the sheet would corrupt resume.
func (e *Engine) writeCells(ctx context.Context, sheetID string, rowIndex int64, cells map[string]string) error {
	sheetRow := int64(e.cfg.Sheets.HeaderRows) + rowIndex + 1
	attempts := e.cfg.Runner.MaxRetries + 1
	delay := time.Duration(e.cfg.Runner.RetryDelaySeconds) * time.Second
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := e.sheet.WriteCells(ctx, sheetID, sheetRow, cells)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, services.ErrAuth) || ctx.Err() != nil {
			return err
		}
		if attempt < attempts {
			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				return sleepErr
			}
		}
	}
	return services.Wrap(services.ErrSheetWrite, "reconcile", "write",
		fmt.Sprintf("persisting row outcome failed after %d attempts", attempts), lastErr)
}

func causeText(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
