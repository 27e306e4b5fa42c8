/*
engine.go - Row-by-row import orchestration

PURPOSE:
  The Engine drives a TxStore through one import row at a time. Each
  workflow (bulk members, SIR corrections, booth fixes, house surveys)
  has a single-row method and a batch method; the batch method never
  aborts on a bad row.

PROCESSING MODEL:
  - Rows are processed in input order on the calling goroutine
  - Each row runs in its own transaction (WithTx); there is no batch
    transaction, so committed rows survive later failures
  - Candidate sets are re-queried per row, so later rows see residents
    created by earlier rows of the same batch
  - Cancelling ctx stops the batch between rows (Summary.Aborted)

COUNTERS:
  Batch counters live in the returned Summary, never in package state.

SEE ALSO:
  - bulk.go: Bulk member import
  - corrective.go: SIR corrective update
  - booth.go: Polling booth backfill
  - house.go: House survey import
*/
package census

import (
	"context"

	"github.com/warp/census-engine/logger"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store   TxStore
	matcher *Matcher
	log     *logger.Logger
	recount bool
}

type Option func(*Engine)

// WithMatcher overrides the default identifier-only matcher.
func WithMatcher(m *Matcher) Option {
	return func(e *Engine) { e.matcher = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRecount makes the engine recompute household counts after every
// resident write. Without it counts are left to RecountScheduler.
func WithRecount(on bool) Option {
	return func(e *Engine) { e.recount = on }
}

func NewEngine(store TxStore, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		matcher: NewMatcher(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Matcher() *Matcher { return e.matcher }

// =============================================================================
// ROW RESULT / SUMMARY
// =============================================================================

type Outcome string

const (
	OutcomeCreated Outcome = "created" // new resident + primary variant
	OutcomeAliased Outcome = "aliased" // matched existing resident, alias recorded
	OutcomeUpdated Outcome = "updated" // existing resident(s) patched
	OutcomeSkipped Outcome = "skipped"
)

// RowResult describes what one row did.
type RowResult struct {
	Outcome        Outcome
	ResidentID     ResidentID
	HouseholdID    HouseholdID
	Rule           string // matcher rule, for OutcomeAliased
	VariantCreated bool   // a new alias row was written
	Affected       int    // residents touched, for booth fixes
}

// Summary is the per-batch accumulator reported to the caller.
type Summary struct {
	Created int
	Updated int
	Skipped int
	Failed  int // unexpected failures, included in Skipped
	Aliases int // alias variants actually written
	Errors  []RowError
	Aborted bool
}

func (s *Summary) add(res RowResult) {
	switch res.Outcome {
	case OutcomeCreated:
		s.Created++
	case OutcomeAliased:
		s.Updated++
		if res.VariantCreated {
			s.Aliases++
		}
	case OutcomeUpdated:
		if res.Affected > 0 {
			s.Updated += res.Affected
		} else {
			s.Updated++
		}
	default:
		s.Skipped++
	}
}

func (s *Summary) skip(line int, err error) {
	s.Skipped++
	reason := "skipped"
	if !IsSkip(err) {
		s.Failed++
		reason = "failed"
	}
	s.Errors = append(s.Errors, RowError{Line: line, Reason: reason, Err: err})
}

// runBatch applies row to indexes [0, n) and accumulates a Summary.
func (e *Engine) runBatch(ctx context.Context, kind string, n int, row func(i int) (int, RowResult, error)) Summary {
	var sum Summary
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			sum.Aborted = true
			e.log.Warn("import aborted", "kind", kind, "processed", i, "total", n, "error", err)
			break
		}
		line, res, err := row(i)
		if err != nil {
			sum.skip(line, err)
			if IsSkip(err) {
				e.log.Debug("row skipped", "kind", kind, "line", line, "reason", err.Error())
			} else {
				e.log.Error("row failed", "kind", kind, "line", line, "error", err)
			}
			continue
		}
		sum.add(res)
	}
	e.log.Info("import completed",
		"kind", kind,
		"created", sum.Created,
		"updated", sum.Updated,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"aliases", sum.Aliases,
		"aborted", sum.Aborted,
	)
	return sum
}

func (e *Engine) recountHousehold(ctx context.Context, s Store, id *HouseholdID) error {
	if !e.recount || id == nil {
		return nil
	}
	return s.RecountHousehold(ctx, *id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
