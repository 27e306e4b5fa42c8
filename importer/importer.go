package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/logger"
)

// Kind selects the workflow a sheet is fed to.
type Kind string

const (
	KindMembers Kind = "members" // bulk member import
	KindSIR     Kind = "sir"     // corrective roll re-sync
	KindBooths  Kind = "booths"  // polling booth backfill
	KindHouses  Kind = "houses"  // house survey per family
)

// ParseKind validates a workflow name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindMembers, KindSIR, KindBooths, KindHouses:
		return k, nil
	}
	return "", fmt.Errorf("unknown import kind %q (want members, sir, booths or houses)", s)
}

// Importer reads sheets and feeds them to the engine.
type Importer struct {
	engine  *census.Engine
	columns Columns
	runs    RunStore
	log     *logger.Logger
}

// New creates an Importer. runs may be nil, in which case no run history
// is written.
func New(engine *census.Engine, columns Columns, runs RunStore, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{engine: engine, columns: columns, runs: runs, log: log}
}

// Run maps rows for kind and runs the workflow.
func (im *Importer) Run(ctx context.Context, kind Kind, rows []Row) census.Summary {
	switch kind {
	case KindSIR:
		return im.engine.ApplyCorrections(ctx, im.columns.CorrectiveRecords(rows))
	case KindBooths:
		return im.engine.FixBooths(ctx, im.columns.BoothRecords(rows))
	case KindHouses:
		return im.engine.ImportHouses(ctx, im.columns.HouseRecords(rows))
	default:
		return im.engine.ImportMembers(ctx, im.columns.MemberRecords(rows))
	}
}

// ImportFile reads a sheet from r and runs it, recording an ImportRun.
// The returned error covers unreadable files only; row problems are in
// the summary.
func (im *Importer) ImportFile(ctx context.Context, kind Kind, filename string, r io.Reader) (ImportRun, census.Summary, error) {
	run := NewImportRun(string(kind), filename)
	im.save(ctx, run)

	rows, err := ReadSheet(r, filename)
	if err != nil {
		run.Fail(err)
		im.save(ctx, run)
		return run, census.Summary{}, fmt.Errorf("read %s: %w", filename, err)
	}
	im.log.Info("sheet loaded", "kind", kind, "file", filename, "rows", len(rows), "run_id", run.ID)

	sum := im.Run(ctx, kind, rows)
	run.Finish(sum)
	// The run row must be written even when ctx was cancelled mid-batch.
	im.save(context.WithoutCancel(ctx), run)
	return run, sum, nil
}

func (im *Importer) save(ctx context.Context, run ImportRun) {
	if im.runs == nil {
		return
	}
	if err := im.runs.SaveImportRun(ctx, run); err != nil {
		im.log.Warn("failed to save import run", "run_id", run.ID, "error", err)
	}
}
