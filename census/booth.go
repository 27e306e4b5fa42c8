package census

import (
	"context"
	"fmt"
)

// =============================================================================
// POLLING BOOTH BACKFILL
// =============================================================================

// FixBooths assigns polling booths from a roll export.
func (e *Engine) FixBooths(ctx context.Context, recs []BoothRecord) Summary {
	return e.runBatch(ctx, "booths", len(recs), func(i int) (int, RowResult, error) {
		res, err := e.FixBooth(ctx, recs[i])
		return recs[i].Line, res, err
	})
}

// FixBooth sets the booth of every resident carrying the row's voter ID
// (or, without one, its SEC roll number). Unlike the corrective workflow
// this lookup is not booth-scoped: assigning the booth is its purpose.
func (e *Engine) FixBooth(ctx context.Context, rec BoothRecord) (RowResult, error) {
	var field ResidentField
	var value string
	switch {
	case rec.VoterID != "":
		field, value = FieldVoterID, rec.VoterID
	case rec.RollSEC != "":
		field, value = FieldRollSEC, rec.RollSEC
	default:
		return RowResult{Outcome: OutcomeSkipped}, ErrMissingIdentifier
	}
	if rec.PollingBooth == "" {
		return RowResult{Outcome: OutcomeSkipped}, ErrMissingBooth
	}

	var n int
	err := e.store.WithTx(ctx, func(s Store) error {
		residents, err := s.FindResidentsByIdentifier(ctx, field, value)
		if err != nil {
			return fmt.Errorf("find residents: %w", err)
		}
		if len(residents) == 0 {
			return ErrNoMatch
		}
		for _, r := range residents {
			r.PollingBooth = rec.PollingBooth
			if err := s.UpdateResident(ctx, r, FieldPollingBooth); err != nil {
				return fmt.Errorf("update resident %d: %w", r.ID, err)
			}
			e.log.Info("booth updated", "line", rec.Line, "resident_id", r.ID, "member", r.Name.Primary, "booth", rec.PollingBooth)
		}
		n = len(residents)
		return nil
	})
	if err != nil {
		return RowResult{Outcome: OutcomeSkipped}, err
	}
	return RowResult{Outcome: OutcomeUpdated, Affected: n}, nil
}
