package census

import (
	"context"
	"fmt"
)

// =============================================================================
// CORRECTIVE (SIR) UPDATE
// =============================================================================

// ApplyCorrections runs the corrective workflow over recs in order.
func (e *Engine) ApplyCorrections(ctx context.Context, recs []CorrectiveRecord) Summary {
	return e.runBatch(ctx, "sir", len(recs), func(i int) (int, RowResult, error) {
		res, err := e.ApplyCorrection(ctx, recs[i])
		return recs[i].Line, res, err
	})
}

// ApplyCorrection patches one previously imported resident from an
// updated roll. The resident is looked up inside the row's polling booth
// only, by the first identifier the row carries (see correctionKey).
//
// Canonical name and guardian are replaced when they differ, after the
// old value is archived as a variant (keyed by ArchiveKey, so initials
// survive). A row whose old value cannot be archived fails and changes
// nothing. Epic ID, ECI roll number and
// voter ID are only filled when empty.
func (e *Engine) ApplyCorrection(ctx context.Context, rec CorrectiveRecord) (RowResult, error) {
	if rec.PollingBooth == "" {
		return RowResult{Outcome: OutcomeSkipped}, ErrMissingBooth
	}
	field, value := correctionKey(rec.Identifiers)
	if field == "" {
		return RowResult{Outcome: OutcomeSkipped}, ErrMissingIdentifier
	}

	var res RowResult
	err := e.store.WithTx(ctx, func(s Store) error {
		r, err := s.FindResidentInBooth(ctx, rec.PollingBooth, field, value)
		if err != nil {
			return fmt.Errorf("find resident: %w", err)
		}
		if r == nil {
			return ErrNoMatch
		}

		fields, err := applyCorrection(ctx, s, r, rec)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := s.UpdateResident(ctx, *r, fields...); err != nil {
				return fmt.Errorf("update resident: %w", err)
			}
			if err := e.recountHousehold(ctx, s, r.HouseholdID); err != nil {
				return fmt.Errorf("recount household: %w", err)
			}
		}

		e.log.Info("resident updated (sir)", "line", rec.Line, "resident_id", r.ID, "member", r.Name.Primary, "fields", fields)
		res = RowResult{Outcome: OutcomeUpdated, ResidentID: r.ID}
		if r.HouseholdID != nil {
			res.HouseholdID = *r.HouseholdID
		}
		return nil
	})
	if err != nil {
		return RowResult{Outcome: OutcomeSkipped}, fmt.Errorf("booth %s: %w", rec.PollingBooth, err)
	}
	return res, nil
}

// correctionKey picks the lookup field: first non-empty of SEC roll,
// ECI roll, epic ID, voter ID. Later identifiers are not tried when an
// earlier one is present but unmatched.
func correctionKey(id Identifiers) (ResidentField, string) {
	switch {
	case id.RollSEC != "":
		return FieldRollSEC, id.RollSEC
	case id.RollECI != "":
		return FieldRollECI, id.RollECI
	case id.EpicID != "":
		return FieldEpicID, id.EpicID
	case id.VoterID != "":
		return FieldVoterID, id.VoterID
	}
	return "", ""
}

// applyCorrection mutates r in place and returns the changed fields.
func applyCorrection(ctx context.Context, s Store, r *Resident, rec CorrectiveRecord) ([]ResidentField, error) {
	aliases := NewAliasRecorder(s)
	var fields []ResidentField

	if n := rec.Name.Primary; n != "" && n != r.Name.Primary {
		if _, _, err := aliases.Archive(ctx, *r, r.Name, SourceImportCorrective); err != nil {
			return nil, fmt.Errorf("archive name: %w", err)
		}
		r.Name = DualName{Primary: n, Secondary: firstNonEmpty(rec.Name.Secondary, r.Name.Secondary)}
		fields = append(fields, FieldName)
	}

	if g := rec.Guardian.Primary; g != "" && g != r.Guardian.Primary {
		if _, _, err := aliases.Archive(ctx, *r, r.Guardian, SourceImportCorrective); err != nil {
			return nil, fmt.Errorf("archive guardian: %w", err)
		}
		r.Guardian = DualName{Primary: g, Secondary: firstNonEmpty(rec.Guardian.Secondary, r.Guardian.Secondary)}
		fields = append(fields, FieldGuardian)
	}

	if v := rec.Identifiers.EpicID; v != "" && r.Identifiers.EpicID == "" {
		r.Identifiers.EpicID = v
		fields = append(fields, FieldEpicID)
	}
	if v := rec.Identifiers.RollECI; v != "" && r.Identifiers.RollECI == "" {
		r.Identifiers.RollECI = v
		fields = append(fields, FieldRollECI)
	}
	if v := rec.Identifiers.VoterID; v != "" && r.Identifiers.VoterID == "" {
		r.Identifiers.VoterID = v
		fields = append(fields, FieldVoterID)
	}

	if has := r.Identifiers.HasAny(); has != r.HasElectionID {
		r.HasElectionID = has
		fields = append(fields, FieldHasElectionID)
	}
	return fields, nil
}
