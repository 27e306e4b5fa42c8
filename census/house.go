package census

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// HOUSE SURVEY IMPORT
// =============================================================================

// ImportHouses runs the house-survey workflow over recs in order.
func (e *Engine) ImportHouses(ctx context.Context, recs []HouseRecord) Summary {
	return e.runBatch(ctx, "houses", len(recs), func(i int) (int, RowResult, error) {
		res, err := e.ImportHouse(ctx, recs[i])
		return recs[i].Line, res, err
	})
}

// ImportHouse attaches one house-survey row to its household:
//
//  1. resolve the cluster, creating it if new
//  2. find the household by family name; when there is none and the row
//     has a house number, create it under that number
//  3. move a found household to the row's house number when it differs
//  4. create the household's House, or replace the existing one
func (e *Engine) ImportHouse(ctx context.Context, rec HouseRecord) (RowResult, error) {
	family := strings.TrimSpace(rec.FamilyName)
	switch {
	case family == "":
		return RowResult{Outcome: OutcomeSkipped}, ErrMissingFamilyName
	case strings.TrimSpace(rec.Cluster) == "":
		return RowResult{Outcome: OutcomeSkipped}, ErrMissingCluster
	case strings.TrimSpace(rec.Owner.Primary) == "":
		return RowResult{Outcome: OutcomeSkipped}, ErrMissingOwner
	}

	var res RowResult
	err := e.store.WithTx(ctx, func(s Store) error {
		var err error
		res, err = e.importHouse(ctx, s, family, rec)
		return err
	})
	if err != nil {
		return RowResult{Outcome: OutcomeSkipped}, fmt.Errorf("family %q: %w", family, err)
	}
	return res, nil
}

func (e *Engine) importHouse(ctx context.Context, s Store, family string, rec HouseRecord) (RowResult, error) {
	cluster, err := resolveCluster(ctx, s, rec.Cluster, "")
	if err != nil {
		return RowResult{}, err
	}

	key := ParseHouseNumber(rec.HouseNumber)
	household, err := e.householdForHouse(ctx, s, family, key, cluster)
	if err != nil {
		return RowResult{}, err
	}

	house := houseFromRecord(rec, household.ID, cluster)
	existing, err := s.FindHouse(ctx, household.ID)
	if err != nil {
		return RowResult{}, fmt.Errorf("find house: %w", err)
	}
	if existing != nil {
		house.ID = existing.ID
	}
	if err := s.SaveHouse(ctx, &house); err != nil {
		return RowResult{}, fmt.Errorf("save house: %w", err)
	}

	if err := e.recountHousehold(ctx, s, &household.ID); err != nil {
		return RowResult{}, fmt.Errorf("recount household: %w", err)
	}

	outcome := OutcomeCreated
	if existing != nil {
		outcome = OutcomeUpdated
	}
	e.log.Info("house imported",
		"line", rec.Line,
		"household_id", household.ID,
		"household", household.Key.String(),
		"owner", house.Owner.Primary,
		"outcome", outcome,
	)
	return RowResult{Outcome: outcome, HouseholdID: household.ID}, nil
}

// householdForHouse resolves the household a house row belongs to.
func (e *Engine) householdForHouse(ctx context.Context, s Store, family string, key HouseholdKey, cluster *Cluster) (Household, error) {
	found, err := s.FindHouseholdByName(ctx, family)
	if err != nil {
		return Household{}, fmt.Errorf("find household: %w", err)
	}

	if found == nil {
		if key.Number == "" {
			return Household{}, ErrFamilyNotFound
		}
		defaults := Household{Key: key, Name: DualName{Primary: family}}
		if cluster != nil {
			defaults.ClusterID = &cluster.ID
		}
		h, created, err := s.GetOrCreateHousehold(ctx, key, defaults)
		if err != nil {
			return Household{}, fmt.Errorf("resolve household: %w", err)
		}
		if created {
			e.log.Info("household created", "household", key.String(), "family", family)
		}
		return h, nil
	}

	if key.Number != "" && found.Key != key {
		if err := s.SetHouseholdKey(ctx, found.ID, key); err != nil {
			return Household{}, fmt.Errorf("move household to %s: %w", key, err)
		}
		e.log.Info("household renumbered", "household_id", found.ID, "from", found.Key.String(), "to", key.String())
		found.Key = key
	}
	return *found, nil
}

func houseFromRecord(rec HouseRecord, household HouseholdID, cluster *Cluster) House {
	h := House{
		HouseholdID: household,
		Owner: DualName{
			Primary:   strings.TrimSpace(rec.Owner.Primary),
			Secondary: strings.TrimSpace(rec.Owner.Secondary),
		},
		Address: rec.Address,
		Phone:   rec.Phone,
		RollNo:  rec.RollNo,

		HasWaterSource: rec.HasWaterSource,
		WaterSource:    rec.WaterSource,
		GasConnection:  rec.GasConnection,
		Biogas:         rec.Biogas,
		Solar:          rec.Solar,
		Electricity:    rec.Electricity,
		Refrigerator:   rec.Refrigerator,
		WashingMachine: rec.WashingMachine,

		HouseType:     rec.HouseType,
		RoadAccess:    rec.RoadAccess,
		WasteDisposal: rec.WasteDisposal,

		Agriculture:     rec.Agriculture,
		AgricultureType: rec.AgricultureType,
		Livestock:       rec.Livestock,
		LivestockType:   rec.LivestockType,
		LivestockCount:  rec.LivestockCount,

		RationCard:         rec.RationCard,
		RationCardNumber:   rec.RationCardNumber,
		RationCardCategory: rec.RationCardCategory,

		Remark: rec.Remark,
	}
	if cluster != nil {
		h.ClusterID = &cluster.ID
	}
	return h
}
