package census

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// BULK MEMBER IMPORT
// =============================================================================

// ImportMembers runs the bulk workflow over recs in order.
func (e *Engine) ImportMembers(ctx context.Context, recs []MemberRecord) Summary {
	return e.runBatch(ctx, "members", len(recs), func(i int) (int, RowResult, error) {
		res, err := e.ImportMember(ctx, recs[i])
		return recs[i].Line, res, err
	})
}

// ImportMember reconciles one bulk row:
//
//  1. resolve the cluster (Malayalam names by the Malayalam field,
//     others case-insensitively by the English field), creating it if new
//  2. get-or-create the household from the house number
//  3. list residents of the household, narrowed by age when reported
//  4. on a match, record the row's name as an alias and stop
//  5. otherwise create the resident, its primary variant and educations
func (e *Engine) ImportMember(ctx context.Context, rec MemberRecord) (RowResult, error) {
	key := ParseHouseNumber(rec.HouseNumber)
	if key.Number == "" {
		return RowResult{Outcome: OutcomeSkipped}, ErrMissingHouseNumber
	}

	var res RowResult
	err := e.store.WithTx(ctx, func(s Store) error {
		var err error
		res, err = e.importMember(ctx, s, key, rec)
		return err
	})
	if err != nil {
		return RowResult{Outcome: OutcomeSkipped}, fmt.Errorf("household %s: %w", key, err)
	}
	return res, nil
}

func (e *Engine) importMember(ctx context.Context, s Store, key HouseholdKey, rec MemberRecord) (RowResult, error) {
	cluster, err := resolveCluster(ctx, s, rec.Cluster, rec.ClusterML)
	if err != nil {
		return RowResult{}, err
	}

	defaults := Household{Key: key, Name: rec.FamilyName}
	if cluster != nil {
		defaults.ClusterID = &cluster.ID
	}
	household, _, err := s.GetOrCreateHousehold(ctx, key, defaults)
	if err != nil {
		return RowResult{}, fmt.Errorf("resolve household: %w", err)
	}

	candidates, err := s.ResidentsInHousehold(ctx, household.ID, rec.Age)
	if err != nil {
		return RowResult{}, fmt.Errorf("list candidates: %w", err)
	}

	if m := e.matcher.FindMatch(candidates, rec); m != nil {
		_, created, err := NewAliasRecorder(s).Record(ctx, m.Resident, rec.Name, SourceImportBulk)
		if err != nil {
			return RowResult{}, fmt.Errorf("record alias: %w", err)
		}
		e.log.Info("alias saved",
			"line", rec.Line,
			"resident_id", m.Resident.ID,
			"member", m.Resident.Name.Primary,
			"alias", rec.Name.Primary,
			"rule", m.Rule,
			"new", created,
		)
		return RowResult{
			Outcome:        OutcomeAliased,
			ResidentID:     m.Resident.ID,
			HouseholdID:    household.ID,
			Rule:           m.Rule,
			VariantCreated: created,
		}, nil
	}

	var ward *Ward
	if c := wardConstituency(rec.Constituency); c != "" {
		if ward, err = s.FindWard(ctx, c); err != nil {
			return RowResult{}, fmt.Errorf("find ward: %w", err)
		}
	}

	r := residentFromRecord(rec, household.ID, ward)
	if err := s.CreateResident(ctx, &r); err != nil {
		return RowResult{}, fmt.Errorf("create resident: %w", err)
	}

	primary := primaryVariant(r, SourceImportBulk)
	if err := s.CreateVariant(ctx, &primary); err != nil {
		return RowResult{}, fmt.Errorf("create primary variant: %w", err)
	}

	for _, edu := range rec.Education {
		edu = strings.TrimSpace(edu)
		if edu == "" {
			continue
		}
		if err := s.CreateEducation(ctx, &Education{ResidentID: r.ID, Education: edu}); err != nil {
			return RowResult{}, fmt.Errorf("create education: %w", err)
		}
	}

	if err := e.recountHousehold(ctx, s, r.HouseholdID); err != nil {
		return RowResult{}, fmt.Errorf("recount household: %w", err)
	}

	e.log.Info("resident created", "line", rec.Line, "resident_id", r.ID, "member", r.Name.Primary, "household", key.String())
	return RowResult{Outcome: OutcomeCreated, ResidentID: r.ID, HouseholdID: household.ID}, nil
}

// resolveCluster finds or creates the cluster named raw. ml, when given,
// fills an empty Malayalam name but never replaces one.
func resolveCluster(ctx context.Context, s Store, raw, ml string) (*Cluster, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var c *Cluster
	var err error
	if IsMalayalam(raw) {
		if c, err = s.FindClusterByMalayalam(ctx, raw); err != nil {
			return nil, fmt.Errorf("find cluster: %w", err)
		}
		if c == nil {
			c = &Cluster{Name: DualName{Primary: raw, Secondary: raw}}
		}
	} else {
		if c, err = s.FindClusterByEnglish(ctx, raw); err != nil {
			return nil, fmt.Errorf("find cluster: %w", err)
		}
		if c == nil {
			c = &Cluster{Name: DualName{Primary: raw}}
		}
	}
	if c.ID == 0 {
		if err := s.CreateCluster(ctx, c); err != nil {
			return nil, fmt.Errorf("create cluster: %w", err)
		}
	}

	ml = strings.TrimSpace(ml)
	if ml != "" && c.Name.Secondary == "" {
		if err := s.SetClusterMalayalam(ctx, c.ID, ml); err != nil {
			return nil, fmt.Errorf("update cluster: %w", err)
		}
		c.Name.Secondary = ml
	}
	return c, nil
}

// wardConstituency turns "Ward 12" into "12".
func wardConstituency(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimSpace(strings.ReplaceAll(s, "ward", ""))
}

func residentFromRecord(rec MemberRecord, household HouseholdID, ward *Ward) Resident {
	r := Resident{
		HouseholdID:      &household,
		Name:             rec.Name,
		Guardian:         rec.Guardian,
		FamilyNameCommon: rec.FamilyNameCommon,
		Age:              rec.Age,
		Gender:           rec.Gender,
		DateOfBirth:      rec.DateOfBirth,
		Phone:            rec.Phone,
		Religion:         rec.Religion,
		Caste:            rec.Caste,
		BloodGroup:       rec.BloodGroup,
		MaritalStatus:    rec.MaritalStatus,
		JobStatus:        rec.JobStatus,
		JobCountry:       rec.JobCountry,
		MonthlyIncome:    rec.MonthlyIncome,
		Organization:     rec.Organization,
		OrgType:          rec.OrgType,
		PoliticalParty:   rec.PoliticalParty,
		PoliticalType:    rec.PoliticalType,
		Pension:          rec.Pension,
		PensionType:      rec.PensionType,
		Disability:       rec.Disability,
		HealthInsurance:  rec.HealthInsurance,
		ChronicDisease:   rec.ChronicDisease,
		Identifiers:      rec.Identifiers,
		HasElectionID:    rec.Identifiers.HasAny(),
		PollingBooth:     rec.PollingBooth,
	}
	if rec.HouseOwner {
		r.OwnerName = rec.Name.Primary
	}
	if ward != nil {
		r.WardID = &ward.ID
	}
	return r
}
