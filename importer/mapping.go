package importer

import (
	"github.com/warp/census-engine/census"
)

// =============================================================================
// ROW → RECORD MAPPING
// =============================================================================

func (c Columns) identifiers(r Row) census.Identifiers {
	return census.Identifiers{
		VoterID: r.Get(c.VoterID...),
		RollSEC: Code(r.Get(c.RollSEC...)),
		RollECI: Code(r.Get(c.RollECI...)),
		EpicID:  r.Get(c.EpicID...),
	}
}

// MemberRecord maps a bulk survey row.
func (c Columns) MemberRecord(r Row) census.MemberRecord {
	return census.MemberRecord{
		Line:             r.Line,
		Cluster:          r.Get(c.Cluster...),
		ClusterML:        r.Get(c.ClusterML...),
		HouseNumber:      r.Get(c.HouseNumber...),
		FamilyName:       census.DualName{Primary: r.Get(c.FamilyNameEN...), Secondary: r.Get(c.FamilyNameML...)},
		Constituency:     r.Get(c.Constituency...),
		HouseOwner:       YesNo(r.Get(c.HouseOwner...)),
		Name:             census.DualName{Primary: r.Get(c.NameEN...), Secondary: r.Get(c.NameML...)},
		Guardian:         census.DualName{Primary: r.Get(c.GuardianEN...), Secondary: r.Get(c.GuardianML...)},
		FamilyNameCommon: r.Get(c.FamilyNameCommon...),

		Age:           Age(r.Get(c.Age...)),
		Gender:        r.Get(c.Gender...),
		DateOfBirth:   Date(r.Get(c.DateOfBirth...)),
		MaritalStatus: r.Get(c.MaritalStatus...),
		Phone:         Code(r.Get(c.Phone...)),
		BloodGroup:    r.Get(c.BloodGroup...),
		Religion:      r.Get(c.Religion...),
		Caste:         r.Get(c.Caste...),

		JobStatus:       YesNo(r.Get(c.JobStatus...)),
		JobCountry:      r.Get(c.JobCountry...),
		MonthlyIncome:   Int(r.Get(c.MonthlyIncome...)),
		Organization:    r.Get(c.Organization...),
		OrgType:         r.Get(c.OrgType...),
		PoliticalParty:  r.Get(c.PoliticalParty...),
		PoliticalType:   r.Get(c.PoliticalType...),
		Pension:         YesNo(r.Get(c.Pension...)),
		PensionType:     r.Get(c.PensionType...),
		Disability:      YesNo(r.Get(c.Disability...)),
		HealthInsurance: YesNo(r.Get(c.HealthInsurance...)),
		ChronicDisease:  r.Get(c.ChronicDisease...),

		Identifiers:  c.identifiers(r),
		PollingBooth: Code(r.Get(c.PollingBooth...)),
		Education:    List(r.Get(c.Education...)),
	}
}

// CorrectiveRecord maps an SIR roll row.
func (c Columns) CorrectiveRecord(r Row) census.CorrectiveRecord {
	return census.CorrectiveRecord{
		Line:         r.Line,
		PollingBooth: Code(r.Get(c.PollingBooth...)),
		Identifiers:  c.identifiers(r),
		Name:         census.DualName{Primary: r.Get(c.NameEN...), Secondary: r.Get(c.NameML...)},
		Guardian:     census.DualName{Primary: r.Get(c.GuardianEN...), Secondary: r.Get(c.GuardianML...)},
	}
}

// BoothRecord maps a booth-fix row.
func (c Columns) BoothRecord(r Row) census.BoothRecord {
	return census.BoothRecord{
		Line:         r.Line,
		VoterID:      r.Get(c.VoterID...),
		RollSEC:      Code(r.Get(c.RollSEC...)),
		PollingBooth: Code(r.Get(c.PollingBooth...)),
	}
}

// HouseRecord maps a house-survey row. The water source cell feeds both
// the yes/no flag and the free-text source.
func (c Columns) HouseRecord(r Row) census.HouseRecord {
	water := r.Get(c.WaterSource...)
	return census.HouseRecord{
		Line:        r.Line,
		FamilyName:  r.Get(c.FamilyNameEN...),
		Cluster:     r.Get(c.Cluster...),
		HouseNumber: r.Get(c.HouseNumber...),
		Owner:       census.DualName{Primary: r.Get(c.Owner...), Secondary: r.Get(c.OwnerML...)},
		Address:     r.Get(c.Address...),
		Phone:       Code(r.Get(c.Phone...)),
		RollNo:      Code(r.Get(c.HouseRollNo...)),

		HasWaterSource: YesNo(water),
		WaterSource:    water,
		GasConnection:  YesNo(r.Get(c.GasConnection...)),
		Biogas:         YesNo(r.Get(c.Biogas...)),
		Solar:          YesNo(r.Get(c.Solar...)),
		Electricity:    YesNo(r.Get(c.Electricity...)),
		Refrigerator:   YesNo(r.Get(c.Refrigerator...)),
		WashingMachine: YesNo(r.Get(c.WashingMachine...)),

		HouseType:     r.Get(c.HouseType...),
		RoadAccess:    r.Get(c.RoadAccess...),
		WasteDisposal: r.Get(c.WasteDisposal...),

		Agriculture:     YesNo(r.Get(c.Agriculture...)),
		AgricultureType: r.Get(c.AgricultureType...),
		Livestock:       YesNo(r.Get(c.Livestock...)),
		LivestockType:   r.Get(c.LivestockType...),
		LivestockCount:  Count(r.Get(c.LivestockCount...)),

		RationCard:         YesNo(r.Get(c.RationCard...)),
		RationCardNumber:   Code(r.Get(c.RationCardNumber...)),
		RationCardCategory: r.Get(c.RationCardCategory...),

		Remark: r.Get(c.Remark...),
	}
}

func (c Columns) MemberRecords(rows []Row) []census.MemberRecord {
	out := make([]census.MemberRecord, len(rows))
	for i, r := range rows {
		out[i] = c.MemberRecord(r)
	}
	return out
}

func (c Columns) CorrectiveRecords(rows []Row) []census.CorrectiveRecord {
	out := make([]census.CorrectiveRecord, len(rows))
	for i, r := range rows {
		out[i] = c.CorrectiveRecord(r)
	}
	return out
}

func (c Columns) BoothRecords(rows []Row) []census.BoothRecord {
	out := make([]census.BoothRecord, len(rows))
	for i, r := range rows {
		out[i] = c.BoothRecord(r)
	}
	return out
}

func (c Columns) HouseRecords(rows []Row) []census.HouseRecord {
	out := make([]census.HouseRecord, len(rows))
	for i, r := range rows {
		out[i] = c.HouseRecord(r)
	}
	return out
}
