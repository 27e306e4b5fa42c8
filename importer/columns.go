package importer

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// =============================================================================
// COLUMNS - accepted header variants per field
// =============================================================================

// Columns lists, per record field, the headers accepted for it in
// priority order. A YAML file may override any subset; unset fields keep
// their defaults.
type Columns struct {
	Cluster          []string `yaml:"cluster"`
	ClusterML        []string `yaml:"cluster_ml"`
	HouseNumber      []string `yaml:"house_number"`
	FamilyNameEN     []string `yaml:"family_name_en"`
	FamilyNameML     []string `yaml:"family_name_ml"`
	FamilyNameCommon []string `yaml:"family_name_common"`
	Constituency     []string `yaml:"constituency"`
	HouseOwner       []string `yaml:"house_owner"`

	NameEN     []string `yaml:"name_en"`
	NameML     []string `yaml:"name_ml"`
	GuardianEN []string `yaml:"guardian_en"`
	GuardianML []string `yaml:"guardian_ml"`

	Age           []string `yaml:"age"`
	Gender        []string `yaml:"gender"`
	DateOfBirth   []string `yaml:"date_of_birth"`
	MaritalStatus []string `yaml:"marital_status"`
	Phone         []string `yaml:"phone"`
	BloodGroup    []string `yaml:"blood_group"`
	Religion      []string `yaml:"religion"`
	Caste         []string `yaml:"caste"`

	JobStatus       []string `yaml:"job_status"`
	JobCountry      []string `yaml:"job_country"`
	MonthlyIncome   []string `yaml:"monthly_income"`
	Organization    []string `yaml:"organization"`
	OrgType         []string `yaml:"org_type"`
	PoliticalParty  []string `yaml:"political_party"`
	PoliticalType   []string `yaml:"political_type"`
	Pension         []string `yaml:"pension"`
	PensionType     []string `yaml:"pension_type"`
	Disability      []string `yaml:"disability"`
	HealthInsurance []string `yaml:"health_insurance"`
	ChronicDisease  []string `yaml:"chronic_disease"`
	Education       []string `yaml:"education"`

	VoterID      []string `yaml:"voter_id"`
	RollSEC      []string `yaml:"roll_sec"`
	RollECI      []string `yaml:"roll_eci"`
	EpicID       []string `yaml:"epic_id"`
	PollingBooth []string `yaml:"polling_booth"`

	// House survey sheet
	Owner              []string `yaml:"owner"`
	OwnerML            []string `yaml:"owner_ml"`
	Address            []string `yaml:"address"`
	HouseRollNo        []string `yaml:"house_roll_no"`
	WaterSource        []string `yaml:"water_source"`
	GasConnection      []string `yaml:"gas_connection"`
	Biogas             []string `yaml:"biogas"`
	Solar              []string `yaml:"solar"`
	Electricity        []string `yaml:"electricity"`
	Refrigerator       []string `yaml:"refrigerator"`
	WashingMachine     []string `yaml:"washing_machine"`
	HouseType          []string `yaml:"house_type"`
	RoadAccess         []string `yaml:"road_access"`
	WasteDisposal      []string `yaml:"waste_disposal"`
	Agriculture        []string `yaml:"agriculture"`
	AgricultureType    []string `yaml:"agriculture_type"`
	Livestock          []string `yaml:"livestock"`
	LivestockType      []string `yaml:"livestock_type"`
	LivestockCount     []string `yaml:"livestock_count"`
	RationCard         []string `yaml:"ration_card"`
	RationCardNumber   []string `yaml:"ration_card_number"`
	RationCardCategory []string `yaml:"ration_card_category"`
	Remark             []string `yaml:"remark"`
}

// DefaultColumns returns the headers used by the survey and roll exports.
func DefaultColumns() Columns {
	return Columns{
		Cluster:          []string{"Cluster", "Cluster Name", "Cluster Name (EN)", "Cluster Name (ML)"},
		ClusterML:        []string{"Cluster Name (ML)"},
		HouseNumber:      []string{"House No", "House Number"},
		FamilyNameEN:     []string{"Family Name(EN)", "Family Name (EN)", "Family Name"},
		FamilyNameML:     []string{"Family Name(ML)", "Family Name (ML)"},
		FamilyNameCommon: []string{"Family Name(COMMONLY KNOWN)", "Family Name Common"},
		Constituency:     []string{"Constituency", "Ward"},
		HouseOwner:       []string{"House Owner"},

		NameEN:     []string{"Name(EN)", "Name (EN)", "Name"},
		NameML:     []string{"Name(ML)", "Name (ML)"},
		GuardianEN: []string{"Guardian's Name(EN)", "Guardian's Name (EN)", "Guardian Name"},
		GuardianML: []string{"Guardian's Name(ML)", "Guardian's Name (ML)"},

		Age:           []string{"Age"},
		Gender:        []string{"Gender"},
		DateOfBirth:   []string{"Date of Birth", "DOB"},
		MaritalStatus: []string{"Marital Status"},
		Phone:         []string{"Phone Number", "Phone"},
		BloodGroup:    []string{"Blood Group"},
		Religion:      []string{"Religion"},
		Caste:         []string{"Caste"},

		JobStatus:       []string{"Job Status"},
		JobCountry:      []string{"Job Country"},
		MonthlyIncome:   []string{"Monthly Income"},
		Organization:    []string{"Organization"},
		OrgType:         []string{"Organization Type"},
		PoliticalParty:  []string{"Political Party"},
		PoliticalType:   []string{"Political Type"},
		Pension:         []string{"Pension"},
		PensionType:     []string{"Pension Type"},
		Disability:      []string{"Disability"},
		HealthInsurance: []string{"Health Insurance"},
		ChronicDisease:  []string{"Chronic Disease"},
		Education:       []string{"Education"},

		VoterID:      []string{"Voter ID"},
		RollSEC:      []string{"Roll No-SEC", "Roll No"},
		RollECI:      []string{"Roll No-ECI"},
		EpicID:       []string{"Epic ID"},
		PollingBooth: []string{"Polling Booth No", "Polling Booth", "Booth No", "Booth"},

		Owner:              []string{"Owner", "Owner Name", "Owner (EN)"},
		OwnerML:            []string{"Owner (ML)", "Owner Name (ML)"},
		Address:            []string{"Address"},
		HouseRollNo:        []string{"Roll No"},
		WaterSource:        []string{"Water Source"},
		GasConnection:      []string{"Gas Connection"},
		Biogas:             []string{"Biogas"},
		Solar:              []string{"Solar"},
		Electricity:        []string{"Electricity"},
		Refrigerator:       []string{"Refrigerator"},
		WashingMachine:     []string{"Washing Machine"},
		HouseType:          []string{"House Type"},
		RoadAccess:         []string{"Road Access"},
		WasteDisposal:      []string{"Waste Disposal"},
		Agriculture:        []string{"Agriculture"},
		AgricultureType:    []string{"Agriculture Type"},
		Livestock:          []string{"Livestock"},
		LivestockType:      []string{"Livestock Type"},
		LivestockCount:     []string{"Livestock Count"},
		RationCard:         []string{"Ration Card"},
		RationCardNumber:   []string{"Ration Card Number"},
		RationCardCategory: []string{"Ration Card Category"},
		Remark:             []string{"Remark", "Remarks"},
	}
}

// LoadColumns reads header overrides from a YAML file on top of
// DefaultColumns. An empty path returns the defaults.
func LoadColumns(path string) (Columns, error) {
	cols := DefaultColumns()
	if path == "" {
		return cols, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cols, fmt.Errorf("read columns file: %w", err)
	}
	return ParseColumns(data)
}

// ParseColumns overlays YAML overrides onto DefaultColumns.
func ParseColumns(data []byte) (Columns, error) {
	cols := DefaultColumns()
	var override Columns
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cols, fmt.Errorf("parse columns: %w", err)
	}
	cols.merge(override)
	return cols, nil
}

// merge replaces every field of c that o sets.
func (c *Columns) merge(o Columns) {
	for _, f := range []struct{ dst, src *[]string }{
		{&c.Cluster, &o.Cluster}, {&c.ClusterML, &o.ClusterML},
		{&c.HouseNumber, &o.HouseNumber}, {&c.FamilyNameEN, &o.FamilyNameEN},
		{&c.FamilyNameML, &o.FamilyNameML}, {&c.FamilyNameCommon, &o.FamilyNameCommon},
		{&c.Constituency, &o.Constituency}, {&c.HouseOwner, &o.HouseOwner},
		{&c.NameEN, &o.NameEN}, {&c.NameML, &o.NameML},
		{&c.GuardianEN, &o.GuardianEN}, {&c.GuardianML, &o.GuardianML},
		{&c.Age, &o.Age}, {&c.Gender, &o.Gender},
		{&c.DateOfBirth, &o.DateOfBirth}, {&c.MaritalStatus, &o.MaritalStatus},
		{&c.Phone, &o.Phone}, {&c.BloodGroup, &o.BloodGroup},
		{&c.Religion, &o.Religion}, {&c.Caste, &o.Caste},
		{&c.JobStatus, &o.JobStatus}, {&c.JobCountry, &o.JobCountry},
		{&c.MonthlyIncome, &o.MonthlyIncome}, {&c.Organization, &o.Organization},
		{&c.OrgType, &o.OrgType}, {&c.PoliticalParty, &o.PoliticalParty},
		{&c.PoliticalType, &o.PoliticalType}, {&c.Pension, &o.Pension},
		{&c.PensionType, &o.PensionType}, {&c.Disability, &o.Disability},
		{&c.HealthInsurance, &o.HealthInsurance}, {&c.ChronicDisease, &o.ChronicDisease},
		{&c.Education, &o.Education},
		{&c.VoterID, &o.VoterID}, {&c.RollSEC, &o.RollSEC},
		{&c.RollECI, &o.RollECI}, {&c.EpicID, &o.EpicID},
		{&c.PollingBooth, &o.PollingBooth},
		{&c.Owner, &o.Owner}, {&c.OwnerML, &o.OwnerML},
		{&c.Address, &o.Address}, {&c.HouseRollNo, &o.HouseRollNo},
		{&c.WaterSource, &o.WaterSource}, {&c.GasConnection, &o.GasConnection},
		{&c.Biogas, &o.Biogas}, {&c.Solar, &o.Solar},
		{&c.Electricity, &o.Electricity}, {&c.Refrigerator, &o.Refrigerator},
		{&c.WashingMachine, &o.WashingMachine}, {&c.HouseType, &o.HouseType},
		{&c.RoadAccess, &o.RoadAccess}, {&c.WasteDisposal, &o.WasteDisposal},
		{&c.Agriculture, &o.Agriculture}, {&c.AgricultureType, &o.AgricultureType},
		{&c.Livestock, &o.Livestock}, {&c.LivestockType, &o.LivestockType},
		{&c.LivestockCount, &o.LivestockCount}, {&c.RationCard, &o.RationCard},
		{&c.RationCardNumber, &o.RationCardNumber}, {&c.RationCardCategory, &o.RationCardCategory},
		{&c.Remark, &o.Remark},
	} {
		if len(*f.src) > 0 {
			*f.dst = *f.src
		}
	}
}
