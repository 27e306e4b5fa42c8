package census

import "time"

// MemberRecord is one normalized bulk-import row. Absent columns arrive
// as zero values; nothing here is required except HouseNumber.
type MemberRecord struct {
	Line int // 1-based sheet row, for logs and row errors

	Cluster          string // raw cluster cell, either script
	ClusterML        string // explicit Malayalam cluster column
	HouseNumber      string // raw house number, e.g. "12 A"
	FamilyName       DualName
	Constituency     string
	HouseOwner       bool
	Name             DualName
	Guardian         DualName
	FamilyNameCommon string

	Age           *int
	Gender        string
	DateOfBirth   *time.Time
	MaritalStatus string
	Phone         string
	BloodGroup    string
	Religion      string
	Caste         string

	JobStatus       bool
	JobCountry      string
	MonthlyIncome   *int64
	Organization    string
	OrgType         string
	PoliticalParty  string
	PoliticalType   string
	Pension         bool
	PensionType     string
	Disability      bool
	HealthInsurance bool
	ChronicDisease  string

	Identifiers  Identifiers
	PollingBooth string
	Education    []string
}

// CorrectiveRecord is one SIR re-sync row.
type CorrectiveRecord struct {
	Line         int
	PollingBooth string
	Identifiers  Identifiers
	Name         DualName
	Guardian     DualName
}

// BoothRecord is one booth-fix row: identifiers plus the booth to assign.
type BoothRecord struct {
	Line         int
	VoterID      string
	RollSEC      string
	PollingBooth string
}

// HouseRecord is one house-survey row. FamilyName, Cluster and Owner are
// required; the household is found by FamilyName.
type HouseRecord struct {
	Line        int
	FamilyName  string
	Cluster     string
	HouseNumber string
	Owner       DualName
	Address     string
	Phone       string
	RollNo      string

	HasWaterSource bool
	WaterSource    string
	GasConnection  bool
	Biogas         bool
	Solar          bool
	Electricity    bool
	Refrigerator   bool
	WashingMachine bool

	HouseType     string
	RoadAccess    string
	WasteDisposal string

	Agriculture     bool
	AgricultureType string
	Livestock       bool
	LivestockType   string
	LivestockCount  *int

	RationCard         bool
	RationCardNumber   string
	RationCardCategory string

	Remark string
}
