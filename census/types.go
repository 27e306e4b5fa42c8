/*
Package census provides the resident reconciliation engine.

PURPOSE:
  Bulk spreadsheet exports (voter rolls, SIR updates) arrive as rows that
  describe people who may already be registered. This package decides,
  row by row, whether a row is a new resident or another sighting of an
  existing one, and records alternate spellings instead of duplicates.

KEY CONCEPTS IN THIS FILE (types.go):
  - DualName: a name in two scripts (English primary, Malayalam secondary)
  - Household: a dwelling keyed by house number + sub-unit
  - House: the amenity survey of one household
  - Resident: a tracked individual with election identifiers
  - NameVariant: a non-authoritative spelling attached to a resident

DESIGN PRINCIPLES:
  1. Residents are never duplicated by an import; later sightings become variants
  2. Canonical names change only through the corrective (SIR) workflow
  3. Identifiers are backfilled, never overwritten
  4. Matching is scoped to one household (or one booth for corrections)

SEE ALSO:
  - normalize.go: Name canonicalisation
  - matcher.go: Identifier precedence rules
  - alias.go: Variant get-or-create
  - engine.go: Row orchestration
*/
package census

import (
	"strings"
	"time"
)

// =============================================================================
// DUAL NAME - English + Malayalam value object
// =============================================================================

// DualName holds a name in two scripts. Primary is the English/Latin
// spelling used for normalization; Secondary is the Malayalam spelling.
type DualName struct {
	Primary   string
	Secondary string
}

func (n DualName) IsZero() bool { return n.Primary == "" && n.Secondary == "" }

// Normalized returns the comparison form of the primary spelling.
func (n DualName) Normalized() string { return Normalize(n.Primary) }

// String prefers the primary spelling.
func (n DualName) String() string {
	if n.Primary != "" {
		return n.Primary
	}
	return n.Secondary
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResidentID int64
type HouseholdID int64
type ClusterID int64
type WardID int64

// Identifiers are the election identifiers a resident may carry.
// Any of them may be empty.
type Identifiers struct {
	VoterID string
	RollSEC string // roll number, state election commission scheme
	RollECI string // roll number, election commission of India scheme
	EpicID  string // election photo identity card
}

// HasAny reports whether at least one identifier is present.
func (id Identifiers) HasAny() bool {
	return id.VoterID != "" || id.RollSEC != "" || id.RollECI != "" || id.EpicID != ""
}

// =============================================================================
// CLUSTER / WARD
// =============================================================================

// Cluster groups households into a neighbourhood. Primary is the English
// name (unique, case-insensitive), Secondary the Malayalam name.
type Cluster struct {
	ID        ClusterID
	Name      DualName
	CreatedAt time.Time
}

// Ward is an administrative ward/constituency. Wards are reference data:
// imports look them up but never create them.
type Ward struct {
	ID            WardID
	Constituency  string
	District      string
	PollingBooths []string
}

// =============================================================================
// HOUSEHOLD
// =============================================================================

// HouseholdKey is the natural key of a household.
type HouseholdKey struct {
	Number string
	Sub    string
}

func (k HouseholdKey) String() string {
	if k.Sub == "" {
		return k.Number
	}
	return k.Number + "/" + k.Sub
}

// ParseHouseNumber splits a raw house number ("12 A", "12/a", "12") into
// number and upper-cased sub-unit at the first whitespace run or slash.
func ParseHouseNumber(raw string) HouseholdKey {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return HouseholdKey{}
	}
	i := strings.IndexFunc(raw, func(r rune) bool {
		return r == '/' || r == ' ' || r == '\t'
	})
	if i < 0 {
		return HouseholdKey{Number: raw}
	}
	rest := strings.TrimLeft(raw[i:], "/ \t")
	return HouseholdKey{
		Number: strings.TrimSpace(raw[:i]),
		Sub:    strings.ToUpper(strings.TrimSpace(rest)),
	}
}

type Household struct {
	ID           HouseholdID
	Key          HouseholdKey
	Name         DualName
	ClusterID    *ClusterID
	TotalMembers int
	TotalVoters  int
}

// =============================================================================
// HOUSE
// =============================================================================

type HouseID int64

// House holds the dwelling survey for one household: owner, amenities
// and ration card. A household has at most one House; re-importing a
// house sheet updates it in place.
type House struct {
	ID          HouseID
	HouseholdID HouseholdID
	ClusterID   *ClusterID

	Owner   DualName
	Address string
	Phone   string
	RollNo  string

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

// =============================================================================
// RESIDENT
// =============================================================================

type Resident struct {
	ID          ResidentID
	HouseholdID *HouseholdID
	WardID      *WardID

	Name             DualName
	Guardian         DualName
	GuardianRelation string
	OwnerName        string
	FamilyNameCommon string

	Age           *int
	Gender        string
	DateOfBirth   *time.Time
	Phone         string
	Religion      string
	Caste         string
	BloodGroup    string
	MaritalStatus string

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

	Identifiers   Identifiers
	HasElectionID bool
	PollingBooth  string
}

// ResidentField names a column of the resident record for partial saves.
type ResidentField string

const (
	FieldName          ResidentField = "name"
	FieldGuardian      ResidentField = "guardian"
	FieldVoterID       ResidentField = "voter_id"
	FieldRollSEC       ResidentField = "roll_sec"
	FieldRollECI       ResidentField = "roll_eci"
	FieldEpicID        ResidentField = "epic_id"
	FieldHasElectionID ResidentField = "has_election_id"
	FieldPollingBooth  ResidentField = "polling_booth"
)

// =============================================================================
// NAME VARIANT
// =============================================================================

// Source records where a variant came from.
type Source string

const (
	SourceImportBulk       Source = "excel"
	SourceImportCorrective Source = "sir"
	SourceManual           Source = "manual"
	SourceSystem           Source = "system"
)

func (s Source) Valid() bool {
	switch s {
	case SourceImportBulk, SourceImportCorrective, SourceManual, SourceSystem:
		return true
	}
	return false
}

// NameVariant is a recorded spelling of a resident's name. It never
// changes the resident's canonical fields. (ResidentID, Normalized) is
// unique.
type NameVariant struct {
	ID         int64
	ResidentID ResidentID
	Name       DualName
	Normalized string

	// Cached resident details at the time the variant was recorded.
	MemberName DualName
	VoterID    string
	Guardian   DualName

	Source    Source
	IsPrimary bool
	CreatedAt time.Time
}

// Education is one education entry of a resident.
type Education struct {
	ID         int64
	ResidentID ResidentID
	Education  string
	Status     string
	Stream     string
}

// DisplayName renders the canonical name followed by its non-primary
// variants, e.g. "John (Jon, Jonny)".
func DisplayName(r Resident, variants []NameVariant) string {
	var aliases []string
	for _, v := range variants {
		if v.ResidentID == r.ID && !v.IsPrimary && v.Name.Primary != "" {
			aliases = append(aliases, v.Name.Primary)
		}
	}
	if len(aliases) == 0 {
		return r.Name.Primary
	}
	return r.Name.Primary + " (" + strings.Join(aliases, ", ") + ")"
}
