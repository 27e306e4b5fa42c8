/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the census domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Households:  HouseholdDTO, HouseDTO
  Residents:   ResidentDTO, MemberDetailDTO, VariantDTO, EducationDTO
  Aliases:     AddVariantRequest
  Imports:     ImportRunDTO, SummaryDTO, RowErrorDTO, ImportResponse

PRIVACY:
  Identifiers are returned as stored. Log lines hash them instead
  (see logger.sanitizeKVs).

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/importer"
)

// =============================================================================
// HOUSEHOLDS
// =============================================================================

type HouseholdDTO struct {
	ID           int64  `json:"id"`
	HouseNumber  string `json:"house_number"`
	Sub          string `json:"sub,omitempty"`
	Key          string `json:"key"`
	NameEN       string `json:"family_name_en"`
	NameML       string `json:"family_name_ml,omitempty"`
	ClusterID    *int64 `json:"cluster_id,omitempty"`
	TotalMembers int    `json:"total_members"`
	TotalVoters  int    `json:"total_voters"`
}

func toHouseholdDTO(h census.Household) HouseholdDTO {
	dto := HouseholdDTO{
		ID:           int64(h.ID),
		HouseNumber:  h.Key.Number,
		Sub:          h.Key.Sub,
		Key:          h.Key.String(),
		NameEN:       h.Name.Primary,
		NameML:       h.Name.Secondary,
		TotalMembers: h.TotalMembers,
		TotalVoters:  h.TotalVoters,
	}
	if h.ClusterID != nil {
		id := int64(*h.ClusterID)
		dto.ClusterID = &id
	}
	return dto
}

type HouseDTO struct {
	ID                 int64  `json:"id"`
	HouseholdID        int64  `json:"household_id"`
	ClusterID          *int64 `json:"cluster_id,omitempty"`
	OwnerEN            string `json:"owner_en"`
	OwnerML            string `json:"owner_ml,omitempty"`
	Address            string `json:"address,omitempty"`
	Phone              string `json:"phone,omitempty"`
	RollNo             string `json:"roll_no,omitempty"`
	HasWaterSource     bool   `json:"has_water_source"`
	WaterSource        string `json:"water_source,omitempty"`
	GasConnection      bool   `json:"gas_connection"`
	Biogas             bool   `json:"biogas"`
	Solar              bool   `json:"solar"`
	Electricity        bool   `json:"electricity"`
	Refrigerator       bool   `json:"refrigerator"`
	WashingMachine     bool   `json:"washing_machine"`
	HouseType          string `json:"house_type,omitempty"`
	RoadAccess         string `json:"road_access,omitempty"`
	WasteDisposal      string `json:"waste_disposal,omitempty"`
	Agriculture        bool   `json:"agriculture"`
	AgricultureType    string `json:"agriculture_type,omitempty"`
	Livestock          bool   `json:"livestock"`
	LivestockType      string `json:"livestock_type,omitempty"`
	LivestockCount     *int   `json:"livestock_count,omitempty"`
	RationCard         bool   `json:"ration_card"`
	RationCardNumber   string `json:"ration_card_number,omitempty"`
	RationCardCategory string `json:"ration_card_category,omitempty"`
	Remark             string `json:"remark,omitempty"`
}

func toHouseDTO(h census.House) HouseDTO {
	dto := HouseDTO{
		ID:                 int64(h.ID),
		HouseholdID:        int64(h.HouseholdID),
		OwnerEN:            h.Owner.Primary,
		OwnerML:            h.Owner.Secondary,
		Address:            h.Address,
		Phone:              h.Phone,
		RollNo:             h.RollNo,
		HasWaterSource:     h.HasWaterSource,
		WaterSource:        h.WaterSource,
		GasConnection:      h.GasConnection,
		Biogas:             h.Biogas,
		Solar:              h.Solar,
		Electricity:        h.Electricity,
		Refrigerator:       h.Refrigerator,
		WashingMachine:     h.WashingMachine,
		HouseType:          h.HouseType,
		RoadAccess:         h.RoadAccess,
		WasteDisposal:      h.WasteDisposal,
		Agriculture:        h.Agriculture,
		AgricultureType:    h.AgricultureType,
		Livestock:          h.Livestock,
		LivestockType:      h.LivestockType,
		LivestockCount:     h.LivestockCount,
		RationCard:         h.RationCard,
		RationCardNumber:   h.RationCardNumber,
		RationCardCategory: h.RationCardCategory,
		Remark:             h.Remark,
	}
	if h.ClusterID != nil {
		id := int64(*h.ClusterID)
		dto.ClusterID = &id
	}
	return dto
}

// =============================================================================
// RESIDENTS
// =============================================================================

type ResidentDTO struct {
	ID            int64   `json:"id"`
	HouseholdID   *int64  `json:"household_id,omitempty"`
	NameEN        string  `json:"name_en"`
	NameML        string  `json:"name_ml,omitempty"`
	DisplayName   string  `json:"display_name"`
	GuardianEN    string  `json:"guardian_en,omitempty"`
	GuardianML    string  `json:"guardian_ml,omitempty"`
	Age           *int    `json:"age,omitempty"`
	Gender        string  `json:"gender,omitempty"`
	DateOfBirth   *string `json:"date_of_birth,omitempty"`
	VoterID       string  `json:"voter_id,omitempty"`
	RollSEC       string  `json:"roll_sec,omitempty"`
	RollECI       string  `json:"roll_eci,omitempty"`
	EpicID        string  `json:"epic_id,omitempty"`
	HasElectionID bool    `json:"has_election_id"`
	PollingBooth  string  `json:"polling_booth,omitempty"`
}

type VariantDTO struct {
	ID         int64     `json:"id"`
	NameEN     string    `json:"name_en"`
	NameML     string    `json:"name_ml,omitempty"`
	Normalized string    `json:"normalized_name"`
	Source     string    `json:"source"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
}

type EducationDTO struct {
	Education string `json:"education"`
	Status    string `json:"status,omitempty"`
	Stream    string `json:"stream,omitempty"`
}

// MemberDetailDTO is a resident with its variants and education.
type MemberDetailDTO struct {
	ResidentDTO
	Variants   []VariantDTO   `json:"variants"`
	Educations []EducationDTO `json:"educations"`
}

func toResidentDTO(r census.Resident, variants []census.NameVariant) ResidentDTO {
	dto := ResidentDTO{
		ID:            int64(r.ID),
		NameEN:        r.Name.Primary,
		NameML:        r.Name.Secondary,
		DisplayName:   census.DisplayName(r, variants),
		GuardianEN:    r.Guardian.Primary,
		GuardianML:    r.Guardian.Secondary,
		Age:           r.Age,
		Gender:        r.Gender,
		VoterID:       r.Identifiers.VoterID,
		RollSEC:       r.Identifiers.RollSEC,
		RollECI:       r.Identifiers.RollECI,
		EpicID:        r.Identifiers.EpicID,
		HasElectionID: r.HasElectionID,
		PollingBooth:  r.PollingBooth,
	}
	if r.HouseholdID != nil {
		id := int64(*r.HouseholdID)
		dto.HouseholdID = &id
	}
	if r.DateOfBirth != nil {
		d := r.DateOfBirth.Format(time.DateOnly)
		dto.DateOfBirth = &d
	}
	return dto
}

func toVariantDTO(v census.NameVariant) VariantDTO {
	return VariantDTO{
		ID:         v.ID,
		NameEN:     v.Name.Primary,
		NameML:     v.Name.Secondary,
		Normalized: v.Normalized,
		Source:     string(v.Source),
		IsPrimary:  v.IsPrimary,
		CreatedAt:  v.CreatedAt,
	}
}

// AddVariantRequest records a manual alias.
type AddVariantRequest struct {
	NameEN string `json:"name_en"`
	NameML string `json:"name_ml"`
}

// =============================================================================
// IMPORTS
// =============================================================================

type ImportRunDTO struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	Created     int        `json:"created"`
	Updated     int        `json:"updated"`
	Skipped     int        `json:"skipped"`
	Failed      int        `json:"failed"`
	Aliases     int        `json:"aliases"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toImportRunDTO(r importer.ImportRun) ImportRunDTO {
	return ImportRunDTO{
		ID:          r.ID,
		Kind:        r.Kind,
		Filename:    r.Filename,
		Status:      r.Status,
		Created:     r.Created,
		Updated:     r.Updated,
		Skipped:     r.Skipped,
		Failed:      r.Failed,
		Aliases:     r.Aliases,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

type RowErrorDTO struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type SummaryDTO struct {
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Aliases int           `json:"aliases"`
	Aborted bool          `json:"aborted"`
	Errors  []RowErrorDTO `json:"errors"`
}

func toSummaryDTO(s census.Summary) SummaryDTO {
	dto := SummaryDTO{
		Created: s.Created,
		Updated: s.Updated,
		Skipped: s.Skipped,
		Failed:  s.Failed,
		Aliases: s.Aliases,
		Aborted: s.Aborted,
		Errors:  make([]RowErrorDTO, 0, len(s.Errors)),
	}
	for _, e := range s.Errors {
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		dto.Errors = append(dto.Errors, RowErrorDTO{Line: e.Line, Reason: e.Reason, Error: msg})
	}
	return dto
}

// ImportResponse is returned by POST /api/imports/{kind}.
type ImportResponse struct {
	Run     ImportRunDTO `json:"run"`
	Summary SummaryDTO   `json:"summary"`
}

type RecountResponse struct {
	Households int64 `json:"households"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
