/*
handlers.go - HTTP API handlers for the census engine

PURPOSE:
  Exposes households, residents and imports via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the census
  engine and importer.

ENDPOINTS:
  Households:
    GET    /api/households                List households (?cluster=ID)
    GET    /api/households/{id}/members   Residents with display names
    GET    /api/households/{id}/house     House survey

  Members:
    GET    /api/members/{id}              Resident + variants + education
    POST   /api/members/{id}/variants     Record a manual alias

  Imports:
    POST   /api/imports/{kind}            Upload a sheet (members|sir|booths|houses)
    GET    /api/imports/runs              Import history (?kind=, ?limit=)

  Admin:
    POST   /api/admin/recount             Recompute all household counts

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 422: Uploaded file could not be read
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. Deploy behind an authenticating
  proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/importer"
	"github.com/warp/census-engine/logger"
	"github.com/warp/census-engine/store/sqlite"
)

// DefaultMaxUpload bounds multipart sheet uploads.
const DefaultMaxUpload = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Importer  *importer.Importer
	Log       *logger.Logger
	MaxUpload int64
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, im *importer.Importer, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{Store: store, Importer: im, Log: log, MaxUpload: DefaultMaxUpload}
}

// =============================================================================
// HOUSEHOLD HANDLERS
// =============================================================================

// GetHouse returns the house survey of a household.
func (h *Handler) GetHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	house, err := h.Store.GetHouse(r.Context(), census.HouseholdID(id))
	if err != nil {
		writeStoreError(w, "House", err)
		return
	}
	writeJSON(w, http.StatusOK, toHouseDTO(*house))
}

// ListHouseholds returns all households, optionally for one cluster.
func (h *Handler) ListHouseholds(w http.ResponseWriter, r *http.Request) {
	var cluster *census.ClusterID
	if raw := r.URL.Query().Get("cluster"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid cluster id", err)
			return
		}
		c := census.ClusterID(id)
		cluster = &c
	}

	households, err := h.Store.ListHouseholds(r.Context(), cluster)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list households", err)
		return
	}

	dtos := make([]HouseholdDTO, 0, len(households))
	for _, hh := range households {
		dtos = append(dtos, toHouseholdDTO(hh))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListHouseholdMembers returns the residents of a household.
func (h *Handler) ListHouseholdMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if _, err := h.Store.GetHousehold(ctx, census.HouseholdID(id)); err != nil {
		writeStoreError(w, "Household", err)
		return
	}

	residents, err := h.Store.ListResidents(ctx, census.HouseholdID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]ResidentDTO, 0, len(residents))
	for _, res := range residents {
		variants, err := h.Store.ListVariants(ctx, res.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list variants", err)
			return
		}
		dtos = append(dtos, toResidentDTO(res, variants))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// GetMember returns a resident with its variants and education entries.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	res, err := h.Store.GetResident(ctx, census.ResidentID(id))
	if err != nil {
		writeStoreError(w, "Member", err)
		return
	}
	variants, err := h.Store.ListVariants(ctx, res.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list variants", err)
		return
	}
	edus, err := h.Store.ListEducations(ctx, res.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list education", err)
		return
	}

	dto := MemberDetailDTO{
		ResidentDTO: toResidentDTO(*res, variants),
		Variants:    make([]VariantDTO, 0, len(variants)),
		Educations:  make([]EducationDTO, 0, len(edus)),
	}
	for _, v := range variants {
		dto.Variants = append(dto.Variants, toVariantDTO(v))
	}
	for _, e := range edus {
		dto.Educations = append(dto.Educations, EducationDTO{Education: e.Education, Status: e.Status, Stream: e.Stream})
	}
	writeJSON(w, http.StatusOK, dto)
}

// AddVariant records a manual alias. Returns 201 when a new variant was
// written and 200 when the normalized name was already known.
func (h *Handler) AddVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req AddVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	name := census.DualName{Primary: req.NameEN, Secondary: req.NameML}
	if name.Normalized() == "" {
		writeError(w, http.StatusBadRequest, "name_en has no comparable tokens", nil)
		return
	}

	res, err := h.Store.GetResident(r.Context(), census.ResidentID(id))
	if err != nil {
		writeStoreError(w, "Member", err)
		return
	}

	var variant census.NameVariant
	var created bool
	err = h.Store.WithTx(r.Context(), func(s census.Store) error {
		var err error
		variant, created, err = census.NewAliasRecorder(s).Record(r.Context(), *res, name, census.SourceManual)
		return err
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record variant", err)
		return
	}

	h.Log.Info("manual alias", "resident_id", res.ID, "alias", name.Primary, "new", created)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toVariantDTO(variant))
}

// =============================================================================
// IMPORT HANDLERS
// =============================================================================

// Import runs an uploaded sheet through one workflow. The sheet is the
// multipart field "file".
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	kind, err := importer.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid import kind", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file", err)
		return
	}
	defer file.Close()

	run, sum, err := h.Importer.ImportFile(r.Context(), kind, header.Filename, file)
	status := http.StatusOK
	if err != nil {
		h.Log.Warn("import rejected", "kind", kind, "file", header.Filename, "error", err)
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, ImportResponse{
		Run:     toImportRunDTO(run),
		Summary: toSummaryDTO(sum),
	})
}

// ListImportRuns returns import history, newest first.
func (h *Handler) ListImportRuns(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != "" {
		if _, err := importer.ParseKind(kind); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid import kind", err)
			return
		}
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListImportRuns(r.Context(), kind, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list import runs", err)
		return
	}

	dtos := make([]ImportRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toImportRunDTO(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Recount recomputes member and voter counts of every household.
func (h *Handler) Recount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.RecountAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recount households", err)
		return
	}
	writeJSON(w, http.StatusOK, RecountResponse{Households: n})
}

// =============================================================================
// HELPERS
// =============================================================================

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func writeStoreError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, census.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to get "+what, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
