/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Sheet upload through every workflow
- Household / member listings with display names
- Manual alias recording
- Import run history and recount
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/importer"
	"github.com/warp/census-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (http.Handler, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine := census.NewEngine(store, census.WithRecount(true))
	im := importer.New(engine, importer.DefaultColumns(), store, nil)
	return NewRouter(NewHandler(store, im, nil)), store
}

func upload(t *testing.T, srv http.Handler, kind, filename, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports/"+kind, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const membersSheet = "House No,Family Name(EN),Name(EN),Roll No-SEC,Voter ID,Polling Booth No,Education\n" +
	"12,Puthenpura,John,R1,,7,\"SSLC, BA\"\n" +
	"12,Puthenpura,Mary,R2,V2,7,\n" +
	"12,Puthenpura,Jon,R1,,7,\n"

// =============================================================================
// IMPORT TESTS
// =============================================================================

func TestImport_MembersThenListings(t *testing.T) {
	// GIVEN: A members sheet where the third row re-spells the first
	// WHEN: It is uploaded
	// THEN: Two residents exist, John carries "Jon" as an alias

	srv, _ := newTestServer(t)

	rec := upload(t, srv, "members", "members.csv", membersSheet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, 2, resp.Summary.Created)
	assert.Equal(t, 1, resp.Summary.Updated)
	assert.Equal(t, 1, resp.Summary.Aliases)
	assert.Equal(t, "completed", resp.Run.Status)
	assert.Equal(t, "members.csv", resp.Run.Filename)

	rec = do(t, srv, http.MethodGet, "/api/households", "")
	require.Equal(t, http.StatusOK, rec.Code)
	households := decode[[]HouseholdDTO](t, rec)
	require.Len(t, households, 1)
	assert.Equal(t, "12", households[0].Key)
	assert.Equal(t, 2, households[0].TotalMembers)
	assert.Equal(t, 2, households[0].TotalVoters)

	rec = do(t, srv, http.MethodGet, "/api/households/"+itoa(households[0].ID)+"/members", "")
	require.Equal(t, http.StatusOK, rec.Code)
	members := decode[[]ResidentDTO](t, rec)
	require.Len(t, members, 2)
	assert.Equal(t, "John (Jon)", members[0].DisplayName)
	assert.Equal(t, "Mary", members[1].DisplayName)

	rec = do(t, srv, http.MethodGet, "/api/members/"+itoa(members[0].ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[MemberDetailDTO](t, rec)
	require.Len(t, detail.Variants, 2)
	assert.True(t, detail.Variants[0].IsPrimary)
	assert.Equal(t, "excel", detail.Variants[1].Source)
	require.Len(t, detail.Educations, 2)
	assert.Equal(t, "BA", detail.Educations[1].Education)
}

func TestImport_SIRRenamesResident(t *testing.T) {
	srv, store := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, srv, "members", "members.csv", membersSheet).Code)

	rec := upload(t, srv, "sir", "sir.csv", "Polling Booth No,Roll No-SEC,Name(EN)\n7,R1,Jonathan\n8,R2,Maria\n")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, 1, resp.Summary.Updated)
	assert.Equal(t, 1, resp.Summary.Skipped, "R2 is in booth 7, not 8")
	require.Len(t, resp.Summary.Errors, 1)
	assert.Equal(t, 3, resp.Summary.Errors[0].Line)

	residents, err := store.ListResidents(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Jonathan", residents[0].Name.Primary)
	assert.Equal(t, "Mary", residents[1].Name.Primary)
}

func TestImport_Booths(t *testing.T) {
	srv, store := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, srv, "members", "members.csv", membersSheet).Code)

	rec := upload(t, srv, "booths", "booths.csv", "Voter ID,Booth\nV2,21.0\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[ImportResponse](t, rec).Summary.Updated)

	r, err := store.GetResident(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "21", r.PollingBooth)
}

func TestImport_HousesThenGetHouse(t *testing.T) {
	srv, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, srv, "members", "members.csv", membersSheet).Code)

	rec := do(t, srv, http.MethodGet, "/api/households/1/house", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	sheet := "Family Name,Cluster,Owner,House Number,Solar,Livestock Count\n" +
		"Puthenpura,North,John,12,Yes,4\n"
	rec = upload(t, srv, "houses", "houses.csv", sheet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[ImportResponse](t, rec).Summary.Created)

	rec = do(t, srv, http.MethodGet, "/api/households/1/house", "")
	require.Equal(t, http.StatusOK, rec.Code)
	house := decode[HouseDTO](t, rec)
	assert.Equal(t, int64(1), house.HouseholdID)
	assert.Equal(t, "John", house.OwnerEN)
	assert.True(t, house.Solar)
	require.NotNil(t, house.LivestockCount)
	assert.Equal(t, 4, *house.LivestockCount)
	assert.NotNil(t, house.ClusterID)
}

func TestImport_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := upload(t, srv, "families", "x.csv", "a\n1\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/imports/members", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, srv, "members", "broken.xlsx", "not a workbook")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "failed", decode[ImportResponse](t, rec).Run.Status)
}

func TestListImportRuns(t *testing.T) {
	srv, _ := newTestServer(t)
	upload(t, srv, "members", "members.csv", membersSheet)
	upload(t, srv, "booths", "booths.csv", "Voter ID,Booth\nV2,21\n")

	rec := do(t, srv, http.MethodGet, "/api/imports/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ImportRunDTO](t, rec), 2)

	rec = do(t, srv, http.MethodGet, "/api/imports/runs?kind=booths", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]ImportRunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, "booths", runs[0].Kind)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/imports/runs?kind=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/imports/runs?limit=-1", "").Code)
}

// =============================================================================
// MEMBER TESTS
// =============================================================================

func TestAddVariant(t *testing.T) {
	srv, _ := newTestServer(t)
	upload(t, srv, "members", "members.csv", membersSheet)

	rec := do(t, srv, http.MethodPost, "/api/members/2/variants", `{"name_en":"Maria","name_ml":"മരിയ"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decode[VariantDTO](t, rec)
	assert.Equal(t, "manual", v.Source)
	assert.False(t, v.IsPrimary)

	// Same normalized name again: existing variant, no new row
	rec = do(t, srv, http.MethodPost, "/api/members/2/variants", `{"name_en":"  MARIA "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, v.ID, decode[VariantDTO](t, rec).ID)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/members/2/variants", `{"name_en":"K P"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/members/2/variants", `{`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/api/members/99/variants", `{"name_en":"Maria"}`).Code)
}

func TestGetMember_NotFoundAndInvalid(t *testing.T) {
	srv, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/members/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/members/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/households/5/members", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/households?cluster=x", "").Code)
}

// =============================================================================
// RECOUNT TESTS
// =============================================================================

func TestRecount(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Engine without recount-on-write leaves counts at zero
	im := importer.New(census.NewEngine(store), importer.DefaultColumns(), store, nil)
	srv := NewRouter(NewHandler(store, im, nil))
	upload(t, srv, "members", "members.csv", membersSheet)

	hs, err := store.ListHouseholds(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, hs[0].TotalMembers)

	rec := do(t, srv, http.MethodPost, "/api/admin/recount", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[RecountResponse](t, rec).Households)

	hs, err = store.ListHouseholds(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hs[0].TotalMembers)
	assert.Equal(t, 2, hs[0].TotalVoters)
}

type countingRecounter struct {
	calls chan struct{}
}

func (c *countingRecounter) RecountAll(context.Context) (int64, error) {
	c.calls <- struct{}{}
	return 3, nil
}

func TestRecountScheduler_SweepsOnStartAndTick(t *testing.T) {
	rc := &countingRecounter{calls: make(chan struct{}, 10)}
	s := NewRecountScheduler(rc, nil)
	s.CheckInterval = 10 * time.Millisecond

	s.Start()
	for i := 0; i < 2; i++ {
		select {
		case <-rc.calls:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not sweep")
		}
	}
	s.Stop()
	s.Stop() // idempotent

	_, n, err := s.LastRun()
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRecountScheduler_Disabled(t *testing.T) {
	rc := &countingRecounter{calls: make(chan struct{}, 1)}
	s := NewRecountScheduler(rc, nil)
	s.Enabled = false

	s.Start()
	s.Stop()
	assert.Len(t, rc.calls, 0)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
