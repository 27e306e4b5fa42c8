package importer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/importer"
	"github.com/warp/census-engine/store/sqlite"
)

// =============================================================================
// ROW / CELLS
// =============================================================================

func TestRow_GetAliasesAndDrift(t *testing.T) {
	header := []string{" Name (EN) ", "Voter ID", "Roll No", "Age"}
	row := importer.NewRow(2, header, []string{"John", "", "nan"})

	assert.Equal(t, "John", row.Get("Name(EN)", "Name (EN)", "Name"))
	assert.Equal(t, "John", row.Get("name(en)"), "case and spacing insensitive fallback")
	assert.Equal(t, "", row.Get("Voter ID"))
	assert.Equal(t, "", row.Get("Roll No"), "nan reads as empty")
	assert.Equal(t, "", row.Get("Age"), "short row reads as empty")
	assert.Equal(t, "", row.Get("Epic ID"), "absent column reads as empty")
	assert.True(t, row.Has("Age"))
	assert.False(t, row.Has("Epic ID"))
}

func TestRow_FirstNonEmptyAliasWins(t *testing.T) {
	row := importer.NewRow(2, []string{"Name", "Name(EN)"}, []string{"Fallback", ""})
	assert.Equal(t, "Fallback", row.Get("Name(EN)", "Name"))
}

func TestCells(t *testing.T) {
	assert.True(t, importer.YesNo(" YES "))
	assert.False(t, importer.YesNo("no"))
	assert.False(t, importer.YesNo(""))

	require.NotNil(t, importer.Age("42.0"))
	assert.Equal(t, 42, *importer.Age("42.0"))
	assert.Nil(t, importer.Age("forty"))
	assert.Nil(t, importer.Int(""))
	require.NotNil(t, importer.Count("3"))
	assert.Equal(t, 3, *importer.Count("3"))
	assert.Equal(t, int64(25000), *importer.Int("25000"))

	assert.Equal(t, "1234", importer.Code("1234.0"))
	assert.Equal(t, "12.5", importer.Code("12.5"))
	assert.Equal(t, "KL/01/123", importer.Code("KL/01/123"))
	assert.Equal(t, "ABC.1", importer.Code("ABC.1"))

	want := time.Date(1980, time.March, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"1980-03-05", "05-03-1980", "05/03/1980", "1980-03-05 00:00:00"} {
		got := importer.Date(in)
		require.NotNil(t, got, in)
		assert.True(t, want.Equal(*got), in)
	}
	assert.Nil(t, importer.Date("March 5th"))

	assert.Equal(t, []string{"SSLC", "Plus Two", "BA"}, importer.List("SSLC, Plus Two,,BA "))
	assert.Nil(t, importer.List(" "))
}

func TestParseColumns_OverridesOnlyGivenFields(t *testing.T) {
	cols, err := importer.ParseColumns([]byte(`
voter_id: ["EPIC No", "Voter Id"]
polling_booth: ["PS No"]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"EPIC No", "Voter Id"}, cols.VoterID)
	assert.Equal(t, []string{"PS No"}, cols.PollingBooth)
	assert.Equal(t, importer.DefaultColumns().NameEN, cols.NameEN)
}

func TestParseColumns_Invalid(t *testing.T) {
	_, err := importer.ParseColumns([]byte("voter_id: [unclosed"))
	assert.Error(t, err)
}

// =============================================================================
// MAPPING
// =============================================================================

func TestColumns_MemberRecord(t *testing.T) {
	header := []string{
		"Cluster", "House No", "Family Name(EN)", "Name(EN)", "Name(ML)", "Guardian's Name(EN)",
		"Age", "House Owner", "Monthly Income", "Roll No", "Voter ID", "Polling Booth No", "Education", "Job Status",
	}
	row := importer.NewRow(5, header, []string{
		"Kanjikuzhy", "12 a", "Puthenpura", "John", "ജോൺ", "Mathew",
		"34.0", "Yes", "15000", "101.0", "", "7.0", "SSLC, BA", "no",
	})

	rec := importer.DefaultColumns().MemberRecord(row)

	assert.Equal(t, 5, rec.Line)
	assert.Equal(t, "12 a", rec.HouseNumber)
	assert.Equal(t, census.DualName{Primary: "John", Secondary: "ജോൺ"}, rec.Name)
	assert.Equal(t, "Mathew", rec.Guardian.Primary)
	require.NotNil(t, rec.Age)
	assert.Equal(t, 34, *rec.Age)
	assert.True(t, rec.HouseOwner)
	assert.False(t, rec.JobStatus)
	assert.Equal(t, int64(15000), *rec.MonthlyIncome)
	assert.Equal(t, census.Identifiers{RollSEC: "101"}, rec.Identifiers)
	assert.Equal(t, "7", rec.PollingBooth)
	assert.Equal(t, []string{"SSLC", "BA"}, rec.Education)
}

func TestColumns_BoothRecordAliases(t *testing.T) {
	row := importer.NewRow(2, []string{"Booth No", "Roll No"}, []string{"14.0", "88"})
	rec := importer.DefaultColumns().BoothRecord(row)
	assert.Equal(t, census.BoothRecord{Line: 2, RollSEC: "88", PollingBooth: "14"}, rec)
}

func TestColumns_HouseRecord(t *testing.T) {
	row := importer.NewRow(4,
		[]string{"Family Name", "Cluster", "House Number", "Owner", "Phone Number", "Roll No",
			"Water Source", "Electricity", "Livestock Count", "Ration Card", "Ration Card Number", "Remark"},
		[]string{"Puthenpura", "North", "12 a", "Joseph", "9876543210.0", "44",
			"yes", "Yes", "2.0", "no", "1234567890", "nan"},
	)
	rec := importer.DefaultColumns().HouseRecord(row)

	assert.Equal(t, 4, rec.Line)
	assert.Equal(t, "Puthenpura", rec.FamilyName)
	assert.Equal(t, "North", rec.Cluster)
	assert.Equal(t, "12 a", rec.HouseNumber)
	assert.Equal(t, census.DualName{Primary: "Joseph"}, rec.Owner)
	assert.Equal(t, "9876543210", rec.Phone)
	assert.Equal(t, "44", rec.RollNo)
	assert.True(t, rec.HasWaterSource)
	assert.Equal(t, "yes", rec.WaterSource)
	assert.True(t, rec.Electricity)
	assert.False(t, rec.Solar, "missing column")
	require.NotNil(t, rec.LivestockCount)
	assert.Equal(t, 2, *rec.LivestockCount)
	assert.False(t, rec.RationCard)
	assert.Equal(t, "1234567890", rec.RationCardNumber)
	assert.Empty(t, rec.Remark)
}

// =============================================================================
// SHEETS
// =============================================================================

func TestReadSheet_CSV(t *testing.T) {
	data := "\ufeffHouse No,Name(EN),Voter ID\n12,John,V1\n,,\n14,Mary\n"

	rows, err := importer.ReadSheet(strings.NewReader(data), "members.CSV")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "12", rows[0].Get("House No"))
	assert.Equal(t, 4, rows[1].Line, "blank rows keep numbering")
	assert.Equal(t, "", rows[1].Get("Voter ID"))
}

func TestReadSheet_Empty(t *testing.T) {
	_, err := importer.ReadSheet(strings.NewReader(""), "x.csv")
	assert.ErrorIs(t, err, importer.ErrEmptySheet)
}

func workbook(t *testing.T, rows ...[]any) *strings.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return strings.NewReader(buf.String())
}

func TestReadSheet_XLSX(t *testing.T) {
	wb := workbook(t,
		[]any{"House No", "Name(EN)", "Roll No"},
		[]any{"12", "John", 101},
	)

	rows, err := importer.ReadSheet(wb, "members.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "John", rows[0].Get("Name(EN)"))
	assert.Equal(t, "101", importer.Code(rows[0].Get("Roll No")))
}

// =============================================================================
// END TO END
// =============================================================================

func TestImporter_ImportFile(t *testing.T) {
	// GIVEN: A members sheet and a later SIR sheet renaming one resident
	// THEN: Each file is recorded as an import run with its counts

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	im := importer.New(census.NewEngine(store), importer.DefaultColumns(), store, nil)

	members := "House No,Name(EN),Roll No-SEC,Polling Booth No\n" +
		"12,John,R1,7\n" +
		"12,Jon,R1,7\n" +
		",Nobody,R9,7\n"
	run, sum, err := im.ImportFile(ctx, importer.KindMembers, "members.csv", strings.NewReader(members))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, "completed", run.Status)

	sir := "Polling Booth No,Roll No-SEC,Name(EN)\n7,R1,Jonathan\n"
	_, sum, err = im.ImportFile(ctx, importer.KindSIR, "sir.csv", strings.NewReader(sir))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)

	runs, err := store.ListImportRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	kinds := []string{runs[0].Kind, runs[1].Kind}
	assert.ElementsMatch(t, []string{"members", "sir"}, kinds)

	households, err := store.ListHouseholds(ctx, nil)
	require.NoError(t, err)
	require.Len(t, households, 1)
	residents, err := store.ListResidents(ctx, households[0].ID)
	require.NoError(t, err)
	require.Len(t, residents, 1)
	assert.Equal(t, "Jonathan", residents[0].Name.Primary)
}

func TestImporter_ImportHouses(t *testing.T) {
	// GIVEN: A members sheet followed by a house sheet for the same family
	// THEN: The house is stored against the household and the run recorded

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	im := importer.New(census.NewEngine(store), importer.DefaultColumns(), store, nil)

	members := "House No,Family Name,Name(EN)\n12,Puthenpura,John\n"
	_, sum, err := im.ImportFile(ctx, importer.KindMembers, "members.csv", strings.NewReader(members))
	require.NoError(t, err)
	require.Equal(t, 1, sum.Created)

	houses := "Family Name,Cluster,Owner,Gas Connection\n" +
		"Puthenpura,North,John,Yes\n" +
		"Puthenpura,North,,Yes\n"
	run, sum, err := im.ImportFile(ctx, importer.KindHouses, "houses.csv", strings.NewReader(houses))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, "houses", run.Kind)

	households, err := store.ListHouseholds(ctx, nil)
	require.NoError(t, err)
	require.Len(t, households, 1)
	house, err := store.GetHouse(ctx, households[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "John", house.Owner.Primary)
	assert.True(t, house.GasConnection)
}

func TestImporter_ImportFileUnreadable(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	im := importer.New(census.NewEngine(store), importer.DefaultColumns(), store, nil)
	run, _, err := im.ImportFile(ctx, importer.KindMembers, "members.xlsx", strings.NewReader("not a workbook"))

	assert.Error(t, err)
	assert.Equal(t, "failed", run.Status)

	runs, err := store.ListImportRuns(ctx, "members", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "failed", runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestParseKind(t *testing.T) {
	k, err := importer.ParseKind("sir")
	require.NoError(t, err)
	assert.Equal(t, importer.KindSIR, k)

	k, err = importer.ParseKind("houses")
	require.NoError(t, err)
	assert.Equal(t, importer.KindHouses, k)

	_, err = importer.ParseKind("families")
	assert.Error(t, err)
}
