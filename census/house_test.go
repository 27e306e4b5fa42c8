package census_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/census/store"
)

func seedFamily(t *testing.T, engine *census.Engine, house, family string) {
	t.Helper()
	sum := engine.ImportMembers(context.Background(), []census.MemberRecord{{
		Line:        2,
		HouseNumber: house,
		FamilyName:  census.DualName{Primary: family},
		Name:        census.DualName{Primary: "Head of " + family},
	}})
	require.Equal(t, 1, sum.Created)
}

func houseRow(line int, family, cluster, owner string) census.HouseRecord {
	return census.HouseRecord{
		Line:       line,
		FamilyName: family,
		Cluster:    cluster,
		Owner:      census.DualName{Primary: owner},
	}
}

func houseOf(t *testing.T, mem *store.Memory, id census.HouseholdID) *census.House {
	t.Helper()
	h, err := mem.FindHouse(context.Background(), id)
	require.NoError(t, err)
	return h
}

func TestImportHouses_AttachesToFamilyByName(t *testing.T) {
	// GIVEN: Household 12 of family Puthenpura
	// WHEN: A house row names the family in another case
	// THEN: The house is attached to that household; a re-import updates it in place

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedFamily(t, engine, "12", "Puthenpura")

	row := houseRow(2, "PUTHENPURA", "North", "Joseph")
	row.Electricity = true
	row.WaterSource = "Well"
	row.LivestockCount = intPtr(3)
	row.RationCardNumber = "1234567890"

	sum := engine.ImportHouses(ctx, []census.HouseRecord{row})
	assert.Equal(t, 1, sum.Created)
	assert.Empty(t, sum.Errors)

	households := mem.Households()
	require.Len(t, households, 1)
	house := houseOf(t, mem, households[0].ID)
	require.NotNil(t, house)
	assert.Equal(t, "Joseph", house.Owner.Primary)
	assert.True(t, house.Electricity)
	assert.Equal(t, "Well", house.WaterSource)
	require.NotNil(t, house.LivestockCount)
	assert.Equal(t, 3, *house.LivestockCount)

	clusters := mem.Clusters()
	require.Len(t, clusters, 1)
	require.NotNil(t, house.ClusterID)
	assert.Equal(t, clusters[0].ID, *house.ClusterID)

	row.Remark = "resurveyed"
	sum = engine.ImportHouses(ctx, []census.HouseRecord{row})
	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 1, sum.Updated)

	again := houseOf(t, mem, households[0].ID)
	assert.Equal(t, house.ID, again.ID)
	assert.Equal(t, "resurveyed", again.Remark)
	assert.Len(t, mem.Clusters(), 1)
}

func TestImportHouses_CreatesFamilyFromHouseNumber(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: House rows name unknown families, one with a house number
	// THEN: The numbered family is created; the other row is skipped

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	numbered := houseRow(2, "Kizhakkethil", "North", "Mary")
	numbered.HouseNumber = "7 b"

	sum := engine.ImportHouses(ctx, []census.HouseRecord{
		numbered,
		houseRow(3, "Unknown", "North", "Ravi"),
	})

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, 3, sum.Errors[0].Line)
	assert.ErrorIs(t, sum.Errors[0].Err, census.ErrFamilyNotFound)

	households := mem.Households()
	require.Len(t, households, 1)
	assert.Equal(t, census.HouseholdKey{Number: "7", Sub: "B"}, households[0].Key)
	assert.Equal(t, "Kizhakkethil", households[0].Name.Primary)
	require.NotNil(t, households[0].ClusterID)
	assert.NotNil(t, houseOf(t, mem, households[0].ID))
}

func TestImportHouses_RenumbersFamily(t *testing.T) {
	// GIVEN: Families Puthenpura at 12 and Kizhakkethil at 15
	// WHEN: House rows give Puthenpura a new number, then one that is taken
	// THEN: The first move applies; the second row fails and leaves no trace

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedFamily(t, engine, "12", "Puthenpura")
	seedFamily(t, engine, "15", "Kizhakkethil")

	moved := houseRow(2, "Puthenpura", "North", "Joseph")
	moved.HouseNumber = "14 a"
	sum := engine.ImportHouses(ctx, []census.HouseRecord{moved})
	require.Equal(t, 1, sum.Created)

	households := mem.Households()
	require.Len(t, households, 2)
	assert.Equal(t, census.HouseholdKey{Number: "14", Sub: "A"}, households[0].Key)

	taken := houseRow(3, "Kizhakkethil", "South", "Mary")
	taken.HouseNumber = "14 A"
	sum = engine.ImportHouses(ctx, []census.HouseRecord{taken})
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)
	assert.ErrorIs(t, sum.Errors[0].Err, census.ErrDuplicateHousehold)

	assert.Nil(t, houseOf(t, mem, households[1].ID))
	assert.Len(t, mem.Clusters(), 1, "cluster South rolled back with the row")
	assert.Equal(t, "15", mem.Households()[1].Key.Number)
}

func TestImportHouses_ValidationSkips(t *testing.T) {
	engine, _ := newTestEngine(t)
	seedFamily(t, engine, "12", "Puthenpura")

	sum := engine.ImportHouses(context.Background(), []census.HouseRecord{
		houseRow(2, "", "North", "Joseph"),
		houseRow(3, "Puthenpura", "", "Joseph"),
		houseRow(4, "Puthenpura", "North", " "),
	})

	assert.Equal(t, 3, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	require.Len(t, sum.Errors, 3)
	assert.ErrorIs(t, sum.Errors[0].Err, census.ErrMissingFamilyName)
	assert.ErrorIs(t, sum.Errors[1].Err, census.ErrMissingCluster)
	assert.ErrorIs(t, sum.Errors[2].Err, census.ErrMissingOwner)
}

func TestImportHouses_RecountOnWrite(t *testing.T) {
	seeder, mem := newTestEngine(t)
	seedFamily(t, seeder, "12", "Puthenpura")
	require.Equal(t, 0, mem.Households()[0].TotalMembers)

	engine := census.NewEngine(mem, census.WithRecount(true))
	sum := engine.ImportHouses(context.Background(), []census.HouseRecord{houseRow(2, "Puthenpura", "North", "Joseph")})
	require.Equal(t, 1, sum.Created)

	households := mem.Households()
	require.Len(t, households, 1)
	assert.Equal(t, 1, households[0].TotalMembers)
}
