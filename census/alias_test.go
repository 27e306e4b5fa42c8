package census_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/census/store"
)

func TestAliasRecorder_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	r := census.Resident{Name: census.DualName{Primary: "John"}, Identifiers: census.Identifiers{VoterID: "V1"}}
	require.NoError(t, mem.CreateResident(ctx, &r))

	rec := census.NewAliasRecorder(mem)

	// GIVEN: A first recording of "Jon"
	v1, created, err := rec.Record(ctx, r, census.DualName{Primary: "Jon"}, census.SourceImportBulk)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, v1.IsPrimary)
	assert.Equal(t, "jon", v1.Normalized)
	assert.Equal(t, "John", v1.MemberName.Primary)
	assert.Equal(t, "V1", v1.VoterID)

	// WHEN: The same normalized name is recorded again from another source
	v2, created, err := rec.Record(ctx, r, census.DualName{Primary: "  JON "}, census.SourceImportCorrective)

	// THEN: The original variant is returned untouched
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, v1.ID, v2.ID)
	assert.Equal(t, census.SourceImportBulk, v2.Source)

	variants, err := mem.ListVariants(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, variants, 1)
}

func TestAliasRecorder_EmptyNormalizedNameIsNoop(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	r := census.Resident{Name: census.DualName{Primary: "John"}}
	require.NoError(t, mem.CreateResident(ctx, &r))

	v, created, err := census.NewAliasRecorder(mem).Record(ctx, r, census.DualName{Primary: "K P"}, census.SourceImportBulk)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, v.ID)
	variants, _ := mem.ListVariants(ctx, r.ID)
	assert.Empty(t, variants)
}

func TestAliasRecorder_InvalidSource(t *testing.T) {
	mem := store.NewMemory()
	_, _, err := census.NewAliasRecorder(mem).Record(context.Background(), census.Resident{ID: 1}, census.DualName{Primary: "John"}, "spreadsheet")
	assert.ErrorIs(t, err, census.ErrInvalidSource)
}

func TestMemoryStore_CreateVariantDuplicate(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	v := census.NameVariant{ResidentID: 1, Name: census.DualName{Primary: "John"}, Normalized: "john", Source: census.SourceManual}
	require.NoError(t, mem.CreateVariant(ctx, &v))

	dup := v
	assert.ErrorIs(t, mem.CreateVariant(ctx, &dup), census.ErrDuplicateVariant)
}

func TestAliasRecorder_ArchiveKeepsInitials(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	r := census.Resident{Name: census.DualName{Primary: "K P"}}
	require.NoError(t, mem.CreateResident(ctx, &r))
	rec := census.NewAliasRecorder(mem)

	v, created, err := rec.Archive(ctx, r, r.Name, census.SourceImportCorrective)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "k p", v.Normalized)

	// Malayalam-only names are keyed by the Malayalam spelling
	v, created, err = rec.Archive(ctx, r, census.DualName{Secondary: "വേലു"}, census.SourceImportCorrective)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "വേലു", v.Normalized)

	// Nothing to archive
	v, created, err = rec.Archive(ctx, r, census.DualName{}, census.SourceImportCorrective)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, v.ID)

	_, _, err = rec.Archive(ctx, r, census.DualName{Primary: "--"}, census.SourceImportCorrective)
	assert.ErrorIs(t, err, census.ErrUnarchivableName)
}
