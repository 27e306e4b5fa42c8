package census_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/census-engine/census"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"nan is a name here", "Nan", "nan"},
		{"lowercases", "John Mathew", "john mathew"},
		{"drops initials with punctuation", "Mohammed K.P", "mohammed"},
		{"drops short tokens", "Ali Va Rasheed", "ali rasheed"},
		{"all initials", "A B", ""},
		{"collapses whitespace", "  Mary\t\tJoseph  ", "mary joseph"},
		{"strips punctuation", "O'Brien-Smith", "obriensmith"},
		{"keeps digits", "Joseph 2nd", "joseph 2nd"},
		{"keeps malayalam marks", "മുഹമ്മദ്", "മുഹമ്മദ്"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, census.Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Mohammed K.P", "  JOHN   mathew ", "A B", "Sree-Kumar P.K.", "മുഹമ്മദ് കെ"}
	for _, in := range inputs {
		once := census.Normalize(in)
		assert.Equal(t, once, census.Normalize(once), "input %q", in)
	}
}

func TestArchiveKey(t *testing.T) {
	// GIVEN: Names whose comparison form may be empty
	// WHEN: The archive key is built
	// THEN: All-initials names keep their short tokens, others match Normalize

	assert.Equal(t, "k p", census.ArchiveKey("K. P"))
	assert.Equal(t, "k p", census.ArchiveKey("K P"))
	assert.Equal(t, "mohammed", census.ArchiveKey("Mohammed K.P"))
	assert.Equal(t, census.Normalize("Ali Va Rasheed"), census.ArchiveKey("Ali Va Rasheed"))
	assert.Equal(t, "", census.ArchiveKey(" .- "))
	assert.Equal(t, "", census.ArchiveKey(""))
}

func TestIsMalayalam(t *testing.T) {
	assert.True(t, census.IsMalayalam("കോട്ടയം"))
	assert.True(t, census.IsMalayalam("Ward കോട്ടയം"))
	assert.False(t, census.IsMalayalam("Kottayam"))
	assert.False(t, census.IsMalayalam(""))
}

func TestParseHouseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want census.HouseholdKey
	}{
		{"12", census.HouseholdKey{Number: "12"}},
		{"12 a", census.HouseholdKey{Number: "12", Sub: "A"}},
		{"12/b", census.HouseholdKey{Number: "12", Sub: "B"}},
		{" 7 / c ", census.HouseholdKey{Number: "7", Sub: "C"}},
		{"nan", census.HouseholdKey{}},
		{"", census.HouseholdKey{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, census.ParseHouseNumber(tt.in), "input %q", tt.in)
	}
	assert.Equal(t, "12/A", census.HouseholdKey{Number: "12", Sub: "A"}.String())
}

func TestDisplayName(t *testing.T) {
	r := census.Resident{ID: 1, Name: census.DualName{Primary: "John"}}
	variants := []census.NameVariant{
		{ResidentID: 1, Name: census.DualName{Primary: "John"}, IsPrimary: true},
		{ResidentID: 1, Name: census.DualName{Primary: "Jon"}},
		{ResidentID: 1, Name: census.DualName{Primary: "Jonny"}},
		{ResidentID: 2, Name: census.DualName{Primary: "Other"}},
	}

	assert.Equal(t, "John (Jon, Jonny)", census.DisplayName(r, variants))
	assert.Equal(t, "John", census.DisplayName(r, variants[:1]))
}
