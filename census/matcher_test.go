package census_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/census-engine/census"
)

func resident(id census.ResidentID, name string, ids census.Identifiers) census.Resident {
	return census.Resident{ID: id, Name: census.DualName{Primary: name}, Identifiers: ids}
}

func TestMatcher_VoterIDWinsRegardlessOfName(t *testing.T) {
	// GIVEN: A household with two candidates, one sharing the voter ID
	candidates := []census.Resident{
		resident(1, "Mary", census.Identifiers{VoterID: "KL/01/999"}),
		resident(2, "Thomas", census.Identifiers{VoterID: "KL/01/123"}),
	}

	// WHEN: An incoming row with a different name but the same voter ID
	m := census.NewMatcher().FindMatch(candidates, census.MemberRecord{
		Name:        census.DualName{Primary: "Tomy"},
		Identifiers: census.Identifiers{VoterID: "KL/01/123"},
	})

	// THEN: The voter ID candidate is matched
	require.NotNil(t, m)
	assert.Equal(t, census.ResidentID(2), m.Resident.ID)
	assert.Equal(t, "voter_id", m.Rule)
}

func TestMatcher_IdenticalNamesDoNotMatchByDefault(t *testing.T) {
	candidates := []census.Resident{
		{ID: 1, Name: census.DualName{Primary: "John Mathew"}, Guardian: census.DualName{Primary: "Mathew"}},
	}
	in := census.MemberRecord{
		Name:     census.DualName{Primary: "John Mathew"},
		Guardian: census.DualName{Primary: "Mathew"},
	}

	assert.Nil(t, census.NewMatcher().FindMatch(candidates, in))
}

func TestMatcher_NameGuardianRuleIsOptIn(t *testing.T) {
	candidates := []census.Resident{
		{ID: 1, Name: census.DualName{Primary: "John K. Mathew"}, Guardian: census.DualName{Primary: "Mathew"}},
	}
	in := census.MemberRecord{
		Name:     census.DualName{Primary: "john mathew"},
		Guardian: census.DualName{Primary: "MATHEW"},
	}

	m := census.NewMatcher(census.WithNameGuardianRule()).FindMatch(candidates, in)

	require.NotNil(t, m)
	assert.Equal(t, "name_guardian", m.Rule)
}

func TestMatcher_NameGuardianRuleIgnoresEmptyNormalizedNames(t *testing.T) {
	candidates := []census.Resident{
		{ID: 1, Name: census.DualName{Primary: "A B"}, Guardian: census.DualName{Primary: "Mathew"}},
	}
	in := census.MemberRecord{
		Name:     census.DualName{Primary: "A B"},
		Guardian: census.DualName{Primary: "Mathew"},
	}

	assert.Nil(t, census.NewMatcher(census.WithNameGuardianRule()).FindMatch(candidates, in))
}

func TestMatcher_EmptyIncomingIdentifierIsSkipped(t *testing.T) {
	// A candidate with an empty voter ID must not match a row with an
	// empty voter ID; the row falls through to the roll number.
	candidates := []census.Resident{
		resident(1, "Anna", census.Identifiers{}),
		resident(2, "Anna", census.Identifiers{RollSEC: "R7"}),
	}

	m := census.NewMatcher().FindMatch(candidates, census.MemberRecord{
		Identifiers: census.Identifiers{RollSEC: "R7"},
	})

	require.NotNil(t, m)
	assert.Equal(t, census.ResidentID(2), m.Resident.ID)
	assert.Equal(t, "roll_sec", m.Rule)
}

func TestMatcher_CandidateOrderBeforeRuleOrder(t *testing.T) {
	// First candidate matches a weaker rule, second a stronger one.
	// Candidates are scanned first, so the first candidate wins.
	candidates := []census.Resident{
		resident(1, "Anna", census.Identifiers{EpicID: "EP1"}),
		resident(2, "Anna", census.Identifiers{VoterID: "V1"}),
	}

	m := census.NewMatcher().FindMatch(candidates, census.MemberRecord{
		Identifiers: census.Identifiers{VoterID: "V1", EpicID: "EP1"},
	})

	require.NotNil(t, m)
	assert.Equal(t, census.ResidentID(1), m.Resident.ID)
	assert.Equal(t, "epic_id", m.Rule)
}

func TestMatcher_Rules(t *testing.T) {
	assert.Equal(t, []string{"voter_id", "roll_sec", "roll_eci", "epic_id"}, census.NewMatcher().Rules())
	assert.Equal(t,
		[]string{"voter_id", "roll_sec", "roll_eci", "epic_id", "name_guardian"},
		census.NewMatcher(census.WithNameGuardianRule()).Rules(),
	)
	assert.Equal(t, []string{"epic_id"}, census.NewMatcher(census.WithRules(census.EpicIDRule)).Rules())
}
