/*
matcher.go - Duplicate detection for bulk-import rows

PURPOSE:
  Decides whether an incoming row describes a resident already registered
  in the same household. Matching is a fixed precedence of exact
  identifier comparisons; there is no scoring.

RULE PRECEDENCE (DefaultRules):
  1. voter ID
  2. roll number, SEC scheme
  3. roll number, ECI scheme
  4. election photo ID (EPIC)

  A rule whose incoming value is empty is skipped, so a sheet without a
  column simply falls through to weaker identifiers.

ITERATION ORDER:
  Candidates are scanned in order; for each candidate every rule is
  tried. The first candidate satisfying any rule wins.

NAME RULE:
  NameGuardianRule (normalized name + normalized guardian) is available
  but never part of DefaultRules. It raises recall noticeably and must be
  enabled explicitly with WithNameGuardianRule.

SEE ALSO:
  - engine.go: Builds the candidate set (household + age)
  - normalize.go: Name comparison form
*/
package census

// =============================================================================
// RULES
// =============================================================================

// Rule is one match criterion between an incoming row and a candidate.
type Rule interface {
	Name() string
	Matches(in *MemberRecord, candidate *Resident) bool
}

// identifierRule compares one identifier exactly.
type identifierRule struct {
	name string
	get  func(Identifiers) string
}

func (r identifierRule) Name() string { return r.name }

func (r identifierRule) Matches(in *MemberRecord, c *Resident) bool {
	v := r.get(in.Identifiers)
	return v != "" && v == r.get(c.Identifiers)
}

var (
	VoterIDRule = identifierRule{name: "voter_id", get: func(id Identifiers) string { return id.VoterID }}
	RollSECRule = identifierRule{name: "roll_sec", get: func(id Identifiers) string { return id.RollSEC }}
	RollECIRule = identifierRule{name: "roll_eci", get: func(id Identifiers) string { return id.RollECI }}
	EpicIDRule  = identifierRule{name: "epic_id", get: func(id Identifiers) string { return id.EpicID }}
)

// DefaultRules returns the identifier rules in precedence order.
func DefaultRules() []Rule {
	return []Rule{VoterIDRule, RollSECRule, RollECIRule, EpicIDRule}
}

// NameGuardianRule matches on equal normalized name plus an equal
// normalized guardian name in either script. Empty normalized names
// never match.
type NameGuardianRule struct{}

func (NameGuardianRule) Name() string { return "name_guardian" }

func (NameGuardianRule) Matches(in *MemberRecord, c *Resident) bool {
	name := Normalize(in.Name.Primary)
	if name == "" || name != Normalize(c.Name.Primary) {
		return false
	}
	if g := Normalize(in.Guardian.Primary); g != "" && g == Normalize(c.Guardian.Primary) {
		return true
	}
	if g := Normalize(in.Guardian.Secondary); g != "" && g == Normalize(c.Guardian.Secondary) {
		return true
	}
	return false
}

// =============================================================================
// MATCHER
// =============================================================================

// Match is a matched candidate and the rule that matched it.
type Match struct {
	Resident Resident
	Rule     string
}

// Matcher evaluates rules against candidate residents. It never
// modifies candidates.
type Matcher struct {
	rules []Rule
}

type MatcherOption func(*Matcher)

// WithNameGuardianRule appends NameGuardianRule after the identifier rules.
func WithNameGuardianRule() MatcherOption {
	return func(m *Matcher) { m.rules = append(m.rules, NameGuardianRule{}) }
}

// WithRules replaces the rule set.
func WithRules(rules ...Rule) MatcherOption {
	return func(m *Matcher) { m.rules = append([]Rule(nil), rules...) }
}

func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{rules: DefaultRules()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rules returns the names of the active rules in order.
func (m *Matcher) Rules() []string {
	names := make([]string, len(m.rules))
	for i, r := range m.rules {
		names[i] = r.Name()
	}
	return names
}

// FindMatch returns the first candidate satisfying any rule, or nil.
func (m *Matcher) FindMatch(candidates []Resident, in MemberRecord) *Match {
	for i := range candidates {
		for _, rule := range m.rules {
			if rule.Matches(&in, &candidates[i]) {
				return &Match{Resident: candidates[i], Rule: rule.Name()}
			}
		}
	}
	return nil
}
