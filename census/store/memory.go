// Package store provides in-memory census.Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/warp/census-engine/census"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	s  *state
}

type variantKey struct {
	ResidentID census.ResidentID
	Normalized string
}

type state struct {
	nextID        int64
	clusters      map[census.ClusterID]census.Cluster
	wards         map[census.WardID]census.Ward
	households    map[census.HouseholdID]census.Household
	householdKeys map[census.HouseholdKey]census.HouseholdID
	residents     map[census.ResidentID]census.Resident
	variants      map[int64]census.NameVariant
	variantKeys   map[variantKey]int64
	educations    map[int64]census.Education
	houses        map[census.HouseholdID]census.House
}

func newState() *state {
	return &state{
		clusters:      make(map[census.ClusterID]census.Cluster),
		wards:         make(map[census.WardID]census.Ward),
		households:    make(map[census.HouseholdID]census.Household),
		householdKeys: make(map[census.HouseholdKey]census.HouseholdID),
		residents:     make(map[census.ResidentID]census.Resident),
		variants:      make(map[int64]census.NameVariant),
		variantKeys:   make(map[variantKey]int64),
		educations:    make(map[int64]census.Education),
		houses:        make(map[census.HouseholdID]census.House),
	}
}

func NewMemory() *Memory {
	return &Memory{s: newState()}
}

var _ census.TxStore = (*Memory)(nil)

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For the memory store this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(census.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.s.clone()
	if err := fn(m.s); err != nil {
		m.s = snapshot
		return err
	}
	return nil
}

func (s *state) clone() *state {
	c := &state{
		nextID:        s.nextID,
		clusters:      make(map[census.ClusterID]census.Cluster, len(s.clusters)),
		wards:         make(map[census.WardID]census.Ward, len(s.wards)),
		households:    make(map[census.HouseholdID]census.Household, len(s.households)),
		householdKeys: make(map[census.HouseholdKey]census.HouseholdID, len(s.householdKeys)),
		residents:     make(map[census.ResidentID]census.Resident, len(s.residents)),
		variants:      make(map[int64]census.NameVariant, len(s.variants)),
		variantKeys:   make(map[variantKey]int64, len(s.variantKeys)),
		educations:    make(map[int64]census.Education, len(s.educations)),
		houses:        make(map[census.HouseholdID]census.House, len(s.houses)),
	}
	for k, v := range s.clusters {
		c.clusters[k] = v
	}
	for k, v := range s.wards {
		c.wards[k] = v
	}
	for k, v := range s.households {
		c.households[k] = v
	}
	for k, v := range s.householdKeys {
		c.householdKeys[k] = v
	}
	for k, v := range s.residents {
		c.residents[k] = v
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.variantKeys {
		c.variantKeys[k] = v
	}
	for k, v := range s.educations {
		c.educations[k] = v
	}
	for k, v := range s.houses {
		c.houses[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// =============================================================================
// REFERENCE DATA / INSPECTION (not part of census.Store)
// =============================================================================

// AddWard registers a ward and returns it with its ID set.
func (m *Memory) AddWard(w census.Ward) census.Ward {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = census.WardID(m.s.id())
	m.s.wards[w.ID] = w
	return w
}

// Residents returns all residents ordered by ID.
func (m *Memory) Residents() []census.Resident {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]census.Resident, 0, len(m.s.residents))
	for _, r := range m.s.residents {
		out = append(out, r)
	}
	sortResidents(out)
	return out
}

// Households returns all households ordered by ID.
func (m *Memory) Households() []census.Household {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]census.Household, 0, len(m.s.households))
	for _, h := range m.s.households {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clusters returns all clusters ordered by ID.
func (m *Memory) Clusters() []census.Cluster {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]census.Cluster, 0, len(m.s.clusters))
	for _, c := range m.s.clusters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Educations returns a resident's education entries ordered by ID.
func (m *Memory) Educations(id census.ResidentID) []census.Education {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []census.Education
	for _, e := range m.s.educations {
		if e.ResidentID == id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// =============================================================================
// census.Store (locking wrappers)
// =============================================================================

func (m *Memory) FindClusterByMalayalam(ctx context.Context, name string) (*census.Cluster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.FindClusterByMalayalam(ctx, name)
}

func (m *Memory) FindClusterByEnglish(ctx context.Context, name string) (*census.Cluster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.FindClusterByEnglish(ctx, name)
}

func (m *Memory) CreateCluster(ctx context.Context, c *census.Cluster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.CreateCluster(ctx, c)
}

func (m *Memory) SetClusterMalayalam(ctx context.Context, id census.ClusterID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SetClusterMalayalam(ctx, id, name)
}

func (m *Memory) FindWard(ctx context.Context, constituency string) (*census.Ward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.FindWard(ctx, constituency)
}

func (m *Memory) GetOrCreateHousehold(ctx context.Context, key census.HouseholdKey, defaults census.Household) (census.Household, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.GetOrCreateHousehold(ctx, key, defaults)
}

func (m *Memory) FindHouseholdByName(ctx context.Context, name string) (*census.Household, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.FindHouseholdByName(ctx, name)
}

func (m *Memory) SetHouseholdKey(ctx context.Context, id census.HouseholdID, key census.HouseholdKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SetHouseholdKey(ctx, id, key)
}

func (m *Memory) FindHouse(ctx context.Context, household census.HouseholdID) (*census.House, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.FindHouse(ctx, household)
}

func (m *Memory) SaveHouse(ctx context.Context, h *census.House) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SaveHouse(ctx, h)
}

func (m *Memory) ResidentsInHousehold(ctx context.Context, id census.HouseholdID, age *int) ([]census.Resident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.ResidentsInHousehold(ctx, id, age)
}

func (m *Memory) FindResidentInBooth(ctx context.Context, booth string, field census.ResidentField, value string) (*census.Resident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.FindResidentInBooth(ctx, booth, field, value)
}

func (m *Memory) FindResidentsByIdentifier(ctx context.Context, field census.ResidentField, value string) ([]census.Resident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.FindResidentsByIdentifier(ctx, field, value)
}

func (m *Memory) CreateResident(ctx context.Context, r *census.Resident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.CreateResident(ctx, r)
}

func (m *Memory) UpdateResident(ctx context.Context, r census.Resident, fields ...census.ResidentField) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.UpdateResident(ctx, r, fields...)
}

func (m *Memory) GetOrCreateVariant(ctx context.Context, v census.NameVariant) (census.NameVariant, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.GetOrCreateVariant(ctx, v)
}

func (m *Memory) CreateVariant(ctx context.Context, v *census.NameVariant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.CreateVariant(ctx, v)
}

func (m *Memory) ListVariants(ctx context.Context, id census.ResidentID) ([]census.NameVariant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.ListVariants(ctx, id)
}

func (m *Memory) CreateEducation(ctx context.Context, e *census.Education) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.CreateEducation(ctx, e)
}

func (m *Memory) RecountHousehold(ctx context.Context, id census.HouseholdID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.RecountHousehold(ctx, id)
}

// state is handed to WithTx callbacks directly; the lock is already held.
var _ census.Store = (*state)(nil)

// =============================================================================
// STATE (unlocked implementation)
// =============================================================================

func (s *state) FindClusterByMalayalam(_ context.Context, name string) (*census.Cluster, error) {
	var found *census.Cluster
	for _, c := range s.clusters {
		if c.Name.Secondary == name && (found == nil || c.ID < found.ID) {
			c := c
			found = &c
		}
	}
	return found, nil
}

func (s *state) FindClusterByEnglish(_ context.Context, name string) (*census.Cluster, error) {
	want := fold(name)
	var found *census.Cluster
	for _, c := range s.clusters {
		if fold(c.Name.Primary) == want && (found == nil || c.ID < found.ID) {
			c := c
			found = &c
		}
	}
	return found, nil
}

func (s *state) CreateCluster(_ context.Context, c *census.Cluster) error {
	c.ID = census.ClusterID(s.id())
	c.CreatedAt = time.Now().UTC()
	s.clusters[c.ID] = *c
	return nil
}

func (s *state) SetClusterMalayalam(_ context.Context, id census.ClusterID, name string) error {
	c, ok := s.clusters[id]
	if !ok {
		return census.ErrNotFound
	}
	c.Name.Secondary = name
	s.clusters[id] = c
	return nil
}

func (s *state) FindWard(_ context.Context, constituency string) (*census.Ward, error) {
	want := fold(strings.TrimSpace(constituency))
	var found *census.Ward
	for _, w := range s.wards {
		if fold(w.Constituency) == want && (found == nil || w.ID < found.ID) {
			w := w
			found = &w
		}
	}
	return found, nil
}

func (s *state) GetOrCreateHousehold(_ context.Context, key census.HouseholdKey, defaults census.Household) (census.Household, bool, error) {
	if id, ok := s.householdKeys[key]; ok {
		return s.households[id], false, nil
	}
	h := defaults
	h.ID = census.HouseholdID(s.id())
	h.Key = key
	s.households[h.ID] = h
	s.householdKeys[key] = h.ID
	return h, true, nil
}

func (s *state) FindHouseholdByName(_ context.Context, name string) (*census.Household, error) {
	want := fold(strings.TrimSpace(name))
	if want == "" {
		return nil, nil
	}
	var found *census.Household
	for _, h := range s.households {
		if fold(h.Name.Primary) == want && (found == nil || h.ID < found.ID) {
			h := h
			found = &h
		}
	}
	return found, nil
}

func (s *state) SetHouseholdKey(_ context.Context, id census.HouseholdID, key census.HouseholdKey) error {
	h, ok := s.households[id]
	if !ok {
		return census.ErrNotFound
	}
	if other, ok := s.householdKeys[key]; ok && other != id {
		return census.ErrDuplicateHousehold
	}
	delete(s.householdKeys, h.Key)
	h.Key = key
	s.households[id] = h
	s.householdKeys[key] = id
	return nil
}

func (s *state) FindHouse(_ context.Context, household census.HouseholdID) (*census.House, error) {
	h, ok := s.houses[household]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (s *state) SaveHouse(_ context.Context, h *census.House) error {
	if _, ok := s.households[h.HouseholdID]; !ok {
		return census.ErrNotFound
	}
	if h.ID == 0 {
		h.ID = census.HouseID(s.id())
	}
	s.houses[h.HouseholdID] = *h
	return nil
}

func (s *state) ResidentsInHousehold(_ context.Context, id census.HouseholdID, age *int) ([]census.Resident, error) {
	var out []census.Resident
	for _, r := range s.residents {
		if r.HouseholdID == nil || *r.HouseholdID != id {
			continue
		}
		if age != nil && (r.Age == nil || *r.Age != *age) {
			continue
		}
		out = append(out, r)
	}
	sortResidents(out)
	return out, nil
}

func (s *state) FindResidentInBooth(_ context.Context, booth string, field census.ResidentField, value string) (*census.Resident, error) {
	var found *census.Resident
	for _, r := range s.residents {
		if r.PollingBooth != booth || identifier(r, field) != value {
			continue
		}
		if found == nil || r.ID < found.ID {
			r := r
			found = &r
		}
	}
	return found, nil
}

func (s *state) FindResidentsByIdentifier(_ context.Context, field census.ResidentField, value string) ([]census.Resident, error) {
	var out []census.Resident
	for _, r := range s.residents {
		if value != "" && identifier(r, field) == value {
			out = append(out, r)
		}
	}
	sortResidents(out)
	return out, nil
}

func (s *state) CreateResident(_ context.Context, r *census.Resident) error {
	r.ID = census.ResidentID(s.id())
	s.residents[r.ID] = *r
	return nil
}

func (s *state) UpdateResident(_ context.Context, r census.Resident, fields ...census.ResidentField) error {
	cur, ok := s.residents[r.ID]
	if !ok {
		return census.ErrNotFound
	}
	for _, f := range fields {
		switch f {
		case census.FieldName:
			cur.Name = r.Name
		case census.FieldGuardian:
			cur.Guardian = r.Guardian
		case census.FieldVoterID:
			cur.Identifiers.VoterID = r.Identifiers.VoterID
		case census.FieldRollSEC:
			cur.Identifiers.RollSEC = r.Identifiers.RollSEC
		case census.FieldRollECI:
			cur.Identifiers.RollECI = r.Identifiers.RollECI
		case census.FieldEpicID:
			cur.Identifiers.EpicID = r.Identifiers.EpicID
		case census.FieldHasElectionID:
			cur.HasElectionID = r.HasElectionID
		case census.FieldPollingBooth:
			cur.PollingBooth = r.PollingBooth
		}
	}
	s.residents[r.ID] = cur
	return nil
}

func (s *state) GetOrCreateVariant(_ context.Context, v census.NameVariant) (census.NameVariant, bool, error) {
	k := variantKey{ResidentID: v.ResidentID, Normalized: v.Normalized}
	if id, ok := s.variantKeys[k]; ok {
		return s.variants[id], false, nil
	}
	s.insertVariant(&v)
	return v, true, nil
}

func (s *state) CreateVariant(_ context.Context, v *census.NameVariant) error {
	k := variantKey{ResidentID: v.ResidentID, Normalized: v.Normalized}
	if _, ok := s.variantKeys[k]; ok {
		return census.ErrDuplicateVariant
	}
	s.insertVariant(v)
	return nil
}

func (s *state) insertVariant(v *census.NameVariant) {
	v.ID = s.id()
	v.CreatedAt = time.Now().UTC()
	s.variants[v.ID] = *v
	s.variantKeys[variantKey{ResidentID: v.ResidentID, Normalized: v.Normalized}] = v.ID
}

func (s *state) ListVariants(_ context.Context, id census.ResidentID) ([]census.NameVariant, error) {
	var out []census.NameVariant
	for _, v := range s.variants {
		if v.ResidentID == id {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *state) CreateEducation(_ context.Context, e *census.Education) error {
	e.ID = s.id()
	s.educations[e.ID] = *e
	return nil
}

func (s *state) RecountHousehold(_ context.Context, id census.HouseholdID) error {
	h, ok := s.households[id]
	if !ok {
		return census.ErrNotFound
	}
	h.TotalMembers, h.TotalVoters = 0, 0
	for _, r := range s.residents {
		if r.HouseholdID != nil && *r.HouseholdID == id {
			h.TotalMembers++
			if r.HasElectionID {
				h.TotalVoters++
			}
		}
	}
	s.households[id] = h
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func identifier(r census.Resident, field census.ResidentField) string {
	switch field {
	case census.FieldVoterID:
		return r.Identifiers.VoterID
	case census.FieldRollSEC:
		return r.Identifiers.RollSEC
	case census.FieldRollECI:
		return r.Identifiers.RollECI
	case census.FieldEpicID:
		return r.Identifiers.EpicID
	}
	return ""
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func sortResidents(rs []census.Resident) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}
