/*
store.go - Persistence interface for households, residents and variants

PURPOSE:
  Defines the boundary between the reconciliation engine and durable
  storage. The engine needs three kinds of operation only:
  - get-or-create by natural key (household, variant)
  - filter by field (household candidates, booth + identifier lookups)
  - save with specified fields (corrective updates)

KEY INTERFACES:
  Store:   Everything one import row touches
  TxStore: Store plus row-level transactions

LOOKUP CONVENTION:
  Find* methods return (nil, nil) when nothing matches. A missing record
  is an ordinary outcome for an import, not an error.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite (production)
  - census/store/memory.go: In-memory (tests)

SEE ALSO:
  - engine.go: Drives a Store one row at a time
*/
package census

import "context"

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// FindClusterByMalayalam matches the Malayalam name exactly.
	FindClusterByMalayalam(ctx context.Context, name string) (*Cluster, error)

	// FindClusterByEnglish matches the English name case-insensitively.
	FindClusterByEnglish(ctx context.Context, name string) (*Cluster, error)

	// CreateCluster inserts c and sets its ID.
	CreateCluster(ctx context.Context, c *Cluster) error

	// SetClusterMalayalam sets the Malayalam name of a cluster.
	SetClusterMalayalam(ctx context.Context, id ClusterID, name string) error

	// FindWard matches a ward by constituency, case-insensitively.
	FindWard(ctx context.Context, constituency string) (*Ward, error)

	// GetOrCreateHousehold returns the household with key, creating it
	// from defaults when absent. created reports which happened.
	GetOrCreateHousehold(ctx context.Context, key HouseholdKey, defaults Household) (h Household, created bool, err error)

	// FindHouseholdByName returns the lowest-ID household whose English
	// name matches, case-insensitively.
	FindHouseholdByName(ctx context.Context, name string) (*Household, error)

	// SetHouseholdKey moves a household to a new house number. Returns
	// ErrDuplicateHousehold when another household holds key.
	SetHouseholdKey(ctx context.Context, id HouseholdID, key HouseholdKey) error

	// FindHouse returns the house survey of a household.
	FindHouse(ctx context.Context, household HouseholdID) (*House, error)

	// SaveHouse inserts h when h.ID is zero (setting it) and replaces
	// every column otherwise.
	SaveHouse(ctx context.Context, h *House) error

	// ResidentsInHousehold lists residents of a household ordered by ID.
	// A non-nil age narrows the list to residents of exactly that age.
	ResidentsInHousehold(ctx context.Context, id HouseholdID, age *int) ([]Resident, error)

	// FindResidentInBooth returns the lowest-ID resident in booth whose
	// identifier field equals value.
	FindResidentInBooth(ctx context.Context, booth string, field ResidentField, value string) (*Resident, error)

	// FindResidentsByIdentifier lists residents, in any booth, whose
	// identifier field equals value.
	FindResidentsByIdentifier(ctx context.Context, field ResidentField, value string) ([]Resident, error)

	// CreateResident inserts r and sets its ID.
	CreateResident(ctx context.Context, r *Resident) error

	// UpdateResident writes only the named fields of r.
	UpdateResident(ctx context.Context, r Resident, fields ...ResidentField) error

	// GetOrCreateVariant returns the variant keyed by (v.ResidentID,
	// v.Normalized), inserting v when absent. Existing variants are
	// returned untouched.
	GetOrCreateVariant(ctx context.Context, v NameVariant) (variant NameVariant, created bool, err error)

	// CreateVariant inserts v and sets its ID. Returns ErrDuplicateVariant
	// when the (resident, normalized) pair exists.
	CreateVariant(ctx context.Context, v *NameVariant) error

	// ListVariants lists a resident's variants ordered by ID.
	ListVariants(ctx context.Context, id ResidentID) ([]NameVariant, error)

	// CreateEducation inserts e and sets its ID.
	CreateEducation(ctx context.Context, e *Education) error

	// RecountHousehold recomputes the cached member and voter counts.
	RecountHousehold(ctx context.Context, id HouseholdID) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support. The engine runs each
// import row inside WithTx; there is no batch-level transaction.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
