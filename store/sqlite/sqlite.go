/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements census.TxStore plus the read side used by the HTTP API
  (household and resident listings, import run history).

INTERFACES IMPLEMENTED:
  census.Store:   Everything one import row touches
  census.TxStore: Row-level transactions

KEY TABLES:
  clusters:      Neighbourhood groupings (English + Malayalam names)
  wards:         Reference data, never written by imports
  households:    Unique on (house_number, house_sub)
  houses:        House survey, at most one per household
  residents:     One row per tracked individual
  name_variants: Unique on (resident_id, normalized_name)
  educations:    Education entries per resident
  import_runs:   History of import batches and their summaries

CONCURRENCY:
  The pool is limited to a single connection, so statements and
  transactions are serialized by database/sql itself. The RWMutex only
  guards WithTx against concurrent API reads of partially written rows.
  Statements inside a transaction never take the mutex.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on.

USAGE:
  store, err := sqlite.New("./data/census.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := census.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - census/store.go: Interface definitions
  - census/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/importer"
)

// Store implements census.TxStore using SQLite.
type Store struct {
	*queries
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ census.TxStore    = (*Store)(nil)
	_ importer.RunStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and shared.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, queries: &queries{db: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clusters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name_en TEXT NOT NULL,
		name_en_key TEXT NOT NULL,
		name_ml TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clusters_name_en_key ON clusters(name_en_key);
	CREATE INDEX IF NOT EXISTS idx_clusters_name_ml ON clusters(name_ml);

	CREATE TABLE IF NOT EXISTS wards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		constituency TEXT NOT NULL,
		constituency_key TEXT NOT NULL,
		district TEXT NOT NULL DEFAULT '',
		polling_booths_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_wards_constituency_key ON wards(constituency_key);

	CREATE TABLE IF NOT EXISTS households (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		house_number TEXT NOT NULL,
		house_sub TEXT NOT NULL DEFAULT '',
		name_en TEXT NOT NULL DEFAULT '',
		name_en_key TEXT NOT NULL DEFAULT '',
		name_ml TEXT NOT NULL DEFAULT '',
		cluster_id INTEGER REFERENCES clusters(id),
		total_members INTEGER NOT NULL DEFAULT 0,
		total_voters INTEGER NOT NULL DEFAULT 0,
		UNIQUE(house_number, house_sub)
	);

	CREATE INDEX IF NOT EXISTS idx_households_name_en_key ON households(name_en_key);

	CREATE TABLE IF NOT EXISTS houses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		household_id INTEGER NOT NULL UNIQUE REFERENCES households(id) ON DELETE CASCADE,
		cluster_id INTEGER REFERENCES clusters(id),
		owner_en TEXT NOT NULL,
		owner_ml TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		roll_no TEXT NOT NULL DEFAULT '',
		has_water_source INTEGER NOT NULL DEFAULT 0,
		water_source TEXT NOT NULL DEFAULT '',
		gas_connection INTEGER NOT NULL DEFAULT 0,
		biogas INTEGER NOT NULL DEFAULT 0,
		solar INTEGER NOT NULL DEFAULT 0,
		electricity INTEGER NOT NULL DEFAULT 0,
		refrigerator INTEGER NOT NULL DEFAULT 0,
		washing_machine INTEGER NOT NULL DEFAULT 0,
		house_type TEXT NOT NULL DEFAULT '',
		road_access TEXT NOT NULL DEFAULT '',
		waste_disposal TEXT NOT NULL DEFAULT '',
		agriculture INTEGER NOT NULL DEFAULT 0,
		agriculture_type TEXT NOT NULL DEFAULT '',
		livestock INTEGER NOT NULL DEFAULT 0,
		livestock_type TEXT NOT NULL DEFAULT '',
		livestock_count INTEGER,
		ration_card INTEGER NOT NULL DEFAULT 0,
		ration_card_number TEXT NOT NULL DEFAULT '',
		ration_card_category TEXT NOT NULL DEFAULT '',
		remark TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS residents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		household_id INTEGER REFERENCES households(id),
		ward_id INTEGER REFERENCES wards(id),
		name_en TEXT NOT NULL DEFAULT '',
		name_ml TEXT NOT NULL DEFAULT '',
		guardian_en TEXT NOT NULL DEFAULT '',
		guardian_ml TEXT NOT NULL DEFAULT '',
		guardian_relation TEXT NOT NULL DEFAULT '',
		owner_name TEXT NOT NULL DEFAULT '',
		family_name_common TEXT NOT NULL DEFAULT '',
		age INTEGER,
		gender TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT,
		phone TEXT NOT NULL DEFAULT '',
		religion TEXT NOT NULL DEFAULT '',
		caste TEXT NOT NULL DEFAULT '',
		blood_group TEXT NOT NULL DEFAULT '',
		marital_status TEXT NOT NULL DEFAULT '',
		job_status INTEGER NOT NULL DEFAULT 0,
		job_country TEXT NOT NULL DEFAULT '',
		monthly_income INTEGER,
		organization TEXT NOT NULL DEFAULT '',
		org_type TEXT NOT NULL DEFAULT '',
		political_party TEXT NOT NULL DEFAULT '',
		political_type TEXT NOT NULL DEFAULT '',
		pension INTEGER NOT NULL DEFAULT 0,
		pension_type TEXT NOT NULL DEFAULT '',
		disability INTEGER NOT NULL DEFAULT 0,
		health_insurance INTEGER NOT NULL DEFAULT 0,
		chronic_disease TEXT NOT NULL DEFAULT '',
		voter_id TEXT NOT NULL DEFAULT '',
		roll_sec TEXT NOT NULL DEFAULT '',
		roll_eci TEXT NOT NULL DEFAULT '',
		epic_id TEXT NOT NULL DEFAULT '',
		has_election_id INTEGER NOT NULL DEFAULT 0,
		polling_booth TEXT NOT NULL DEFAULT ''
	);

	-- Household candidate query (bulk import hot path)
	CREATE INDEX IF NOT EXISTS idx_residents_household_age ON residents(household_id, age);
	-- Corrective lookups are booth scoped
	CREATE INDEX IF NOT EXISTS idx_residents_booth ON residents(polling_booth);
	CREATE INDEX IF NOT EXISTS idx_residents_voter_id ON residents(voter_id);
	CREATE INDEX IF NOT EXISTS idx_residents_roll_sec ON residents(roll_sec);

	CREATE TABLE IF NOT EXISTS name_variants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		resident_id INTEGER NOT NULL REFERENCES residents(id) ON DELETE CASCADE,
		name_en TEXT NOT NULL DEFAULT '',
		name_ml TEXT NOT NULL DEFAULT '',
		normalized_name TEXT NOT NULL,
		member_name_en TEXT NOT NULL DEFAULT '',
		member_name_ml TEXT NOT NULL DEFAULT '',
		voter_id TEXT NOT NULL DEFAULT '',
		guardian_en TEXT NOT NULL DEFAULT '',
		guardian_ml TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		is_primary INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE(resident_id, normalized_name)
	);

	CREATE TABLE IF NOT EXISTS educations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		resident_id INTEGER NOT NULL REFERENCES residents(id) ON DELETE CASCADE,
		education TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		stream TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS import_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		filename TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		aliases INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_import_runs_started ON import_runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(census.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{db: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements census.Store against either the pool or a transaction.
type queries struct {
	db dbtx
}

var _ census.Store = (*queries)(nil)

// =============================================================================
// CLUSTERS / WARDS
// =============================================================================

func (q *queries) FindClusterByMalayalam(ctx context.Context, name string) (*census.Cluster, error) {
	return q.findCluster(ctx, `WHERE name_ml = ?`, name)
}

func (q *queries) FindClusterByEnglish(ctx context.Context, name string) (*census.Cluster, error) {
	return q.findCluster(ctx, `WHERE name_en_key = ?`, foldKey(name))
}

func (q *queries) findCluster(ctx context.Context, where string, arg any) (*census.Cluster, error) {
	query := `SELECT id, name_en, name_ml, created_at FROM clusters ` + where + ` ORDER BY id LIMIT 1`

	var c census.Cluster
	var createdAt string
	err := q.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Name.Primary, &c.Name.Secondary, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func (q *queries) CreateCluster(ctx context.Context, c *census.Cluster) error {
	c.CreatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO clusters (name_en, name_en_key, name_ml, created_at) VALUES (?, ?, ?, ?)`,
		c.Name.Primary, foldKey(c.Name.Primary), c.Name.Secondary, c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cluster: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = census.ClusterID(id)
	return nil
}

func (q *queries) SetClusterMalayalam(ctx context.Context, id census.ClusterID, name string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE clusters SET name_ml = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (q *queries) FindWard(ctx context.Context, constituency string) (*census.Ward, error) {
	query := `
		SELECT id, constituency, district, polling_booths_json
		FROM wards WHERE constituency_key = ?
		ORDER BY id LIMIT 1
	`
	var w census.Ward
	var booths string
	err := q.db.QueryRowContext(ctx, query, foldKey(constituency)).Scan(&w.ID, &w.Constituency, &w.District, &booths)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(booths), &w.PollingBooths)
	return &w, nil
}

// SaveWard inserts a ward (reference data) and sets its ID.
func (s *Store) SaveWard(ctx context.Context, w *census.Ward) error {
	booths, _ := json.Marshal(w.PollingBooths)
	if w.PollingBooths == nil {
		booths = []byte("[]")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO wards (constituency, constituency_key, district, polling_booths_json) VALUES (?, ?, ?, ?)`,
		w.Constituency, foldKey(w.Constituency), w.District, string(booths),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ward: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = census.WardID(id)
	return nil
}

// =============================================================================
// HOUSEHOLDS
// =============================================================================

const householdColumns = `id, house_number, house_sub, name_en, name_ml, cluster_id, total_members, total_voters`

func (q *queries) GetOrCreateHousehold(ctx context.Context, key census.HouseholdKey, defaults census.Household) (census.Household, bool, error) {
	h, err := q.getHousehold(ctx, `WHERE house_number = ? AND house_sub = ?`, key.Number, key.Sub)
	if err != nil {
		return census.Household{}, false, err
	}
	if h != nil {
		return *h, false, nil
	}

	created := defaults
	created.Key = key
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO households (house_number, house_sub, name_en, name_en_key, name_ml, cluster_id, total_members, total_voters)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, key.Number, key.Sub, created.Name.Primary, foldKey(created.Name.Primary), created.Name.Secondary, created.ClusterID,
		created.TotalMembers, created.TotalVoters)
	if err != nil {
		return census.Household{}, false, fmt.Errorf("failed to insert household: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return census.Household{}, false, err
	}
	created.ID = census.HouseholdID(id)
	return created, true, nil
}

func (q *queries) getHousehold(ctx context.Context, where string, args ...any) (*census.Household, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+householdColumns+` FROM households `+where, args...)
	h, err := scanHousehold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (q *queries) FindHouseholdByName(ctx context.Context, name string) (*census.Household, error) {
	return q.getHousehold(ctx, `WHERE name_en_key = ? AND name_en_key != '' ORDER BY id LIMIT 1`, foldKey(name))
}

func (q *queries) SetHouseholdKey(ctx context.Context, id census.HouseholdID, key census.HouseholdKey) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE households SET house_number = ?, house_sub = ? WHERE id = ?`, key.Number, key.Sub, id)
	if err != nil {
		if isUniqueConstraintError(err) {
			return census.ErrDuplicateHousehold
		}
		return fmt.Errorf("failed to update household: %w", err)
	}
	return requireAffected(res)
}

func (q *queries) RecountHousehold(ctx context.Context, id census.HouseholdID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE households SET
			total_members = (SELECT COUNT(*) FROM residents WHERE household_id = households.id),
			total_voters = (SELECT COUNT(*) FROM residents WHERE household_id = households.id AND has_election_id = 1)
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to recount household: %w", err)
	}
	return requireAffected(res)
}

// GetHousehold returns a household by ID.
func (s *Store) GetHousehold(ctx context.Context, id census.HouseholdID) (*census.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := s.getHousehold(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, census.ErrNotFound
	}
	return h, nil
}

// ListHouseholds returns households ordered by ID, optionally filtered by
// cluster.
func (s *Store) ListHouseholds(ctx context.Context, cluster *census.ClusterID) ([]census.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + householdColumns + ` FROM households`
	var args []any
	if cluster != nil {
		query += ` WHERE cluster_id = ?`
		args = append(args, *cluster)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []census.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// RecountAll recomputes member and voter counts of every household.
func (s *Store) RecountAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE households SET
			total_members = (SELECT COUNT(*) FROM residents WHERE household_id = households.id),
			total_voters = (SELECT COUNT(*) FROM residents WHERE household_id = households.id AND has_election_id = 1)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to recount households: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// HOUSES
// =============================================================================

const houseColumns = `id, household_id, cluster_id, owner_en, owner_ml, address, phone, roll_no,
	has_water_source, water_source, gas_connection, biogas, solar, electricity, refrigerator, washing_machine,
	house_type, road_access, waste_disposal, agriculture, agriculture_type, livestock, livestock_type, livestock_count,
	ration_card, ration_card_number, ration_card_category, remark`

func (q *queries) FindHouse(ctx context.Context, household census.HouseholdID) (*census.House, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+houseColumns+` FROM houses WHERE household_id = ?`, household)
	h, err := scanHouse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (q *queries) SaveHouse(ctx context.Context, h *census.House) error {
	args := []any{
		h.HouseholdID, h.ClusterID, h.Owner.Primary, h.Owner.Secondary, h.Address, h.Phone, h.RollNo,
		h.HasWaterSource, h.WaterSource, h.GasConnection, h.Biogas, h.Solar, h.Electricity, h.Refrigerator, h.WashingMachine,
		h.HouseType, h.RoadAccess, h.WasteDisposal, h.Agriculture, h.AgricultureType, h.Livestock, h.LivestockType, h.LivestockCount,
		h.RationCard, h.RationCardNumber, h.RationCardCategory, h.Remark,
	}

	if h.ID != 0 {
		res, err := q.db.ExecContext(ctx, `
			UPDATE houses SET
				household_id = ?, cluster_id = ?, owner_en = ?, owner_ml = ?, address = ?, phone = ?, roll_no = ?,
				has_water_source = ?, water_source = ?, gas_connection = ?, biogas = ?, solar = ?, electricity = ?,
				refrigerator = ?, washing_machine = ?, house_type = ?, road_access = ?, waste_disposal = ?,
				agriculture = ?, agriculture_type = ?, livestock = ?, livestock_type = ?, livestock_count = ?,
				ration_card = ?, ration_card_number = ?, ration_card_category = ?, remark = ?
			WHERE id = ?
		`, append(args, h.ID)...)
		if err != nil {
			return fmt.Errorf("failed to update house: %w", err)
		}
		return requireAffected(res)
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO houses (`+strings.TrimPrefix(houseColumns, "id, ")+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		if isForeignKeyError(err) {
			return census.ErrNotFound
		}
		return fmt.Errorf("failed to insert house: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = census.HouseID(id)
	return nil
}

// GetHouse returns the house survey of a household.
func (s *Store) GetHouse(ctx context.Context, household census.HouseholdID) (*census.House, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := s.FindHouse(ctx, household)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, census.ErrNotFound
	}
	return h, nil
}

// =============================================================================
// RESIDENTS
// =============================================================================

const residentColumns = `id, household_id, ward_id, name_en, name_ml, guardian_en, guardian_ml,
	guardian_relation, owner_name, family_name_common, age, gender, date_of_birth, phone,
	religion, caste, blood_group, marital_status, job_status, job_country, monthly_income,
	organization, org_type, political_party, political_type, pension, pension_type,
	disability, health_insurance, chronic_disease, voter_id, roll_sec, roll_eci, epic_id,
	has_election_id, polling_booth`

// identifierColumn maps a lookup field to its column. Only identifier
// fields are accepted, which keeps column names out of user input.
func identifierColumn(field census.ResidentField) (string, error) {
	switch field {
	case census.FieldVoterID, census.FieldRollSEC, census.FieldRollECI, census.FieldEpicID:
		return string(field), nil
	}
	return "", fmt.Errorf("unsupported lookup field %q", field)
}

func (q *queries) ResidentsInHousehold(ctx context.Context, id census.HouseholdID, age *int) ([]census.Resident, error) {
	if age != nil {
		return q.queryResidents(ctx, `WHERE household_id = ? AND age = ? ORDER BY id`, id, *age)
	}
	return q.queryResidents(ctx, `WHERE household_id = ? ORDER BY id`, id)
}

func (q *queries) FindResidentInBooth(ctx context.Context, booth string, field census.ResidentField, value string) (*census.Resident, error) {
	col, err := identifierColumn(field)
	if err != nil {
		return nil, err
	}
	rs, err := q.queryResidents(ctx, `WHERE polling_booth = ? AND `+col+` = ? ORDER BY id LIMIT 1`, booth, value)
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	return &rs[0], nil
}

func (q *queries) FindResidentsByIdentifier(ctx context.Context, field census.ResidentField, value string) ([]census.Resident, error) {
	col, err := identifierColumn(field)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	return q.queryResidents(ctx, `WHERE `+col+` = ? ORDER BY id`, value)
}

func (q *queries) queryResidents(ctx context.Context, where string, args ...any) ([]census.Resident, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+residentColumns+` FROM residents `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []census.Resident
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *queries) CreateResident(ctx context.Context, r *census.Resident) error {
	var dob *string
	if r.DateOfBirth != nil {
		d := r.DateOfBirth.Format(time.DateOnly)
		dob = &d
	}

	query := `
		INSERT INTO residents (` + strings.TrimPrefix(residentColumns, "id, ") + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := q.db.ExecContext(ctx, query,
		r.HouseholdID, r.WardID,
		r.Name.Primary, r.Name.Secondary, r.Guardian.Primary, r.Guardian.Secondary,
		r.GuardianRelation, r.OwnerName, r.FamilyNameCommon,
		r.Age, r.Gender, dob, r.Phone,
		r.Religion, r.Caste, r.BloodGroup, r.MaritalStatus,
		r.JobStatus, r.JobCountry, r.MonthlyIncome,
		r.Organization, r.OrgType, r.PoliticalParty, r.PoliticalType,
		r.Pension, r.PensionType, r.Disability, r.HealthInsurance, r.ChronicDisease,
		r.Identifiers.VoterID, r.Identifiers.RollSEC, r.Identifiers.RollECI, r.Identifiers.EpicID,
		r.HasElectionID, r.PollingBooth,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resident: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = census.ResidentID(id)
	return nil
}

func (q *queries) UpdateResident(ctx context.Context, r census.Resident, fields ...census.ResidentField) error {
	if len(fields) == 0 {
		return nil
	}

	var sets []string
	var args []any
	for _, f := range fields {
		switch f {
		case census.FieldName:
			sets = append(sets, "name_en = ?", "name_ml = ?")
			args = append(args, r.Name.Primary, r.Name.Secondary)
		case census.FieldGuardian:
			sets = append(sets, "guardian_en = ?", "guardian_ml = ?")
			args = append(args, r.Guardian.Primary, r.Guardian.Secondary)
		case census.FieldVoterID:
			sets = append(sets, "voter_id = ?")
			args = append(args, r.Identifiers.VoterID)
		case census.FieldRollSEC:
			sets = append(sets, "roll_sec = ?")
			args = append(args, r.Identifiers.RollSEC)
		case census.FieldRollECI:
			sets = append(sets, "roll_eci = ?")
			args = append(args, r.Identifiers.RollECI)
		case census.FieldEpicID:
			sets = append(sets, "epic_id = ?")
			args = append(args, r.Identifiers.EpicID)
		case census.FieldHasElectionID:
			sets = append(sets, "has_election_id = ?")
			args = append(args, r.HasElectionID)
		case census.FieldPollingBooth:
			sets = append(sets, "polling_booth = ?")
			args = append(args, r.PollingBooth)
		default:
			return fmt.Errorf("unsupported update field %q", f)
		}
	}
	args = append(args, r.ID)

	res, err := q.db.ExecContext(ctx, `UPDATE residents SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update resident: %w", err)
	}
	return requireAffected(res)
}

// GetResident returns a resident by ID.
func (s *Store) GetResident(ctx context.Context, id census.ResidentID) (*census.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, err := s.queryResidents(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, census.ErrNotFound
	}
	return &rs[0], nil
}

// ListResidents returns the residents of a household ordered by ID.
func (s *Store) ListResidents(ctx context.Context, household census.HouseholdID) ([]census.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ResidentsInHousehold(ctx, household, nil)
}

// =============================================================================
// NAME VARIANTS / EDUCATION
// =============================================================================

const variantColumns = `id, resident_id, name_en, name_ml, normalized_name, member_name_en, member_name_ml,
	voter_id, guardian_en, guardian_ml, source, is_primary, created_at`

func (q *queries) GetOrCreateVariant(ctx context.Context, v census.NameVariant) (census.NameVariant, bool, error) {
	existing, err := q.queryVariants(ctx, `WHERE resident_id = ? AND normalized_name = ?`, v.ResidentID, v.Normalized)
	if err != nil {
		return census.NameVariant{}, false, err
	}
	if len(existing) > 0 {
		return existing[0], false, nil
	}
	if err := q.CreateVariant(ctx, &v); err != nil {
		return census.NameVariant{}, false, err
	}
	return v, true, nil
}

func (q *queries) CreateVariant(ctx context.Context, v *census.NameVariant) error {
	v.CreatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO name_variants (`+strings.TrimPrefix(variantColumns, "id, ")+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.ResidentID, v.Name.Primary, v.Name.Secondary, v.Normalized,
		v.MemberName.Primary, v.MemberName.Secondary, v.VoterID,
		v.Guardian.Primary, v.Guardian.Secondary,
		v.Source, v.IsPrimary, v.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return census.ErrDuplicateVariant
		}
		return fmt.Errorf("failed to insert name variant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func (q *queries) ListVariants(ctx context.Context, id census.ResidentID) ([]census.NameVariant, error) {
	return q.queryVariants(ctx, `WHERE resident_id = ? ORDER BY id`, id)
}

func (q *queries) queryVariants(ctx context.Context, where string, args ...any) ([]census.NameVariant, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+variantColumns+` FROM name_variants `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []census.NameVariant
	for rows.Next() {
		var v census.NameVariant
		var createdAt string
		if err := rows.Scan(
			&v.ID, &v.ResidentID, &v.Name.Primary, &v.Name.Secondary, &v.Normalized,
			&v.MemberName.Primary, &v.MemberName.Secondary, &v.VoterID,
			&v.Guardian.Primary, &v.Guardian.Secondary, &v.Source, &v.IsPrimary, &createdAt,
		); err != nil {
			return nil, err
		}
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (q *queries) CreateEducation(ctx context.Context, e *census.Education) error {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO educations (resident_id, education, status, stream) VALUES (?, ?, ?, ?)`,
		e.ResidentID, e.Education, e.Status, e.Stream,
	)
	if err != nil {
		return fmt.Errorf("failed to insert education: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListEducations returns a resident's education entries ordered by ID.
func (s *Store) ListEducations(ctx context.Context, id census.ResidentID) ([]census.Education, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resident_id, education, status, stream FROM educations WHERE resident_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []census.Education
	for rows.Next() {
		var e census.Education
		if err := rows.Scan(&e.ID, &e.ResidentID, &e.Education, &e.Status, &e.Stream); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// IMPORT RUNS
// =============================================================================

// SaveImportRun inserts or updates an import run.
func (s *Store) SaveImportRun(ctx context.Context, r importer.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO import_runs (id, kind, filename, status, created, updated, skipped, failed,
			aliases, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			created = excluded.created,
			updated = excluded.updated,
			skipped = excluded.skipped,
			failed = excluded.failed,
			aliases = excluded.aliases,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if r.CompletedAt != nil {
		c := r.CompletedAt.Format(time.RFC3339)
		completedAt = &c
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Kind, r.Filename, r.Status,
		r.Created, r.Updated, r.Skipped, r.Failed, r.Aliases, r.Error,
		r.StartedAt.Format(time.RFC3339), completedAt,
	)
	return err
}

// ListImportRuns returns import runs, newest first. An empty kind lists all.
func (s *Store) ListImportRuns(ctx context.Context, kind string, limit int) ([]importer.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, kind, filename, status, created, updated, skipped, failed,
			aliases, error, started_at, completed_at
		FROM import_runs
	`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []importer.ImportRun
	for rows.Next() {
		var r importer.ImportRun
		var startedAt string
		var completedAt sql.NullString
		if err := rows.Scan(
			&r.ID, &r.Kind, &r.Filename, &r.Status,
			&r.Created, &r.Updated, &r.Skipped, &r.Failed, &r.Aliases, &r.Error,
			&startedAt, &completedAt,
		); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// SCANNING
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanHousehold(row scanner) (census.Household, error) {
	var h census.Household
	var cluster sql.NullInt64
	if err := row.Scan(
		&h.ID, &h.Key.Number, &h.Key.Sub, &h.Name.Primary, &h.Name.Secondary,
		&cluster, &h.TotalMembers, &h.TotalVoters,
	); err != nil {
		return census.Household{}, err
	}
	if cluster.Valid {
		id := census.ClusterID(cluster.Int64)
		h.ClusterID = &id
	}
	return h, nil
}

func scanHouse(row scanner) (census.House, error) {
	var h census.House
	var cluster, livestock sql.NullInt64
	if err := row.Scan(
		&h.ID, &h.HouseholdID, &cluster, &h.Owner.Primary, &h.Owner.Secondary, &h.Address, &h.Phone, &h.RollNo,
		&h.HasWaterSource, &h.WaterSource, &h.GasConnection, &h.Biogas, &h.Solar, &h.Electricity, &h.Refrigerator, &h.WashingMachine,
		&h.HouseType, &h.RoadAccess, &h.WasteDisposal, &h.Agriculture, &h.AgricultureType, &h.Livestock, &h.LivestockType, &livestock,
		&h.RationCard, &h.RationCardNumber, &h.RationCardCategory, &h.Remark,
	); err != nil {
		return census.House{}, err
	}
	if cluster.Valid {
		id := census.ClusterID(cluster.Int64)
		h.ClusterID = &id
	}
	if livestock.Valid {
		n := int(livestock.Int64)
		h.LivestockCount = &n
	}
	return h, nil
}

func scanResident(row scanner) (census.Resident, error) {
	var r census.Resident
	var household, ward, age, income sql.NullInt64
	var dob sql.NullString
	if err := row.Scan(
		&r.ID, &household, &ward,
		&r.Name.Primary, &r.Name.Secondary, &r.Guardian.Primary, &r.Guardian.Secondary,
		&r.GuardianRelation, &r.OwnerName, &r.FamilyNameCommon,
		&age, &r.Gender, &dob, &r.Phone,
		&r.Religion, &r.Caste, &r.BloodGroup, &r.MaritalStatus,
		&r.JobStatus, &r.JobCountry, &income,
		&r.Organization, &r.OrgType, &r.PoliticalParty, &r.PoliticalType,
		&r.Pension, &r.PensionType, &r.Disability, &r.HealthInsurance, &r.ChronicDisease,
		&r.Identifiers.VoterID, &r.Identifiers.RollSEC, &r.Identifiers.RollECI, &r.Identifiers.EpicID,
		&r.HasElectionID, &r.PollingBooth,
	); err != nil {
		return census.Resident{}, err
	}
	if household.Valid {
		id := census.HouseholdID(household.Int64)
		r.HouseholdID = &id
	}
	if ward.Valid {
		id := census.WardID(ward.Int64)
		r.WardID = &id
	}
	if age.Valid {
		a := int(age.Int64)
		r.Age = &a
	}
	if income.Valid {
		r.MonthlyIncome = &income.Int64
	}
	if dob.Valid {
		if t, err := time.Parse(time.DateOnly, dob.String); err == nil {
			r.DateOfBirth = &t
		}
	}
	return r, nil
}

// Helper functions

func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return census.ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
