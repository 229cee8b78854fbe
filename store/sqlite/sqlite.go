/*
Package sqlite provides a SQLite-backed commission.RecordStore.

PURPOSE:
  Persists the records the report engine consumes: agents, properties,
  door-knock and phone-call activities, and marketing plans with their
  street targets. The engine itself is stateless; this is where the
  service keeps imported and demo data between restarts.

KEY TABLES:
  agents:          Directory used to resolve activity/plan agent IDs
  properties:      Listings with price, sold price and commission rate
  activities:      One row per door-knock or phone-call session
  marketing_plans: Agent + suburb + date range
  plan_targets:    Street targets, kind = door_knock | phone_call

ORDERING:
  Every load is ORDER BY rowid. Upserts (ON CONFLICT DO UPDATE) keep the
  original rowid, so a record keeps its first-insertion position and
  bucket order is stable across reloads.

NULLS:
  sold_price, commission_rate and sold_date are nullable; absence changes
  how commission is calculated. Every other numeric column defaults to 0.
  Dates are stored as RFC3339 text, '' for unknown.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SaveRecords runs in one SQL
  transaction so an import is all-or-nothing.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/reports.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  records, err := store.LoadRecords(ctx)
  report := commission.ComputeReport(records, filter)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - commission/store.go: RecordStore interface
  - generic/store/memory.go: In-memory implementation for testing
  - store/postgres: read-only source against the hosted backend
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/generic"
)

// Store implements commission.RecordStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
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

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		agency TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		agency TEXT NOT NULL DEFAULT '',
		agent TEXT NOT NULL DEFAULT '',
		suburb TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		listing_price REAL NOT NULL DEFAULT 0,
		sold_price REAL,
		commission_rate REAL,
		category TEXT NOT NULL DEFAULT 'Listing',
		contract_status TEXT NOT NULL DEFAULT '',
		listed_date TEXT NOT NULL DEFAULT '',
		sold_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_properties_agency
		ON properties(agency);
	CREATE INDEX IF NOT EXISTS idx_properties_listed_date
		ON properties(listed_date);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		date TEXT NOT NULL DEFAULT '',
		street_name TEXT NOT NULL DEFAULT '',
		suburb TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		calls_made INTEGER NOT NULL DEFAULT 0,
		calls_connected INTEGER NOT NULL DEFAULT 0,
		knocks_made INTEGER NOT NULL DEFAULT 0,
		knocks_answered INTEGER NOT NULL DEFAULT 0,
		desktop_appraisals INTEGER NOT NULL DEFAULT 0,
		face_to_face_appraisals INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activities_agent_date
		ON activities(agent_id, date);

	CREATE TABLE IF NOT EXISTS marketing_plans (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL DEFAULT '',
		suburb TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plan_targets (
		plan_id TEXT NOT NULL REFERENCES marketing_plans(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('door_knock', 'phone_call')),
		position INTEGER NOT NULL,
		street_name TEXT NOT NULL DEFAULT '',
		target_knocks INTEGER NOT NULL DEFAULT 0,
		target_calls INTEGER NOT NULL DEFAULT 0,
		target_connects INTEGER NOT NULL DEFAULT 0,
		desktop_appraisals INTEGER NOT NULL DEFAULT 0,
		face_to_face_appraisals INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (plan_id, kind, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITES
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveRecords upserts all records in a single transaction. Records with an
// empty ID are rejected.
func (s *Store) SaveRecords(ctx context.Context, r commission.Records) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, a := range r.Agents {
		if err := saveAgent(ctx, sqlTx, a, now); err != nil {
			return err
		}
	}
	for _, p := range r.Properties {
		if err := saveProperty(ctx, sqlTx, p, now); err != nil {
			return err
		}
	}
	for _, a := range r.Activities {
		if err := saveActivity(ctx, sqlTx, a, now); err != nil {
			return err
		}
	}
	for _, p := range r.Plans {
		if err := savePlan(ctx, sqlTx, p, now); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return &generic.ValidationError{Field: kind + ".id", Reason: "must not be empty", Err: generic.ErrInvalidRecord}
	}
	return nil
}

func saveAgent(ctx context.Context, db execer, a commission.Agent, now string) error {
	if err := requireID("agent", a.ID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO agents (id, name, agency, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			agency = excluded.agency
	`, a.ID, a.Name, a.Agency, now)
	if err != nil {
		return fmt.Errorf("failed to save agent %s: %w", a.ID, err)
	}
	return nil
}

func saveProperty(ctx context.Context, db execer, p commission.Property, now string) error {
	if err := requireID("property", p.ID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO properties
		(id, agency, agent, suburb, address, listing_price, sold_price, commission_rate,
		 category, contract_status, listed_date, sold_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agency = excluded.agency,
			agent = excluded.agent,
			suburb = excluded.suburb,
			address = excluded.address,
			listing_price = excluded.listing_price,
			sold_price = excluded.sold_price,
			commission_rate = excluded.commission_rate,
			category = excluded.category,
			contract_status = excluded.contract_status,
			listed_date = excluded.listed_date,
			sold_date = excluded.sold_date
	`,
		p.ID, p.Agency, p.Agent, p.Suburb, p.Address,
		generic.Float(p.ListingPrice),
		nullFloat(p.SoldPrice),
		nullFloat(p.CommissionRate),
		string(p.Category), p.ContractStatus,
		formatDate(p.ListedDate),
		nullDate(p.SoldDate),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save property %s: %w", p.ID, err)
	}
	return nil
}

func saveActivity(ctx context.Context, db execer, a commission.Activity, now string) error {
	if err := requireID("activity", a.ID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO activities
		(id, agent_id, type, date, street_name, suburb, status,
		 calls_made, calls_connected, knocks_made, knocks_answered,
		 desktop_appraisals, face_to_face_appraisals, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			type = excluded.type,
			date = excluded.date,
			street_name = excluded.street_name,
			suburb = excluded.suburb,
			status = excluded.status,
			calls_made = excluded.calls_made,
			calls_connected = excluded.calls_connected,
			knocks_made = excluded.knocks_made,
			knocks_answered = excluded.knocks_answered,
			desktop_appraisals = excluded.desktop_appraisals,
			face_to_face_appraisals = excluded.face_to_face_appraisals
	`,
		a.ID, a.AgentID, string(a.Type), formatDate(a.Date), a.StreetName, a.Suburb, string(a.Status),
		a.CallsMade, a.CallsConnected, a.KnocksMade, a.KnocksAnswered,
		a.DesktopAppraisals, a.FaceToFaceAppraisals, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity %s: %w", a.ID, err)
	}
	return nil
}

func savePlan(ctx context.Context, db execer, p commission.MarketingPlan, now string) error {
	if err := requireID("marketing_plan", p.ID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO marketing_plans (id, agent_id, suburb, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			suburb = excluded.suburb,
			start_date = excluded.start_date,
			end_date = excluded.end_date
	`, p.ID, p.AgentID, p.Suburb, formatDate(p.Start), formatDate(p.End), now)
	if err != nil {
		return fmt.Errorf("failed to save marketing plan %s: %w", p.ID, err)
	}

	// Targets are replaced wholesale.
	if _, err := db.ExecContext(ctx, "DELETE FROM plan_targets WHERE plan_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear targets for plan %s: %w", p.ID, err)
	}

	insert := `
		INSERT INTO plan_targets
		(plan_id, kind, position, street_name, target_knocks, target_calls, target_connects,
		 desktop_appraisals, face_to_face_appraisals)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, t := range p.DoorKnocks {
		if _, err := db.ExecContext(ctx, insert,
			p.ID, commission.ActivityDoorKnock, i, t.StreetName, t.Knocks, 0, 0,
			t.DesktopAppraisals, t.FaceToFaceAppraisals,
		); err != nil {
			return fmt.Errorf("failed to save door-knock target for plan %s: %w", p.ID, err)
		}
	}
	for i, t := range p.PhoneCalls {
		if _, err := db.ExecContext(ctx, insert,
			p.ID, commission.ActivityPhoneCall, i, t.StreetName, 0, t.Calls, t.Connects,
			t.DesktopAppraisals, t.FaceToFaceAppraisals,
		); err != nil {
			return fmt.Errorf("failed to save phone-call target for plan %s: %w", p.ID, err)
		}
	}
	return nil
}

// =============================================================================
// READS (commission.RecordSource interface)
// =============================================================================

// LoadRecords returns every stored record in insertion order.
func (s *Store) LoadRecords(ctx context.Context) (commission.Records, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		r   commission.Records
		err error
	)
	if r.Agents, err = s.loadAgents(ctx); err != nil {
		return commission.Records{}, err
	}
	if r.Properties, err = s.loadProperties(ctx); err != nil {
		return commission.Records{}, err
	}
	if r.Activities, err = s.loadActivities(ctx); err != nil {
		return commission.Records{}, err
	}
	if r.Plans, err = s.loadPlans(ctx); err != nil {
		return commission.Records{}, err
	}
	return r, nil
}

func (s *Store) loadAgents(ctx context.Context) ([]commission.Agent, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, agency FROM agents ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	agents := []commission.Agent{}
	for rows.Next() {
		var a commission.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Agency); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *Store) loadProperties(ctx context.Context) ([]commission.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agency, agent, suburb, address, listing_price, sold_price, commission_rate,
		       category, contract_status, listed_date, sold_date
		FROM properties
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	properties := []commission.Property{}
	for rows.Next() {
		var (
			p          commission.Property
			soldPrice  sql.NullFloat64
			rate       sql.NullFloat64
			category   string
			listedDate string
			soldDate   sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &p.Agency, &p.Agent, &p.Suburb, &p.Address, &p.ListingPrice,
			&soldPrice, &rate, &category, &p.ContractStatus, &listedDate, &soldDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		p.Category = commission.Category(category)
		p.SoldPrice = floatPtr(soldPrice)
		p.CommissionRate = floatPtr(rate)
		p.ListedDate, _ = generic.ParseDate(listedDate)
		if d, ok := generic.ParseDate(soldDate.String); ok {
			p.SoldDate = &d
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (s *Store) loadActivities(ctx context.Context) ([]commission.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, type, date, street_name, suburb, status,
		       calls_made, calls_connected, knocks_made, knocks_answered,
		       desktop_appraisals, face_to_face_appraisals
		FROM activities
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []commission.Activity{}
	for rows.Next() {
		var (
			a           commission.Activity
			typ, status string
			date        string
		)
		if err := rows.Scan(
			&a.ID, &a.AgentID, &typ, &date, &a.StreetName, &a.Suburb, &status,
			&a.CallsMade, &a.CallsConnected, &a.KnocksMade, &a.KnocksAnswered,
			&a.DesktopAppraisals, &a.FaceToFaceAppraisals,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Type = commission.ActivityType(typ)
		a.Status = commission.ActivityStatus(status)
		a.Date, _ = generic.ParseDate(date)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Store) loadPlans(ctx context.Context) ([]commission.MarketingPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, agent_id, suburb, start_date, end_date FROM marketing_plans ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query marketing plans: %w", err)
	}
	plans := []commission.MarketingPlan{}
	index := make(map[string]int)
	for rows.Next() {
		var p commission.MarketingPlan
		var start, end string
		if err := rows.Scan(&p.ID, &p.AgentID, &p.Suburb, &start, &end); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan marketing plan: %w", err)
		}
		p.Start, _ = generic.ParseDate(start)
		p.End, _ = generic.ParseDate(end)
		index[p.ID] = len(plans)
		plans = append(plans, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	targets, err := s.db.QueryContext(ctx, `
		SELECT plan_id, kind, street_name, target_knocks, target_calls, target_connects,
		       desktop_appraisals, face_to_face_appraisals
		FROM plan_targets
		ORDER BY plan_id, kind, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan targets: %w", err)
	}
	defer targets.Close()

	for targets.Next() {
		var (
			planID, kind, street                 string
			knocks, calls, connects, desk, faceT int
		)
		if err := targets.Scan(&planID, &kind, &street, &knocks, &calls, &connects, &desk, &faceT); err != nil {
			return nil, fmt.Errorf("failed to scan plan target: %w", err)
		}
		i, ok := index[planID]
		if !ok {
			continue
		}
		switch commission.ActivityType(kind) {
		case commission.ActivityDoorKnock:
			plans[i].DoorKnocks = append(plans[i].DoorKnocks, commission.DoorKnockTarget{
				StreetName: street, Knocks: knocks, DesktopAppraisals: desk, FaceToFaceAppraisals: faceT,
			})
		case commission.ActivityPhoneCall:
			plans[i].PhoneCalls = append(plans[i].PhoneCalls, commission.PhoneCallTarget{
				StreetName: street, Calls: calls, Connects: connects, DesktopAppraisals: desk, FaceToFaceAppraisals: faceT,
			})
		}
	}
	return plans, targets.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"plan_targets", "marketing_plans", "activities", "properties", "agents"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: generic.Float(*f), Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}
