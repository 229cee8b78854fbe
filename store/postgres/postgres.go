/*
Package postgres reads report records straight from the hosted backend's
PostgreSQL database.

PURPOSE:
  The hosted backend owns the data: profiles, properties, door_knocks,
  phone_calls and marketing_plans. This source only reads. Rows go
  through the factory package so the same string/number/null coercion
  applies as for JSON imports.

EXPECTED TABLES:
  profiles(id, name, agency_name)
  properties(id, agency_name, agent_name, suburb, street_number, street_name,
             price, sold_price, commission, category, contract_status,
             listed_date, sold_date, created_at)
  door_knocks(id, agent_id, date, street_name, suburb, status,
              knocks_made, knocks_answered, desktop_appraisals,
              face_to_face_appraisals, created_at)
  phone_calls(id, agent_id, date, street_name, suburb, status,
              calls_made, calls_connected, desktop_appraisals,
              face_to_face_appraisals, created_at)
  marketing_plans(id, agent_id, suburb, start_date, end_date,
                  door_knock_streets jsonb, phone_call_streets jsonb, created_at)

  Every column is selected as text (::text) and scanned into
  sql.NullString. Numeric columns may be integer, numeric or text in the
  backend; the factory handles each.

SEE ALSO:
  - factory/records.go: coercion rules
  - store/sqlite: the writable local store
*/
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/factory"
)

// Source implements commission.RecordSource against PostgreSQL.
type Source struct {
	db      *sql.DB
	factory *factory.RecordFactory
}

// Open connects and pings, retrying while the database starts up.
func Open(ctx context.Context, dsn string) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	const attempts = 10
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		log.Printf("[Postgres] ping failed (attempt %d/%d): %v", i+1, attempts, err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return New(db), nil
}

// New wraps an open connection.
func New(db *sql.DB) *Source {
	return &Source{db: db, factory: factory.NewRecordFactory()}
}

func (s *Source) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// QUERIES
// =============================================================================

const (
	profilesQuery = `
		SELECT id::text, name::text, agency_name::text
		FROM profiles
		ORDER BY id`

	propertiesQuery = `
		SELECT id::text, agency_name::text, agent_name::text, suburb::text,
		       street_number::text, street_name::text,
		       price::text, sold_price::text, commission::text,
		       category::text, contract_status::text,
		       listed_date::text, sold_date::text
		FROM properties
		ORDER BY created_at, id`

	doorKnocksQuery = `
		SELECT id::text, agent_id::text, date::text, street_name::text, suburb::text, status::text,
		       knocks_made::text, knocks_answered::text,
		       desktop_appraisals::text, face_to_face_appraisals::text
		FROM door_knocks
		ORDER BY created_at, id`

	phoneCallsQuery = `
		SELECT id::text, agent_id::text, date::text, street_name::text, suburb::text, status::text,
		       calls_made::text, calls_connected::text,
		       desktop_appraisals::text, face_to_face_appraisals::text
		FROM phone_calls
		ORDER BY created_at, id`

	plansQuery = `
		SELECT id::text, agent_id::text, suburb::text, start_date::text, end_date::text,
		       door_knock_streets::text, phone_call_streets::text
		FROM marketing_plans
		ORDER BY created_at, id`
)

// LoadRecords reads every table. Door knocks precede phone calls in the
// activity list.
func (s *Source) LoadRecords(ctx context.Context) (commission.Records, error) {
	var rj factory.RecordsJSON

	err := s.each(ctx, profilesQuery, 3, func(c []sql.NullString) error {
		rj.Agents = append(rj.Agents, agentRow(c))
		return nil
	})
	if err != nil {
		return commission.Records{}, err
	}
	err = s.each(ctx, propertiesQuery, 13, func(c []sql.NullString) error {
		rj.Properties = append(rj.Properties, propertyRow(c))
		return nil
	})
	if err != nil {
		return commission.Records{}, err
	}
	err = s.each(ctx, doorKnocksQuery, 10, func(c []sql.NullString) error {
		rj.Activities = append(rj.Activities, doorKnockRow(c))
		return nil
	})
	if err != nil {
		return commission.Records{}, err
	}
	err = s.each(ctx, phoneCallsQuery, 10, func(c []sql.NullString) error {
		rj.Activities = append(rj.Activities, phoneCallRow(c))
		return nil
	})
	if err != nil {
		return commission.Records{}, err
	}
	err = s.each(ctx, plansQuery, 7, func(c []sql.NullString) error {
		p, err := planRow(c)
		if err != nil {
			return err
		}
		rj.Plans = append(rj.Plans, p)
		return nil
	})
	if err != nil {
		return commission.Records{}, err
	}

	return s.factory.FromJSON(rj)
}

// each runs query and hands every row, scanned as n nullable strings, to fn.
func (s *Source) each(ctx context.Context, query string, n int, fn func([]sql.NullString) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	cols := make([]sql.NullString, n)
	dest := make([]any, n)
	for i := range cols {
		dest[i] = &cols[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("postgres: scan row: %w", err)
		}
		if err := fn(cols); err != nil {
			return err
		}
	}
	return rows.Err()
}

// =============================================================================
// ROW MAPPING
// =============================================================================

func text(c sql.NullString) factory.Text {
	return factory.Text(c.String)
}

func number(c sql.NullString) factory.Number {
	if !c.Valid {
		return factory.Number{}
	}
	return factory.ParseNumber(c.String)
}

func agentRow(c []sql.NullString) factory.AgentJSON {
	return factory.AgentJSON{ID: text(c[0]), Name: text(c[1]), Agency: text(c[2])}
}

func propertyRow(c []sql.NullString) factory.PropertyJSON {
	return factory.PropertyJSON{
		ID:             text(c[0]),
		Agency:         text(c[1]),
		Agent:          text(c[2]),
		Suburb:         text(c[3]),
		StreetNumber:   text(c[4]),
		StreetName:     text(c[5]),
		Price:          number(c[6]),
		SoldPrice:      number(c[7]),
		Commission:     number(c[8]),
		Category:       text(c[9]),
		ContractStatus: text(c[10]),
		ListedDate:     text(c[11]),
		SoldDate:       text(c[12]),
	}
}

func doorKnockRow(c []sql.NullString) factory.ActivityJSON {
	return factory.ActivityJSON{
		ID:                   text(c[0]),
		AgentID:              text(c[1]),
		Type:                 factory.Text(commission.ActivityDoorKnock),
		Date:                 text(c[2]),
		StreetName:           text(c[3]),
		Suburb:               text(c[4]),
		Status:               text(c[5]),
		KnocksMade:           number(c[6]),
		KnocksAnswered:       number(c[7]),
		DesktopAppraisals:    number(c[8]),
		FaceToFaceAppraisals: number(c[9]),
	}
}

func phoneCallRow(c []sql.NullString) factory.ActivityJSON {
	return factory.ActivityJSON{
		ID:                   text(c[0]),
		AgentID:              text(c[1]),
		Type:                 factory.Text(commission.ActivityPhoneCall),
		Date:                 text(c[2]),
		StreetName:           text(c[3]),
		Suburb:               text(c[4]),
		Status:               text(c[5]),
		CallsMade:            number(c[6]),
		CallsConnected:       number(c[7]),
		DesktopAppraisals:    number(c[8]),
		FaceToFaceAppraisals: number(c[9]),
	}
}

func planRow(c []sql.NullString) (factory.MarketingPlanJSON, error) {
	p := factory.MarketingPlanJSON{
		ID:        text(c[0]),
		AgentID:   text(c[1]),
		Suburb:    text(c[2]),
		StartDate: text(c[3]),
		EndDate:   text(c[4]),
	}
	if c[5].Valid && c[5].String != "" {
		if err := json.Unmarshal([]byte(c[5].String), &p.DoorKnocks); err != nil {
			return p, fmt.Errorf("postgres: plan %s door_knock_streets: %w", c[0].String, err)
		}
	}
	if c[6].Valid && c[6].String != "" {
		if err := json.Unmarshal([]byte(c[6].String), &p.PhoneCalls); err != nil {
			return p, fmt.Errorf("postgres: plan %s phone_call_streets: %w", c[0].String, err)
		}
	}
	return p, nil
}
