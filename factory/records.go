/*
Package factory provides JSON to Go record conversion.

PURPOSE:
  Decodes the loosely typed rows the hosted backend returns (numbers sent
  as strings, nulls, missing columns, several date layouts) into typed
  commission records. This is the only place numeric coercion happens:
  once a row is a commission.Property the accumulator can trust it.

JSON SCHEMA:
  {
    "agents": [
      {"id": "ag-1", "name": "Jane Doe", "agency_name": "ABC Realty"}
    ],
    "properties": [
      {
        "id": "p-1",
        "agency_name": "ABC Realty",
        "agent_name": "jane doe",
        "suburb": "Springfield",
        "street_number": 12, "street_name": "Maple St",
        "price": "650000",
        "sold_price": null,
        "commission": 2.5,
        "category": "Listing",
        "contract_status": "",
        "listed_date": "2025-03-01",
        "sold_date": null
      }
    ],
    "activities": [
      {
        "id": "a-1", "agent_id": "ag-1", "type": "door_knock",
        "date": "2025-03-04T09:30:00Z",
        "street_name": "Maple St", "suburb": "Springfield",
        "status": "Completed",
        "knocks_made": "40", "knocks_answered": 12,
        "desktop_appraisals": 1, "face_to_face_appraisals": null
      }
    ],
    "marketing_plans": [
      {
        "id": "mp-1", "agent_id": "ag-1", "suburb": "Springfield",
        "start_date": "2025-03-01", "end_date": "2025-05-31",
        "door_knock_streets": [{"name": "Maple St", "target_knocks": 100}],
        "phone_call_streets": [{"name": "Oak Ave", "target_calls": 50, "target_connects": 20}]
      }
    ]
  }

COERCION RULES:
  - Numbers: JSON number, numeric string, null or missing. Anything else
    decodes to "absent", which the calculator treats as 0.
  - Text: string, number or null. Numbers are formatted without exponent.
  - Dates: any layout generic.ParseDate accepts; unparseable is zero time.
  - Missing IDs are filled with a random UUID.

REJECTED ROWS:
  Decoding never fails on a bad value, only on a bad row: an unknown
  activity type or a marketing plan whose end precedes its start. Those
  return a *generic.ValidationError wrapping generic.ErrInvalidRecord.

SEE ALSO:
  - commission/types.go: target record types
  - api/handlers.go: POST /api/records/import
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/generic"
)

// =============================================================================
// LOOSE SCALARS
// =============================================================================

// Number is a JSON number that may arrive as a string or null.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON never fails; unusable input leaves the number invalid.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	}
	*n = ParseNumber(s)
	return nil
}

// ParseNumber parses a numeric string. Blank or malformed input, NaN and
// infinities are invalid.
func ParseNumber(s string) Number {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}
	}
	return Number{Value: f, Valid: true}
}

// MarshalJSON writes null for an invalid number.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns nil for an invalid number.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Float returns the value or 0.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// Int truncates toward zero, saturating at the int range.
func (n Number) Int() int {
	f := n.Float()
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt
	case f <= float64(math.MinInt):
		return math.MinInt
	}
	return int(f)
}

// Num builds a valid Number.
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// Text is a JSON string that may arrive as a number or null.
type Text string

// UnmarshalJSON never fails; objects and arrays decode to "".
func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*t = Text(s)
		}
	case '{', '[':
	default:
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			*t = Text(strconv.FormatFloat(f, 'f', -1, 64))
		} else {
			*t = Text(b) // true / false
		}
	}
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RecordsJSON is the import payload.
type RecordsJSON struct {
	Agents     []AgentJSON         `json:"agents,omitempty"`
	Properties []PropertyJSON      `json:"properties,omitempty"`
	Activities []ActivityJSON      `json:"activities,omitempty"`
	Plans      []MarketingPlanJSON `json:"marketing_plans,omitempty"`
}

// AgentJSON is one profile row.
type AgentJSON struct {
	ID     Text `json:"id"`
	Name   Text `json:"name"`
	Agency Text `json:"agency_name"`
}

// PropertyJSON is one listing row.
type PropertyJSON struct {
	ID             Text   `json:"id"`
	Agency         Text   `json:"agency_name"`
	Agent          Text   `json:"agent_name"`
	Suburb         Text   `json:"suburb"`
	StreetNumber   Text   `json:"street_number,omitempty"`
	StreetName     Text   `json:"street_name,omitempty"`
	Price          Number `json:"price"`
	SoldPrice      Number `json:"sold_price"`
	Commission     Number `json:"commission"`
	Category       Text   `json:"category,omitempty"`
	ContractStatus Text   `json:"contract_status,omitempty"`
	ListedDate     Text   `json:"listed_date,omitempty"`
	SoldDate       Text   `json:"sold_date,omitempty"`
}

// ActivityJSON is one door-knock or phone-call row.
type ActivityJSON struct {
	ID                   Text   `json:"id"`
	AgentID              Text   `json:"agent_id"`
	Type                 Text   `json:"type"`
	Date                 Text   `json:"date"`
	StreetName           Text   `json:"street_name"`
	Suburb               Text   `json:"suburb"`
	Status               Text   `json:"status"`
	CallsMade            Number `json:"calls_made"`
	CallsConnected       Number `json:"calls_connected"`
	KnocksMade           Number `json:"knocks_made"`
	KnocksAnswered       Number `json:"knocks_answered"`
	DesktopAppraisals    Number `json:"desktop_appraisals"`
	FaceToFaceAppraisals Number `json:"face_to_face_appraisals"`
}

// MarketingPlanJSON is one plan row with its street targets.
type MarketingPlanJSON struct {
	ID         Text                  `json:"id"`
	AgentID    Text                  `json:"agent_id"`
	Suburb     Text                  `json:"suburb"`
	StartDate  Text                  `json:"start_date"`
	EndDate    Text                  `json:"end_date"`
	DoorKnocks []DoorKnockTargetJSON `json:"door_knock_streets"`
	PhoneCalls []PhoneCallTargetJSON `json:"phone_call_streets"`
}

// DoorKnockTargetJSON is a door-knock street target.
type DoorKnockTargetJSON struct {
	Name                 Text   `json:"name"`
	TargetKnocks         Number `json:"target_knocks"`
	DesktopAppraisals    Number `json:"desktop_appraisals"`
	FaceToFaceAppraisals Number `json:"face_to_face_appraisals"`
}

// PhoneCallTargetJSON is a phone-call street target.
type PhoneCallTargetJSON struct {
	Name                 Text   `json:"name"`
	TargetCalls          Number `json:"target_calls"`
	TargetConnects       Number `json:"target_connects"`
	DesktopAppraisals    Number `json:"desktop_appraisals"`
	FaceToFaceAppraisals Number `json:"face_to_face_appraisals"`
}

// =============================================================================
// RECORD FACTORY
// =============================================================================

// RecordFactory converts JSON rows to commission records.
type RecordFactory struct {
	newID func() string
}

// NewRecordFactory creates a factory that fills missing IDs with UUIDs.
func NewRecordFactory() *RecordFactory {
	return &RecordFactory{newID: uuid.NewString}
}

// ParseRecords parses an import payload.
func (f *RecordFactory) ParseRecords(data []byte) (commission.Records, error) {
	var rj RecordsJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return commission.Records{}, fmt.Errorf("failed to parse records JSON: %w: %w", generic.ErrInvalidRecord, err)
	}
	return f.FromJSON(rj)
}

// FromJSON converts a decoded payload. All rows are converted or none.
func (f *RecordFactory) FromJSON(rj RecordsJSON) (commission.Records, error) {
	out := commission.Records{
		Agents:     make([]commission.Agent, 0, len(rj.Agents)),
		Properties: make([]commission.Property, 0, len(rj.Properties)),
		Activities: make([]commission.Activity, 0, len(rj.Activities)),
		Plans:      make([]commission.MarketingPlan, 0, len(rj.Plans)),
	}
	for _, aj := range rj.Agents {
		out.Agents = append(out.Agents, commission.Agent{
			ID:     f.id(aj.ID),
			Name:   aj.Name.String(),
			Agency: aj.Agency.String(),
		})
	}
	for _, pj := range rj.Properties {
		out.Properties = append(out.Properties, f.property(pj))
	}
	for i, aj := range rj.Activities {
		a, err := f.activity(i, aj)
		if err != nil {
			return commission.Records{}, err
		}
		out.Activities = append(out.Activities, a)
	}
	for i, mj := range rj.Plans {
		p, err := f.plan(i, mj)
		if err != nil {
			return commission.Records{}, err
		}
		out.Plans = append(out.Plans, p)
	}
	return out, nil
}

// ToJSON converts records back to the import shape.
func (f *RecordFactory) ToJSON(records commission.Records) RecordsJSON {
	var rj RecordsJSON
	for _, a := range records.Agents {
		rj.Agents = append(rj.Agents, AgentJSON{ID: Text(a.ID), Name: Text(a.Name), Agency: Text(a.Agency)})
	}
	for _, p := range records.Properties {
		pj := PropertyJSON{
			ID:             Text(p.ID),
			Agency:         Text(p.Agency),
			Agent:          Text(p.Agent),
			Suburb:         Text(p.Suburb),
			StreetName:     Text(p.Address),
			Price:          Num(p.ListingPrice),
			Category:       Text(p.Category),
			ContractStatus: Text(p.ContractStatus),
			ListedDate:     formatDate(p.ListedDate),
		}
		if p.SoldPrice != nil {
			pj.SoldPrice = Num(*p.SoldPrice)
		}
		if p.CommissionRate != nil {
			pj.Commission = Num(*p.CommissionRate)
		}
		if p.SoldDate != nil {
			pj.SoldDate = formatDate(*p.SoldDate)
		}
		rj.Properties = append(rj.Properties, pj)
	}
	for _, a := range records.Activities {
		rj.Activities = append(rj.Activities, ActivityJSON{
			ID:                   Text(a.ID),
			AgentID:              Text(a.AgentID),
			Type:                 Text(a.Type),
			Date:                 formatDate(a.Date),
			StreetName:           Text(a.StreetName),
			Suburb:               Text(a.Suburb),
			Status:               Text(a.Status),
			CallsMade:            Num(float64(a.CallsMade)),
			CallsConnected:       Num(float64(a.CallsConnected)),
			KnocksMade:           Num(float64(a.KnocksMade)),
			KnocksAnswered:       Num(float64(a.KnocksAnswered)),
			DesktopAppraisals:    Num(float64(a.DesktopAppraisals)),
			FaceToFaceAppraisals: Num(float64(a.FaceToFaceAppraisals)),
		})
	}
	for _, p := range records.Plans {
		mj := MarketingPlanJSON{
			ID:        Text(p.ID),
			AgentID:   Text(p.AgentID),
			Suburb:    Text(p.Suburb),
			StartDate: formatDate(p.Start),
			EndDate:   formatDate(p.End),
		}
		for _, t := range p.DoorKnocks {
			mj.DoorKnocks = append(mj.DoorKnocks, DoorKnockTargetJSON{
				Name:                 Text(t.StreetName),
				TargetKnocks:         Num(float64(t.Knocks)),
				DesktopAppraisals:    Num(float64(t.DesktopAppraisals)),
				FaceToFaceAppraisals: Num(float64(t.FaceToFaceAppraisals)),
			})
		}
		for _, t := range p.PhoneCalls {
			mj.PhoneCalls = append(mj.PhoneCalls, PhoneCallTargetJSON{
				Name:                 Text(t.StreetName),
				TargetCalls:          Num(float64(t.Calls)),
				TargetConnects:       Num(float64(t.Connects)),
				DesktopAppraisals:    Num(float64(t.DesktopAppraisals)),
				FaceToFaceAppraisals: Num(float64(t.FaceToFaceAppraisals)),
			})
		}
		rj.Plans = append(rj.Plans, mj)
	}
	return rj
}

// =============================================================================
// ROW CONVERSION
// =============================================================================

func (f *RecordFactory) id(t Text) string {
	if s := t.String(); s != "" {
		return s
	}
	return f.newID()
}

func (f *RecordFactory) property(pj PropertyJSON) commission.Property {
	p := commission.Property{
		ID:             f.id(pj.ID),
		Agency:         pj.Agency.String(),
		Agent:          pj.Agent.String(),
		Suburb:         pj.Suburb.String(),
		Address:        strings.TrimSpace(pj.StreetNumber.String() + " " + pj.StreetName.String()),
		ListingPrice:   pj.Price.Float(),
		SoldPrice:      pj.SoldPrice.Ptr(),
		CommissionRate: pj.Commission.Ptr(),
		Category:       parseCategory(pj.Category.String()),
		ContractStatus: pj.ContractStatus.String(),
		ListedDate:     parseDate(pj.ListedDate),
	}
	if d, ok := generic.ParseDate(pj.SoldDate.String()); ok {
		p.SoldDate = &d
	}
	return p
}

func (f *RecordFactory) activity(i int, aj ActivityJSON) (commission.Activity, error) {
	typ, ok := parseActivityType(aj.Type.String())
	if !ok {
		return commission.Activity{}, &generic.ValidationError{
			Field:  fmt.Sprintf("activities[%d].type", i),
			Value:  aj.Type.String(),
			Reason: "expected door_knock or phone_call",
			Err:    generic.ErrInvalidRecord,
		}
	}
	return commission.Activity{
		ID:                   f.id(aj.ID),
		AgentID:              aj.AgentID.String(),
		Type:                 typ,
		Date:                 parseDate(aj.Date),
		StreetName:           aj.StreetName.String(),
		Suburb:               aj.Suburb.String(),
		Status:               parseActivityStatus(aj.Status.String()),
		CallsMade:            aj.CallsMade.Int(),
		CallsConnected:       aj.CallsConnected.Int(),
		KnocksMade:           aj.KnocksMade.Int(),
		KnocksAnswered:       aj.KnocksAnswered.Int(),
		DesktopAppraisals:    aj.DesktopAppraisals.Int(),
		FaceToFaceAppraisals: aj.FaceToFaceAppraisals.Int(),
	}, nil
}

func (f *RecordFactory) plan(i int, mj MarketingPlanJSON) (commission.MarketingPlan, error) {
	p := commission.MarketingPlan{
		ID:      f.id(mj.ID),
		AgentID: mj.AgentID.String(),
		Suburb:  mj.Suburb.String(),
		Start:   parseDate(mj.StartDate),
		End:     parseDate(mj.EndDate),
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return commission.MarketingPlan{}, &generic.ValidationError{
			Field:  fmt.Sprintf("marketing_plans[%d].end_date", i),
			Value:  mj.EndDate.String(),
			Reason: "ends before start_date " + mj.StartDate.String(),
			Err:    generic.ErrInvalidRecord,
		}
	}
	for _, t := range mj.DoorKnocks {
		p.DoorKnocks = append(p.DoorKnocks, commission.DoorKnockTarget{
			StreetName:           t.Name.String(),
			Knocks:               t.TargetKnocks.Int(),
			DesktopAppraisals:    t.DesktopAppraisals.Int(),
			FaceToFaceAppraisals: t.FaceToFaceAppraisals.Int(),
		})
	}
	for _, t := range mj.PhoneCalls {
		p.PhoneCalls = append(p.PhoneCalls, commission.PhoneCallTarget{
			StreetName:           t.Name.String(),
			Calls:                t.TargetCalls.Int(),
			Connects:             t.TargetConnects.Int(),
			DesktopAppraisals:    t.DesktopAppraisals.Int(),
			FaceToFaceAppraisals: t.FaceToFaceAppraisals.Int(),
		})
	}
	return p, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseDate(t Text) time.Time {
	d, _ := generic.ParseDate(t.String())
	return d
}

func formatDate(t time.Time) Text {
	if t.IsZero() {
		return ""
	}
	return Text(t.UTC().Format(time.RFC3339))
}

func parseCategory(s string) commission.Category {
	switch strings.ToLower(s) {
	case "sold":
		return commission.CategorySold
	case "under offer", "under_offer":
		return commission.CategoryUnderOffer
	default:
		return commission.CategoryListing
	}
}

func parseActivityType(s string) (commission.ActivityType, bool) {
	switch strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(s)) {
	case "door_knock", "doorknock", "door_knocks":
		return commission.ActivityDoorKnock, true
	case "phone_call", "phonecall", "phone_calls", "call":
		return commission.ActivityPhoneCall, true
	}
	return "", false
}

func parseActivityStatus(s string) commission.ActivityStatus {
	switch strings.ToLower(s) {
	case "completed", "complete", "done":
		return commission.StatusCompleted
	case "cancelled", "canceled":
		return commission.StatusCancelled
	default:
		return commission.StatusPending
	}
}
