package factory

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/generic"
)

func TestNumber_Coercion(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{`2.5`, 2.5, true},
		{`"650000"`, 650000, true},
		{`" 3 "`, 3, true},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"n/a"`, 0, false},
		{`"NaN"`, 0, false},
		{`true`, 0, false},
		{`{}`, 0, false},
	}
	for _, tt := range tests {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(tt.in), &n), tt.in)
		assert.Equal(t, tt.valid, n.Valid, tt.in)
		assert.Equal(t, tt.want, n.Float(), tt.in)
	}
}

func TestNumber_IntSaturates(t *testing.T) {
	assert.Equal(t, 42, ParseNumber("42.9").Int())
	assert.Equal(t, -3, ParseNumber("-3.7").Int())
	assert.Equal(t, 0, Number{}.Int())
	assert.Equal(t, math.MaxInt, ParseNumber("1e300").Int())
	assert.Equal(t, math.MinInt, ParseNumber("-1e300").Int())
}

func TestNumber_MissingFieldIsInvalid(t *testing.T) {
	var pj PropertyJSON
	require.NoError(t, json.Unmarshal([]byte(`{"price": 100}`), &pj))
	assert.True(t, pj.Price.Valid)
	assert.False(t, pj.Commission.Valid)
	assert.Nil(t, pj.Commission.Ptr())
}

func TestText_Coercion(t *testing.T) {
	var row struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": " Maple St ", "b": 12, "c": null, "d": [1]}`), &row))
	assert.Equal(t, "Maple St", row.A.String())
	assert.Equal(t, "12", row.B.String())
	assert.Equal(t, "", row.C.String())
	assert.Equal(t, "", row.D.String())
}

func TestParseRecords(t *testing.T) {
	// GIVEN: A payload in the backend's loose shape
	payload := `{
		"agents": [{"id": "ag-1", "name": "Jane Doe", "agency_name": "ABC Realty"}],
		"properties": [
			{"id": "p-1", "agency_name": "ABC Realty", "agent_name": "jane doe", "suburb": "Springfield",
			 "street_number": 12, "street_name": "Maple St",
			 "price": "650000", "sold_price": null, "commission": 2.5,
			 "category": "Listing", "listed_date": "2025-03-01"},
			{"agency_name": "Ray White", "price": 500000, "sold_price": "520000", "commission": "2",
			 "category": "sold", "contract_status": "sold", "listed_date": "2025-01-10 10:00:00",
			 "sold_date": "2025-02-20T00:00:00Z"}
		],
		"activities": [
			{"id": "a-1", "agent_id": "ag-1", "type": "door-knock", "date": "2025-03-04T09:30:00Z",
			 "street_name": "Maple St", "suburb": "Springfield", "status": "completed",
			 "knocks_made": "40", "knocks_answered": 12, "desktop_appraisals": 1, "face_to_face_appraisals": null}
		],
		"marketing_plans": [
			{"id": "mp-1", "agent_id": "ag-1", "suburb": "Springfield",
			 "start_date": "2025-03-01", "end_date": "2025-05-31",
			 "door_knock_streets": [{"name": "Maple St", "target_knocks": "100", "desktop_appraisals": 2}],
			 "phone_call_streets": [{"name": "Oak Ave", "target_calls": 50, "target_connects": 20}]}
		]
	}`

	// WHEN: Parsing
	f := &RecordFactory{newID: func() string { return "generated" }}
	records, err := f.ParseRecords([]byte(payload))

	// THEN: Every row is typed
	require.NoError(t, err)
	require.Len(t, records.Properties, 2)
	require.Len(t, records.Activities, 1)
	require.Len(t, records.Plans, 1)
	require.Len(t, records.Agents, 1)

	listed := records.Properties[0]
	assert.Equal(t, "p-1", listed.ID)
	assert.Equal(t, "12 Maple St", listed.Address)
	assert.Equal(t, 650000.0, listed.ListingPrice)
	assert.Nil(t, listed.SoldPrice)
	require.NotNil(t, listed.CommissionRate)
	assert.Equal(t, 2.5, *listed.CommissionRate)
	assert.Equal(t, generic.Date(2025, time.March, 1), listed.ListedDate)
	assert.False(t, listed.IsSold())

	sold := records.Properties[1]
	assert.Equal(t, "generated", sold.ID)
	assert.Equal(t, commission.CategorySold, sold.Category)
	require.NotNil(t, sold.SoldPrice)
	assert.Equal(t, 520000.0, *sold.SoldPrice)
	require.NotNil(t, sold.SoldDate)
	assert.True(t, sold.IsSold())
	assert.Equal(t, time.Date(2025, time.January, 10, 10, 0, 0, 0, time.UTC), sold.ListedDate)

	a := records.Activities[0]
	assert.Equal(t, commission.ActivityDoorKnock, a.Type)
	assert.Equal(t, commission.StatusCompleted, a.Status)
	assert.Equal(t, 40, a.KnocksMade)
	assert.Equal(t, 12, a.KnocksAnswered)
	assert.Equal(t, 0, a.FaceToFaceAppraisals)

	p := records.Plans[0]
	assert.Equal(t, generic.Date(2025, time.May, 31), p.End)
	require.Len(t, p.DoorKnocks, 1)
	assert.Equal(t, 100, p.DoorKnocks[0].Knocks)
	assert.Equal(t, 2, p.DoorKnocks[0].DesktopAppraisals)
	require.Len(t, p.PhoneCalls, 1)
	assert.Equal(t, 20, p.PhoneCalls[0].Connects)

	// AND: The commission matches a hand calculation
	assertEarned(t, 16250, commission.Calculate(listed))
	assertEarned(t, 10400, commission.Calculate(sold))
}

func assertEarned(t *testing.T, want float64, c commission.Commission) {
	t.Helper()
	assert.True(t, c.Earned.Equal(generic.MoneyFromFloat(want)), "want %v got %s", want, c.Earned)
}

func TestParseRecords_RejectsBadRows(t *testing.T) {
	f := NewRecordFactory()

	_, err := f.ParseRecords([]byte(`{"activities": [{"type": "email"}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrInvalidRecord)
	var ve *generic.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "activities[0].type", ve.Field)

	_, err = f.ParseRecords([]byte(`{"marketing_plans": [{"start_date": "2025-05-01", "end_date": "2025-04-01"}]}`))
	assert.ErrorIs(t, err, generic.ErrInvalidRecord)

	_, err = f.ParseRecords([]byte(`{"properties": [`))
	assert.ErrorIs(t, err, generic.ErrInvalidRecord)
	assert.True(t, generic.IsClientError(err))
}

func TestParseRecords_FillsMissingIDs(t *testing.T) {
	records, err := NewRecordFactory().ParseRecords([]byte(`{"properties": [{}, {}]}`))
	require.NoError(t, err)
	require.Len(t, records.Properties, 2)
	assert.Len(t, records.Properties[0].ID, 36)
	assert.NotEqual(t, records.Properties[0].ID, records.Properties[1].ID)
}

func TestToJSON_RoundTripsThroughParse(t *testing.T) {
	f := NewRecordFactory()
	sold := generic.Date(2025, time.April, 2)
	in := commission.Records{
		Agents: []commission.Agent{{ID: "ag-1", Name: "Jane Doe", Agency: "ABC Realty"}},
		Properties: []commission.Property{{
			ID: "p-1", Agency: "ABC Realty", Agent: "Jane Doe", Suburb: "Springfield", Address: "12 Maple St",
			ListingPrice: 650000, SoldPrice: ptr(700000.0), CommissionRate: ptr(2.5),
			Category: commission.CategorySold, ListedDate: generic.Date(2025, time.March, 1), SoldDate: &sold,
		}},
		Activities: []commission.Activity{{
			ID: "a-1", AgentID: "ag-1", Type: commission.ActivityPhoneCall, Date: generic.Date(2025, time.March, 3),
			StreetName: "Oak Ave", Suburb: "Springfield", Status: commission.StatusPending, CallsMade: 30, CallsConnected: 9,
		}},
		Plans: []commission.MarketingPlan{{
			ID: "mp-1", AgentID: "ag-1", Suburb: "Springfield",
			Start: generic.Date(2025, time.March, 1), End: generic.Date(2025, time.May, 31),
			PhoneCalls: []commission.PhoneCallTarget{{StreetName: "Oak Ave", Calls: 50, Connects: 20}},
		}},
	}

	data, err := json.Marshal(f.ToJSON(in))
	require.NoError(t, err)
	out, err := f.ParseRecords(data)
	require.NoError(t, err)

	assert.Equal(t, in, out)
}

func ptr[T any](v T) *T { return &v }
