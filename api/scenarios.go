/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that populate the record store with
	realistic data for demos. Each scenario builds the same JSON rows the
	import endpoint accepts and runs them through the record factory, so
	scenarios exercise the real decoding boundary.

AVAILABLE SCENARIOS:

	agency-mix:       Three agencies, inconsistent spellings, listed and sold stock
	street-campaign:  One agent's marketing plan against logged door knocks and calls
	messy-import:     Numbers as strings, nulls, missing names, unknown agents

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Build RecordsJSON with dates relative to the handler clock
 3. Convert via factory.FromJSON
 4. Save through commission.RecordStore

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "street-campaign"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ImportRecords uses the same factory path
  - factory/records.go: RecordsJSON
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/warp/agency-reports/factory"
)

// ErrUnknownScenario is returned for a scenario ID that is not registered.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	build func(now time.Time) factory.RecordsJSON
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "agency-mix",
			Name:        "Agency Mix",
			Description: "Three agencies with inconsistent spellings, listed and sold stock",
		},
		build: agencyMixScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "street-campaign",
			Name:        "Street Campaign",
			Description: "Marketing plan targets against logged door knocks and phone calls",
		},
		build: streetCampaignScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "messy-import",
			Name:        "Messy Import",
			Description: "Numbers as strings, nulls, missing names and unknown agents",
		},
		build: messyImportScenario,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := findScenario(h.getCurrentScenario())
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := h.LoadScenarioByID(r.Context(), req.ScenarioID)
	switch {
	case errors.Is(err, ErrUnknownScenario):
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	case errors.Is(err, ErrReadOnly):
		writeError(w, http.StatusMethodNotAllowed, "Scenarios are disabled", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// LoadScenarioByID resets the store and saves the scenario's records.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	if h.Store == nil {
		return ErrReadOnly
	}
	s, ok := findScenario(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	records, err := h.Factory.FromJSON(s.build(h.Clock()))
	if err != nil {
		return fmt.Errorf("build scenario %s: %w", id, err)
	}
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	h.setCurrentScenario("")
	if err := h.Store.SaveRecords(ctx, records); err != nil {
		return fmt.Errorf("save scenario %s: %w", id, err)
	}
	h.setCurrentScenario(id)

	log.Printf("[Scenarios] Loaded %s: %v", id, records.Count())
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// daysAgo formats the date n days before now the way the backend does.
func daysAgo(now time.Time, n int) factory.Text {
	return factory.Text(now.AddDate(0, 0, -n).Format("2006-01-02"))
}

func agencyMixScenario(now time.Time) factory.RecordsJSON {
	return factory.RecordsJSON{
		Agents: []factory.AgentJSON{
			{ID: "agent-jane", Name: "jane smith", Agency: "abc realty"},
			{ID: "agent-tom", Name: "Tom Nguyen", Agency: "Harbour Homes"},
			{ID: "agent-priya", Name: "Priya Patel", Agency: "Coastline Property"},
		},
		Properties: []factory.PropertyJSON{
			{ID: "prop-1", Agency: "ABC Realty", Agent: "Jane Smith", Suburb: "Springfield",
				StreetNumber: "12", StreetName: "Oak St", Price: factory.Num(850000), Commission: factory.Num(2.5),
				Category: "Listing", ContractStatus: "listed", ListedDate: daysAgo(now, 12)},
			{ID: "prop-2", Agency: "abc realty ", Agent: "jane smith", Suburb: "springfield",
				StreetNumber: "4", StreetName: "Elm St", Price: factory.Num(640000), SoldPrice: factory.Num(660000),
				Commission: factory.Num(2.2), Category: "Sold", ContractStatus: "sold",
				ListedDate: daysAgo(now, 75), SoldDate: daysAgo(now, 20)},
			{ID: "prop-3", Agency: "Harbour Homes", Agent: "Tom Nguyen", Suburb: "Bayview",
				StreetNumber: "88", StreetName: "Marine Pde", Price: factory.Num(1250000), SoldPrice: factory.Num(1310000),
				Commission: factory.Num(1.9), Category: "Sold", ContractStatus: "sold",
				ListedDate: daysAgo(now, 120), SoldDate: daysAgo(now, 60)},
			{ID: "prop-4", Agency: "HARBOUR HOMES", Agent: "tom nguyen", Suburb: "Bayview",
				StreetNumber: "3", StreetName: "Cliff Rd", Price: factory.Num(990000), Commission: factory.Num(2.0),
				Category: "Under Offer", ContractStatus: "listed", ListedDate: daysAgo(now, 40)},
			{ID: "prop-5", Agency: "Coastline Property", Agent: "Priya Patel", Suburb: "Seaford",
				StreetNumber: "17", StreetName: "Dune Ave", Price: factory.Num(720000), Commission: factory.Num(2.75),
				Category: "Listing", ContractStatus: "listed", ListedDate: daysAgo(now, 5)},
			{ID: "prop-6", Agency: "coastline property", Agent: "priya patel", Suburb: "seaford",
				StreetNumber: "2", StreetName: "Shell Ct", Price: factory.Num(560000), SoldPrice: factory.Num(575000),
				Commission: factory.Num(2.5), Category: "Sold", ContractStatus: "sold",
				ListedDate: daysAgo(now, 200), SoldDate: daysAgo(now, 150)},
		},
		Activities: []factory.ActivityJSON{
			{ID: "act-1", AgentID: "agent-jane", Type: "door_knock", Date: daysAgo(now, 3), StreetName: "Oak St",
				Suburb: "Springfield", Status: "Completed", KnocksMade: factory.Num(30), KnocksAnswered: factory.Num(12),
				DesktopAppraisals: factory.Num(1)},
			{ID: "act-2", AgentID: "agent-tom", Type: "phone_call", Date: daysAgo(now, 8), StreetName: "Marine Pde",
				Suburb: "Bayview", Status: "Completed", CallsMade: factory.Num(40), CallsConnected: factory.Num(15),
				FaceToFaceAppraisals: factory.Num(2)},
			{ID: "act-3", AgentID: "agent-priya", Type: "door_knock", Date: daysAgo(now, 45), StreetName: "Dune Ave",
				Suburb: "Seaford", Status: "pending", KnocksMade: factory.Num(10), KnocksAnswered: factory.Num(4)},
		},
	}
}

func streetCampaignScenario(now time.Time) factory.RecordsJSON {
	return factory.RecordsJSON{
		Agents: []factory.AgentJSON{
			{ID: "agent-jane", Name: "Jane Smith", Agency: "ABC Realty"},
		},
		Properties: []factory.PropertyJSON{
			{ID: "prop-1", Agency: "ABC Realty", Agent: "Jane Smith", Suburb: "Springfield",
				StreetNumber: "21", StreetName: "Main St", Price: factory.Num(650000), Commission: factory.Num(2.5),
				Category: "Listing", ContractStatus: "listed", ListedDate: daysAgo(now, 10)},
			{ID: "prop-2", Agency: "ABC Realty", Agent: "Jane Smith", Suburb: "Springfield",
				StreetNumber: "9", StreetName: "Main St", Price: factory.Num(500000), SoldPrice: factory.Num(520000),
				Commission: factory.Num(2.0), Category: "Sold", ContractStatus: "sold",
				ListedDate: daysAgo(now, 50), SoldDate: daysAgo(now, 15)},
		},
		Activities: []factory.ActivityJSON{
			{ID: "act-1", AgentID: "agent-jane", Type: "door_knock", Date: daysAgo(now, 14), StreetName: "Main St",
				Suburb: "Springfield", Status: "Completed", KnocksMade: factory.Num(25), KnocksAnswered: factory.Num(9),
				DesktopAppraisals: factory.Num(1)},
			{ID: "act-2", AgentID: "agent-jane", Type: "door_knock", Date: daysAgo(now, 7), StreetName: "main st",
				Suburb: "springfield", Status: "Completed", KnocksMade: factory.Num(15), KnocksAnswered: factory.Num(6),
				FaceToFaceAppraisals: factory.Num(1)},
			{ID: "act-3", AgentID: "agent-jane", Type: "phone_call", Date: daysAgo(now, 6), StreetName: "Park Ave",
				Suburb: "Springfield", Status: "Completed", CallsMade: factory.Num(60), CallsConnected: factory.Num(18),
				DesktopAppraisals: factory.Num(2)},
		},
		Plans: []factory.MarketingPlanJSON{
			{ID: "plan-1", AgentID: "agent-jane", Suburb: "Springfield",
				StartDate: daysAgo(now, 30), EndDate: daysAgo(now, -60),
				DoorKnocks: []factory.DoorKnockTargetJSON{
					{Name: "Main St", TargetKnocks: factory.Num(100), DesktopAppraisals: factory.Num(2), FaceToFaceAppraisals: factory.Num(1)},
					{Name: "Elm St", TargetKnocks: factory.Num(80), DesktopAppraisals: factory.Num(1)},
				},
				PhoneCalls: []factory.PhoneCallTargetJSON{
					{Name: "Park Ave", TargetCalls: factory.Num(50), TargetConnects: factory.Num(20), DesktopAppraisals: factory.Num(2)},
				},
			},
		},
	}
}

func messyImportScenario(now time.Time) factory.RecordsJSON {
	return factory.RecordsJSON{
		Agents: []factory.AgentJSON{
			{ID: "agent-sam", Name: "  sam o'brien ", Agency: "northside  realty"},
		},
		Properties: []factory.PropertyJSON{
			{ID: "prop-1", Agency: "Northside Realty", Agent: "Sam O'Brien", Suburb: "Northgate",
				StreetNumber: "5", StreetName: "Hill St", Price: factory.ParseNumber(" 480000 "), Commission: factory.ParseNumber("2.5"),
				ListedDate: daysAgo(now, 25)},
			{ID: "prop-2", Agency: "", Agent: "", Suburb: "",
				Price: factory.ParseNumber("n/a"), Commission: factory.Number{}, ListedDate: daysAgo(now, 2)},
			{ID: "prop-3", Agency: "Northside Realty", Agent: "Sam O'Brien", Suburb: "Northgate",
				StreetNumber: "14", StreetName: "Ridge Rd", Price: factory.Num(530000), SoldPrice: factory.ParseNumber("545000"),
				Commission: factory.Num(-1), SoldDate: daysAgo(now, 1), ListedDate: daysAgo(now, 90)},
		},
		Activities: []factory.ActivityJSON{
			{ID: "act-1", AgentID: "agent-missing", Type: "Phone Call", Date: daysAgo(now, 4), StreetName: "Hill St",
				Suburb: "Northgate", Status: "done", CallsMade: factory.ParseNumber("12"), CallsConnected: factory.Number{}},
		},
	}
}
