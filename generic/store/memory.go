// Package store provides an in-memory commission.RecordStore.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/warp/agency-reports/commission"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps records in insertion order, upserting by ID.
type Memory struct {
	mu         sync.RWMutex
	agents     table[commission.Agent]
	properties table[commission.Property]
	activities table[commission.Activity]
	plans      table[commission.MarketingPlan]
}

func NewMemory() *Memory {
	return &Memory{}
}

// SaveRecords upserts every record. Records with an empty ID are appended.
func (m *Memory) SaveRecords(_ context.Context, r commission.Records) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range r.Agents {
		m.agents.upsert(a.ID, a)
	}
	for _, p := range r.Properties {
		m.properties.upsert(p.ID, p)
	}
	for _, a := range r.Activities {
		m.activities.upsert(a.ID, a)
	}
	for _, p := range r.Plans {
		p.DoorKnocks = slices.Clone(p.DoorKnocks)
		p.PhoneCalls = slices.Clone(p.PhoneCalls)
		m.plans.upsert(p.ID, p)
	}
	return nil
}

// LoadRecords returns a copy of everything stored.
func (m *Memory) LoadRecords(_ context.Context) (commission.Records, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plans := m.plans.list()
	for i := range plans {
		plans[i].DoorKnocks = slices.Clone(plans[i].DoorKnocks)
		plans[i].PhoneCalls = slices.Clone(plans[i].PhoneCalls)
	}
	return commission.Records{
		Agents:     m.agents.list(),
		Properties: m.properties.list(),
		Activities: m.activities.list(),
		Plans:      plans,
	}, nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.agents = table[commission.Agent]{}
	m.properties = table[commission.Property]{}
	m.activities = table[commission.Activity]{}
	m.plans = table[commission.MarketingPlan]{}
	return nil
}

// table is an insertion-ordered upsert list. Not safe on its own; Memory
// holds the lock.
type table[T any] struct {
	index map[string]int
	rows  []T
}

func (t *table[T]) upsert(id string, row T) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if id != "" {
		if i, ok := t.index[id]; ok {
			t.rows[i] = row
			return
		}
		t.index[id] = len(t.rows)
	}
	t.rows = append(t.rows, row)
}

func (t *table[T]) list() []T {
	out := make([]T, len(t.rows))
	copy(out, t.rows)
	return out
}
