package commission

import "context"

// RecordStore is a RecordSource that can also be written to. The demo
// scenarios and the import endpoint write through it.
//
// SaveRecords upserts by ID and is all-or-nothing. Load order is first
// insertion order, so re-saving a record keeps its position and bucket
// order stays stable across reloads.
type RecordStore interface {
	RecordSource
	SaveRecords(ctx context.Context, records Records) error
	Reset(ctx context.Context) error
}

// Count reports how many records of each kind r holds.
func (r Records) Count() map[string]int {
	return map[string]int{
		"agents":          len(r.Agents),
		"properties":      len(r.Properties),
		"activities":      len(r.Activities),
		"marketing_plans": len(r.Plans),
	}
}
