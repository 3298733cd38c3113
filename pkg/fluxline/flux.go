package fluxline

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/himanishpuri/fluxline/pkg/models"
)

// FluxTable groups flux records by ion. Ions keep the order in which they
// were first added; records keep their insertion order within an ion.
type FluxTable struct {
	ions *orderedmap.OrderedMap[string, []models.FluxRecord]
}

func NewFluxTable() *FluxTable {
	return &FluxTable{ions: orderedmap.New[string, []models.FluxRecord]()}
}

// TableFromRecords rebuilds a table from a flat record list.
func TableFromRecords(records []models.FluxRecord) *FluxTable {
	t := NewFluxTable()
	for _, r := range records {
		t.Add(r)
	}
	return t
}

func (t *FluxTable) Add(r models.FluxRecord) {
	existing, _ := t.ions.Get(r.Ion)
	t.ions.Set(r.Ion, append(existing, r))
}

func (t *FluxTable) Ions() []string {
	out := make([]string, 0, t.ions.Len())
	for pair := t.ions.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func (t *FluxTable) Get(ion string) []models.FluxRecord {
	records, _ := t.ions.Get(ion)
	return records
}

// Records flattens the table in ion order.
func (t *FluxTable) Records() []models.FluxRecord {
	var out []models.FluxRecord
	for pair := t.ions.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value...)
	}
	return out
}

// Len is the number of records.
func (t *FluxTable) Len() int {
	n := 0
	for pair := t.ions.Oldest(); pair != nil; pair = pair.Next() {
		n += len(pair.Value)
	}
	return n
}

// MarshalJSON renders the table as an object keyed by ion, in ion order.
func (t *FluxTable) MarshalJSON() ([]byte, error) {
	return t.ions.MarshalJSON()
}
