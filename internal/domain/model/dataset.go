package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Provenance tells consumers where a snapshot came from.
type Provenance string

// Known provenances.
const (
	ProvenanceFile        Provenance = "file"
	ProvenanceLive        Provenance = "live"
	ProvenancePlaceholder Provenance = "placeholder"
)

// Synthetic reports whether the data was generated locally rather than sourced.
func (p Provenance) Synthetic() bool { return p == ProvenancePlaceholder }

// Dataset is an immutable, ordered set of Records with unique entity names.
type Dataset struct {
	id         uuid.UUID
	source     string
	provenance Provenance
	loadedAt   time.Time
	records    []Record
	index      map[string]int
}

// NewDataset validates records and freezes them into a Dataset.
// The input slice is copied; later changes to it are not observed.
func NewDataset(source string, provenance Provenance, records []Record) (*Dataset, error) {
	d := &Dataset{
		id:         uuid.New(),
		source:     source,
		provenance: provenance,
		loadedAt:   time.Now().UTC(),
		records:    make([]Record, len(records)),
		index:      make(map[string]int, len(records)),
	}
	copy(d.records, records)

	for i, r := range d.records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if prev, dup := d.index[r.EntityName]; dup {
			return nil, fmt.Errorf("%w: %q at rows %d and %d", ErrDuplicateEntity, r.EntityName, prev, i)
		}
		d.index[r.EntityName] = i
	}
	return d, nil
}

// ID identifies this particular load of the source.
func (d *Dataset) ID() uuid.UUID {
	if d == nil {
		return uuid.Nil
	}
	return d.id
}

// Source returns the source key the Dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Provenance returns where the data came from.
func (d *Dataset) Provenance() Provenance { return d.provenance }

// LoadedAt returns the load time in UTC.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// Len returns the number of records. A nil Dataset is empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns the i-th record in Dataset order.
func (d *Dataset) At(i int) Record { return d.records[i] }

// Records returns a copy of all records in Dataset order.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Lookup returns the record with exactly the given entity name.
func (d *Dataset) Lookup(name string) (Record, bool) {
	if d == nil {
		return Record{}, false
	}
	i, ok := d.index[name]
	if !ok {
		return Record{}, false
	}
	return d.records[i], true
}

// Position returns the Dataset index of an entity, or -1.
func (d *Dataset) Position(name string) int {
	if d == nil {
		return -1
	}
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// Names returns entity names in Dataset order.
func (d *Dataset) Names() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.EntityName
	}
	return out
}
