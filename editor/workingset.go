package editor

import "section-presets/preset"

// WorkingSet is the live, editable record list of one section. Index faults
// are silent no-ops so UI interactions stay forgiving.
type WorkingSet struct {
	records []preset.Record
	dirty   bool
}

// NewWorkingSet starts from a copy of records.
func NewWorkingSet(records []preset.Record) *WorkingSet {
	return &WorkingSet{records: preset.CloneRecords(records)}
}

func (w *WorkingSet) Len() int { return len(w.records) }

// Dirty reports whether edits happened since the last Commit.
func (w *WorkingSet) Dirty() bool { return w.dirty }

// Records returns a copy of the current list.
func (w *WorkingSet) Records() []preset.Record {
	return preset.CloneRecords(w.records)
}

func (w *WorkingSet) inRange(index int) bool {
	return index >= 0 && index < len(w.records)
}

// SetField replaces one field of the record at index.
func (w *WorkingSet) SetField(index int, field preset.Field, value string) {
	if !w.inRange(index) {
		return
	}
	w.records[index] = w.records[index].With(field, value)
	w.dirty = true
}

// Append adds a blank record at the end.
func (w *WorkingSet) Append() {
	w.records = append(w.records, preset.Record{})
	w.dirty = true
}

// RemoveAt drops the record at index and reports whether anything changed.
func (w *WorkingSet) RemoveAt(index int) bool {
	if !w.inRange(index) {
		return false
	}
	next := make([]preset.Record, 0, len(w.records)-1)
	next = append(next, w.records[:index]...)
	next = append(next, w.records[index+1:]...)
	w.records = next
	w.dirty = true
	return true
}

// ReplaceAll substitutes the whole list. Nothing is merged.
func (w *WorkingSet) ReplaceAll(records []preset.Record) {
	w.records = preset.CloneRecords(records)
}

// Commit clears the dirty flag and returns the list to hand to the host.
func (w *WorkingSet) Commit() []preset.Record {
	w.dirty = false
	return w.Records()
}
