package preset

import (
	"errors"
	"fmt"
)

// Record is one education entry. It has no identity beyond its position in a list.
type Record struct {
	Institution string `json:"institution" yaml:"institution" validate:"max=255"`
	Degree      string `json:"degree" yaml:"degree" validate:"max=255"`
	Year        string `json:"year" yaml:"year" validate:"max=255"`
}

// Field names one attribute of a Record.
type Field string

const (
	FieldInstitution Field = "institution"
	FieldDegree      Field = "degree"
	FieldYear        Field = "year"
)

// ParseField maps a wire field name to a Field.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldInstitution, FieldDegree, FieldYear:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, name)
}

// With returns a copy of r with field set to value.
func (r Record) With(field Field, value string) Record {
	switch field {
	case FieldInstitution:
		r.Institution = value
	case FieldDegree:
		r.Degree = value
	case FieldYear:
		r.Year = value
	}
	return r
}

// Preset is a named snapshot of a section's record list.
type Preset struct {
	Name  string   `json:"name" yaml:"name" validate:"required,max=100,ne=current"`
	Value []Record `json:"value" yaml:"value" validate:"dive"`
}

// Section is a form category. Each (user, section) pair owns one registry.
type Section string

const Education Section = "education"

// CurrentName is the reserved selection label for unsaved edits. No preset may use it.
const CurrentName = "current"

var (
	ErrRemoteUnavailable = errors.New("preset store unavailable")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("preset not found")
	ErrInvalidPreset     = errors.New("invalid preset")
	ErrInvalidField      = errors.New("invalid field")
)

// CloneRecords returns a copy of records that shares no backing array with it.
// A nil input yields an empty, non-nil slice.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// ClonePresets deep-copies a registry.
func ClonePresets(presets []Preset) []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = Preset{Name: p.Name, Value: CloneRecords(p.Value)}
	}
	return out
}

// IndexOf returns the position of the preset called name, or -1.
func IndexOf(presets []Preset, name string) int {
	for i, p := range presets {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Upsert replaces the preset with p's name in place, or appends p.
func Upsert(presets []Preset, p Preset) []Preset {
	out := ClonePresets(presets)
	p.Value = CloneRecords(p.Value)
	if i := IndexOf(out, p.Name); i >= 0 {
		out[i] = p
		return out
	}
	return append(out, p)
}

// Without returns presets minus the one called name, preserving order.
func Without(presets []Preset, name string) []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		if p.Name != name {
			out = append(out, Preset{Name: p.Name, Value: CloneRecords(p.Value)})
		}
	}
	return out
}
