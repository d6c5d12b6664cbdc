package editor

import (
	"encoding/json"

	"section-presets/preset"
)

// Selection is either Current (unsaved edits, tied to no preset) or a preset name.
type Selection struct {
	name string
}

// Current is the sentinel selection.
var Current = Selection{}

func Named(name string) Selection {
	if name == "" || name == preset.CurrentName {
		return Current
	}
	return Selection{name: name}
}

// ParseSelection reads a wire label; "current" and "" both mean Current.
func ParseSelection(label string) Selection { return Named(label) }

func (s Selection) IsCurrent() bool { return s.name == "" }

// Name is the preset name, or "" for Current.
func (s Selection) Name() string { return s.name }

func (s Selection) String() string {
	if s.IsCurrent() {
		return preset.CurrentName
	}
	return s.name
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	*s = ParseSelection(label)
	return nil
}

// valid reports whether s may stand next to presets.
func (s Selection) valid(presets []preset.Preset) bool {
	return s.IsCurrent() || preset.IndexOf(presets, s.name) >= 0
}

// Initial picks the selection after a registry load: the remembered name if
// it still exists, else the first preset, else Current.
func Initial(remembered string, presets []preset.Preset) Selection {
	if remembered != "" && preset.IndexOf(presets, remembered) >= 0 {
		return Named(remembered)
	}
	if len(presets) > 0 {
		return Named(presets[0].Name)
	}
	return Current
}

// Reconcile keeps sel if it is still valid for presets, otherwise falls back
// to the first preset or Current.
func Reconcile(sel Selection, presets []preset.Preset) Selection {
	if sel.valid(presets) {
		return sel
	}
	return Initial("", presets)
}

// AfterDelete computes the fallback once deleted has left presets. When a
// preset remains it is returned with ok set and its value should be loaded;
// otherwise the result is Current and the working set is left alone.
func AfterDelete(presets []preset.Preset, deleted string) (next Selection, load preset.Preset, ok bool) {
	remaining := preset.Without(presets, deleted)
	if len(remaining) == 0 {
		return Current, preset.Preset{}, false
	}
	return Named(remaining[0].Name), remaining[0], true
}
