package editor_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"section-presets/editor"
	"section-presets/preset"
)

func TestInitial(t *testing.T) {
	reg := []preset.Preset{named("A"), named("B")}

	assert.Equal(t, editor.Current, editor.Initial("", nil))
	assert.Equal(t, editor.Current, editor.Initial("A", nil))
	assert.Equal(t, editor.Named("B"), editor.Initial("B", reg))
	assert.Equal(t, editor.Named("A"), editor.Initial("gone", reg))
	assert.Equal(t, editor.Named("A"), editor.Initial("", reg))
	assert.Equal(t, editor.Named("A"), editor.Initial(preset.CurrentName, reg))
}

func TestReconcile(t *testing.T) {
	reg := []preset.Preset{named("A"), named("B")}

	assert.Equal(t, editor.Named("B"), editor.Reconcile(editor.Named("B"), reg))
	assert.Equal(t, editor.Current, editor.Reconcile(editor.Current, reg))
	assert.Equal(t, editor.Named("A"), editor.Reconcile(editor.Named("gone"), reg))
	assert.Equal(t, editor.Current, editor.Reconcile(editor.Named("gone"), nil))
}

func TestAfterDelete(t *testing.T) {
	p, q, r := named("P", rec("p", "", "")), named("Q", rec("q", "", "")), named("R")

	next, load, ok := editor.AfterDelete([]preset.Preset{p, q, r}, "P")
	require.True(t, ok)
	assert.Equal(t, editor.Named("Q"), next)
	assert.Equal(t, q, load)

	next, load, ok = editor.AfterDelete([]preset.Preset{p, q, r}, "Q")
	require.True(t, ok)
	assert.Equal(t, editor.Named("P"), next)
	assert.Equal(t, p, load)

	next, _, ok = editor.AfterDelete([]preset.Preset{p}, "P")
	assert.False(t, ok)
	assert.Equal(t, editor.Current, next)
}

func TestSelectionLabels(t *testing.T) {
	assert.True(t, editor.Named("").IsCurrent())
	assert.True(t, editor.ParseSelection(preset.CurrentName).IsCurrent())
	assert.Equal(t, preset.CurrentName, editor.Current.String())
	assert.Equal(t, "School A", editor.Named("School A").String())
	assert.Equal(t, "", editor.Current.Name())

	data, err := json.Marshal(editor.Named("School A"))
	require.NoError(t, err)
	assert.JSONEq(t, `"School A"`, string(data))

	var sel editor.Selection
	require.NoError(t, json.Unmarshal([]byte(`"current"`), &sel))
	assert.True(t, sel.IsCurrent())
	require.NoError(t, json.Unmarshal([]byte(`"X"`), &sel))
	assert.Equal(t, editor.Named("X"), sel)
}
