package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"resume-builder/internal/shared/apperr"
)

func TestApplyOperations(t *testing.T) {
	raw := json.RawMessage(`{"basics": {"name": "Jane", "photoUrl": "p.png"}, "work": [{"highlights": ["a"]}], "settings": {"columns": 2}}`)

	out, err := Apply(raw, Action{Op: OpRemove, Path: "basics.photoUrl"})
	require.NoError(t, err)
	require.JSONEq(t, `{"basics": {"name": "Jane"}, "work": [{"highlights": ["a"]}], "settings": {"columns": 2}}`, string(out))

	out, err = Apply(raw, Action{Op: OpSet, Path: "settings.columns", Value: 1})
	require.NoError(t, err)
	require.JSONEq(t, `{"basics": {"name": "Jane", "photoUrl": "p.png"}, "work": [{"highlights": ["a"]}], "settings": {"columns": 1}}`, string(out))

	out, err = Apply(raw, Action{Op: OpAppend, Path: "work.0.highlights", Value: "b"})
	require.NoError(t, err)
	require.JSONEq(t, `{"basics": {"name": "Jane", "photoUrl": "p.png"}, "work": [{"highlights": ["a", "b"]}], "settings": {"columns": 2}}`, string(out))

	out, err = Apply(raw, Action{Op: OpRemove, Path: "work.0"})
	require.NoError(t, err)
	require.JSONEq(t, `{"basics": {"name": "Jane", "photoUrl": "p.png"}, "work": [], "settings": {"columns": 2}}`, string(out))

	out, err = Apply(json.RawMessage(`{}`), Action{Op: OpSet, Path: "settings.fontFamily", Value: "Arial"})
	require.NoError(t, err)
	require.JSONEq(t, `{"settings": {"fontFamily": "Arial"}}`, string(out))
}

func TestApplyRejectsBadActions(t *testing.T) {
	raw := json.RawMessage(`{"work": [{"company": "Acme"}], "summary": "x"}`)
	cases := []Action{
		{Op: "move", Path: "summary"},
		{Op: OpSet, Path: ""},
		{Op: OpSet, Path: "work..company"},
		{Op: OpSet, Path: "work.3.company", Value: "x"},
		{Op: OpAppend, Path: "summary", Value: "y"},
		{Op: OpSet, Path: "summary.text", Value: "y"},
	}
	for _, action := range cases {
		_, err := Apply(raw, action)
		require.Equal(t, apperr.KindValidation, apperr.KindOf(err), "%+v", action)
	}
}
