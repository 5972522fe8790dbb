package substitute

import (
	"errors"
	"testing"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "bad_substitution", KindBadSubstitution.String())
	assert.Equal(t, "unknown_handler", KindUnknownHandler.String())
	assert.Equal(t, "unknown_key", KindUnknownKey.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	assert.NoError(t, r.Err())

	cause := errors.New("unexpected token")
	r.BadSubstitution("ver:", cause)
	r.UnknownHandler("nope")
	r.UnknownKey("user.age")

	diags := r.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, Diagnostic{Kind: KindBadSubstitution, Expr: "ver:", Message: "bad substitution: %(ver:)s", Cause: cause}, diags[0])
	assert.Equal(t, Diagnostic{Kind: KindUnknownHandler, Expr: "nope", Message: "unknown substitution handler: nope"}, diags[1])
	assert.Equal(t, Diagnostic{Kind: KindUnknownKey, Expr: "user.age", Message: "unknown key: user.age"}, diags[2])

	err := r.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 unresolved marker(s)")
	var se *stamperrors.StampError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, stamperrors.ErrCodeUnresolvedMarker, se.Code)
	assert.Len(t, se.Context["diagnostics"], 3)

	r.Reset()
	assert.Zero(t, r.Len())
	assert.NoError(t, r.Err())
}

func TestRecorderDiagnosticsIsCopy(t *testing.T) {
	r := NewRecorder()
	r.UnknownKey("a")

	diags := r.Diagnostics()
	diags[0].Expr = "changed"

	assert.Equal(t, "a", r.Diagnostics()[0].Expr)
}

func TestMultiSink(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	engine := New(NewRegistry(), WithSink(MultiSink{a, b}))

	engine.Substitute("%(missing)s %(nope: 1)s %(bad:)s")

	for _, r := range []*Recorder{a, b} {
		diags := r.Diagnostics()
		require.Len(t, diags, 3)
		assert.Equal(t, KindUnknownKey, diags[0].Kind)
		assert.Equal(t, KindUnknownHandler, diags[1].Kind)
		assert.Equal(t, KindBadSubstitution, diags[2].Kind)
	}
}
