package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardity-org/cardity-wasm/pkg/resolver"
	"github.com/cardity-org/cardity-wasm/pkg/state"
	"github.com/cardity-org/cardity-wasm/pkg/state/memstore"
)

func newEvaluator(t *testing.T) (*Evaluator, *state.Store) {
	t.Helper()
	store := state.NewStore(memstore.New())
	return New(resolver.New(store)), store
}

func TestAssignmentThroughNamespaces(t *testing.T) {
	e, store := newEvaluator(t)

	_, err := e.ExecBody(`state.msg = "gm"`)
	require.NoError(t, err)
	require.Equal(t, "gm", store.Get("msg"))

	// Bare writes land in the store too.
	_, err = e.ExecBody(`msg = "gn"`)
	require.NoError(t, err)
	require.Equal(t, "gn", store.Get("msg"))
}

func TestParamShadowingOnRead(t *testing.T) {
	e, store := newEvaluator(t)
	require.NoError(t, store.Set("x", "store"))
	e.res.SetFrame(map[string]string{"x": "frame"})

	out, err := e.EvalReturn("x")
	require.NoError(t, err)
	require.Equal(t, "frame", out)

	out, err = e.EvalReturn("state.x")
	require.NoError(t, err)
	require.Equal(t, "store", out)

	out, err = e.EvalReturn("params.x")
	require.NoError(t, err)
	require.Equal(t, "frame", out)
}

func TestArithmetic(t *testing.T) {
	e, _ := newEvaluator(t)

	cases := map[string]string{
		"1 + 2":       "3",
		"5 - 2":       "3",
		"2 * 3":       "6",
		"7 / 2":       "3.5",
		"7 % 3":       "1",
		"0.5 + 0.25":  "0.75",
		"2 * 3 + 1":   "7",
		"2 * (3 + 1)": "8",
		"-2 + 5":      "3",
	}
	for src, want := range cases {
		out, err := e.EvalReturn(src)
		require.NoError(t, err, src)
		require.Equal(t, want, out, src)
	}
}

func TestComparisonAndEquality(t *testing.T) {
	e, _ := newEvaluator(t)

	cases := map[string]string{
		"1 < 2":            "true",
		"2 <= 2":           "true",
		"3 > 4":            "false",
		"4 >= 5":           "false",
		`"10" > "9"`:       "true", // numeric, not lexicographic
		`"a" == "a"`:       "true",
		`"a" != "b"`:       "true",
		`"1.0" == "1"`:     "false", // equality is on canonical strings
		"1 < 2 && 2 < 3":   "true",
		"1 > 2 || 3 > 2":   "true",
		"!0":               "true",
		`!"true"`:          "false",
		`"" || "nonempty"`: "true",
	}
	for src, want := range cases {
		out, err := e.EvalReturn(src)
		require.NoError(t, err, src)
		require.Equal(t, want, out, src)
	}
}

func TestDivisionByZeroErrors(t *testing.T) {
	e, _ := newEvaluator(t)

	_, err := e.EvalReturn("1 / 0")
	require.ErrorIs(t, err, ErrDivisionByZero)

	_, err = e.EvalReturn("1 % 0")
	require.ErrorIs(t, err, ErrDivisionByZero)

	// Non-numeric divisors coerce to 0 and are treated the same way.
	_, err = e.EvalReturn(`1 / "not a number"`)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestIfExecutesBodyOnlyWhenTrue(t *testing.T) {
	e, store := newEvaluator(t)

	_, err := e.ExecBody(`state.n = 1; if (state.n > 0) { state.hit = "yes" }`)
	require.NoError(t, err)
	require.Equal(t, "yes", store.Get("hit"))

	_, err = e.ExecBody(`if (state.n > 5) { state.hit = "no" }`)
	require.NoError(t, err)
	require.Equal(t, "yes", store.Get("hit"))
}

func TestEmitHook(t *testing.T) {
	e, _ := newEvaluator(t)

	var got []string
	e.SetEmitHook(func(name string, values []string) {
		got = append(got, name)
		got = append(got, values...)
	})

	_, err := e.ExecBody(`state.n = 3; if (state.n > 2) { emit Overflow("2", state.n) }`)
	require.NoError(t, err)
	require.Equal(t, []string{"Overflow", "2", "3"}, got)
}

func TestEmitWithoutHookIsDropped(t *testing.T) {
	e, _ := newEvaluator(t)
	_, err := e.ExecBody(`emit Ping("1")`)
	require.NoError(t, err)
}

func TestLastResultComesFromBareExpressions(t *testing.T) {
	e, _ := newEvaluator(t)

	out, err := e.ExecBody(`state.a = 1; 2 + 3`)
	require.NoError(t, err)
	require.Equal(t, "5", out)

	// A body of assignments alone yields no last result.
	out, err = e.ExecBody(`state.a = 1`)
	require.NoError(t, err)
	require.Equal(t, "", out)
}

func TestRestrictWrites(t *testing.T) {
	e, store := newEvaluator(t)
	e.RestrictWrites([]string{"count"})

	_, err := e.ExecBody("state.count = 1")
	require.NoError(t, err)

	_, err = e.ExecBody("state.ghost = 1")
	require.ErrorIs(t, err, ErrUndeclaredState)
	require.False(t, store.Has("ghost"))

	_, err = e.ExecBody("ghost = 1")
	require.ErrorIs(t, err, ErrUndeclaredState)

	// params writes are frame-local and never restricted.
	_, err = e.ExecBody("params.ghost = 1")
	require.NoError(t, err)
}

func TestUndeclaredReadsReturnEmpty(t *testing.T) {
	e, _ := newEvaluator(t)

	out, err := e.EvalReturn("state.missing")
	require.NoError(t, err)
	require.Equal(t, "", out)

	out, err = e.EvalReturn(`state.missing == ""`)
	require.NoError(t, err)
	require.Equal(t, "true", out)
}

func TestStringLiteralsWithSeparators(t *testing.T) {
	e, store := newEvaluator(t)

	_, err := e.ExecBody(`state.msg = "a = b; c"`)
	require.NoError(t, err)
	require.Equal(t, "a = b; c", store.Get("msg"))
}
