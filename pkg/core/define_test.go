package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/asaidimu/filterable/pkg/core"
	"github.com/stretchr/testify/require"
)

func bigSpenders(q fakeQuery, args ...any) (fakeQuery, error) {
	if len(args) != 1 {
		return q, fmt.Errorf("big_spenders takes 1 argument")
	}

	return q.with(fmt.Sprintf("total > %v", args[0])), nil
}

func TestDefineFilter_RoundTrip(t *testing.T) {
	t.Parallel()

	model, _ := newOrderModel()
	require.NoError(t, model.DefineFilter("big_spenders", bigSpenders, nil))
	require.Contains(t, model.Filters(), "big_spenders")

	direct, err := model.Apply("big_spenders", 100)
	require.NoError(t, err)
	require.Equal(t, "total > 100", direct.String())

	viaFilter, err := model.Filter(core.Where("big_spenders", 100))
	require.NoError(t, err)
	require.Equal(t, direct.String(), viaFilter.String())

	combined, err := model.Filter(core.Where("status", "paid").And("big_spenders", 100))
	require.NoError(t, err)
	require.Equal(t, "status = paid AND total > 100", combined.String())
}

func TestDefineFilter_BodyShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		body     any
		expected string
	}{
		{
			name:     "filter func",
			body:     core.FilterFunc[fakeQuery](bigSpenders),
			expected: "total > 5",
		},
		{
			name:     "variadic func",
			body:     bigSpenders,
			expected: "total > 5",
		},
		{
			name: "single argument with error",
			body: func(q fakeQuery, v any) (fakeQuery, error) {
				return q.with(fmt.Sprintf("total >= %v", v)), nil
			},
			expected: "total >= 5",
		},
		{
			name: "single argument",
			body: func(q fakeQuery, v any) fakeQuery {
				return q.with(fmt.Sprintf("total < %v", v))
			},
			expected: "total < 5",
		},
		{
			name: "no argument",
			body: func(q fakeQuery) fakeQuery {
				return q.with("total IS NOT NULL")
			},
			expected: "total IS NOT NULL",
		},
		{
			name: "zero result falls back to the incoming query",
			body: func(fakeQuery, any) fakeQuery {
				return fakeQuery{}
			},
			expected: "TRUE",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			model, _ := newOrderModel()
			require.NoError(t, model.DefineFilter("custom", tc.body, nil))

			q, err := model.Filter(core.Where("custom", 5))
			require.NoError(t, err)
			require.Equal(t, tc.expected, q.String())
		})
	}
}

func TestDefineFilter_InvalidBody(t *testing.T) {
	t.Parallel()

	var nilFunc func(fakeQuery, ...any) (fakeQuery, error)

	cases := []struct {
		name string
		body any
	}{
		{name: "nil", body: nil},
		{name: "typed nil", body: nilFunc},
		{name: "not a function", body: 42},
		{name: "wrong signature", body: func(int) int { return 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			model, _ := newOrderModel()
			before := model.Filters()

			err := model.DefineFilter("custom", tc.body, nil)
			require.ErrorIs(t, err, core.ErrInvalidFilterBody)
			require.Equal(t, before, model.Filters())
		})
	}
}

func TestDefineFilter_NameConflict(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		filter string
	}{
		{name: "model entry point", filter: "filter"},
		{name: "another entry point", filter: "define_filter"},
		{name: "query layer method", filter: "where"},
		{name: "or key", filter: "or"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			model, _ := newOrderModel()
			before := model.Filters()

			err := model.DefineFilter(tc.filter, bigSpenders, nil)
			require.ErrorIs(t, err, core.ErrNameConflict)

			var conflict *core.NameConflictError
			require.True(t, errors.As(err, &conflict))
			require.Equal(t, "orders", conflict.Model)
			require.Equal(t, tc.filter, conflict.Name)

			require.Equal(t, before, model.Filters(), "the registry is left untouched")
		})
	}
}

func TestDefineFilter_LegacyOrKeyReservesSubstrings(t *testing.T) {
	t.Parallel()

	model, _ := newOrderModel(core.WithOrKeyMatcher(core.ContainsOrKey))

	err := model.DefineFilter("recent_orders", bigSpenders, nil)
	require.ErrorIs(t, err, core.ErrNameConflict)
}

func TestModelRegistry_HoldsReservedNames(t *testing.T) {
	t.Parallel()

	noop := func(q fakeQuery, _ ...any) (fakeQuery, error) { return q, nil }

	model, adapter := newOrderModel()
	for _, name := range []string{"where", "filter", "or"} {
		err := model.Registry().RegisterCustom(adapter, name, noop, nil)
		require.ErrorIs(t, err, core.ErrNameConflict, name)
		require.False(t, model.Registry().Has(name), name)
	}

	legacy, adapter := newOrderModel(core.WithOrKeyMatcher(core.ContainsOrKey))
	err := legacy.Registry().RegisterCustom(adapter, "recent_orders", noop, nil)
	require.ErrorIs(t, err, core.ErrNameConflict)
}

func TestDefineFilter_EmptyName(t *testing.T) {
	t.Parallel()

	model, _ := newOrderModel()

	require.ErrorIs(t, model.DefineFilter("", bigSpenders, nil), core.ErrInvalidFilterName)
}

func TestDefineFilter_Overwrites(t *testing.T) {
	t.Parallel()

	t.Run("field filter", func(t *testing.T) {
		t.Parallel()

		model, _ := newOrderModel()
		require.NoError(t, model.DefineFilter("status", func(q fakeQuery, v any) fakeQuery {
			return q.with(fmt.Sprintf("lower(status) = %v", v))
		}, nil))

		q, err := model.Filter(core.Where("status", "paid"))
		require.NoError(t, err)
		require.Equal(t, "lower(status) = paid", q.String())
		require.Equal(t, core.OriginCustom, model.Registry().Origin("status"))
	})

	t.Run("custom filter", func(t *testing.T) {
		t.Parallel()

		model, _ := newOrderModel()
		require.NoError(t, model.DefineFilter("big_spenders", bigSpenders, nil))
		require.NoError(t, model.DefineFilter("big_spenders", func(q fakeQuery, v any) fakeQuery {
			return q.with(fmt.Sprintf("total >= %v", v))
		}, nil))

		q, err := model.Apply("big_spenders", 10)
		require.NoError(t, err)
		require.Equal(t, "total >= 10", q.String())
	})
}

func TestDefineFilter_ScopedExtensions(t *testing.T) {
	t.Parallel()

	model, _ := newOrderModel()
	require.NoError(t, model.DefineFilter("big_spenders", bigSpenders, core.Extensions[fakeQuery]{
		"newer_than": func(q fakeQuery, args ...any) (fakeQuery, error) {
			return q.with(fmt.Sprintf("created_at > %v", args[0])), nil
		},
		"older_than": func(q fakeQuery, args ...any) (fakeQuery, error) {
			return q.with(fmt.Sprintf("created_at < %v", args[0])), nil
		},
	}))
	require.NoError(t, model.DefineFilter("paid", func(q fakeQuery) fakeQuery {
		return q.with("status = paid")
	}, nil))

	extended, err := model.Apply("big_spenders", 30)
	require.NoError(t, err)
	require.True(t, extended.HasMethod("newer_than"))
	require.True(t, extended.HasMethod("older_than"))

	chained, err := extended.Call("older_than", "2024-01-01")
	require.NoError(t, err)
	require.Equal(t, "total > 30 AND created_at < 2024-01-01", chained.String())

	viaFilter, err := model.Filter(core.Where("status", "paid").And("big_spenders", 30))
	require.NoError(t, err)
	require.True(t, viaFilter.HasMethod("newer_than"), "merged results keep the decoration")

	plain, err := model.Apply("paid")
	require.NoError(t, err)
	require.False(t, plain.HasMethod("newer_than"), "other filters are not decorated")

	unrelated, err := model.Filter(core.Where("status", "paid"))
	require.NoError(t, err)
	require.False(t, unrelated.HasMethod("newer_than"))
	require.False(t, model.All().HasMethod("newer_than"))
}

func TestMustDefineFilter_Panics(t *testing.T) {
	t.Parallel()

	model, _ := newOrderModel()

	require.Panics(t, func() {
		model.MustDefineFilter("filter", bigSpenders, nil)
	})
	require.NotPanics(t, func() {
		model.MustDefineFilter("big_spenders", bigSpenders, nil)
	})
}
