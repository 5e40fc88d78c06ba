package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/realtime"
)

func TestValidateGraph_Default(t *testing.T) {
	require.NoError(t, ValidateGraph(Graph))
}

func TestValidateGraph_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g map[realtime.Resource]map[Mutation][]Target)
		want   string
	}{
		{
			name:   "missing targets",
			mutate: func(g map[realtime.Resource]map[Mutation][]Target) { delete(g[realtime.ResourceGifts], Delete) },
			want:   "gifts: no invalidation targets for delete",
		},
		{
			name: "unknown root",
			mutate: func(g map[realtime.Resource]map[Mutation][]Target) {
				g[realtime.ResourceGroups][Create] = []Target{{Key: key("widgets")}}
			},
			want: `unknown resource "widgets"`,
		},
		{
			name: "parent on unparented resource",
			mutate: func(g map[realtime.Resource]map[Mutation][]Target) {
				g[realtime.ResourcePersons][Create] = []Target{{Key: key("persons"), WithParent: true}}
			},
			want: "WithParent on a resource without a parent",
		},
		{
			name: "unsupported mutation",
			mutate: func(g map[realtime.Resource]map[Mutation][]Target) {
				g[realtime.ResourceBudgets][Create] = []Target{{Key: key("budgets")}}
			},
			want: "budgets: create is not supported",
		},
		{
			name: "activity is read only",
			mutate: func(g map[realtime.Resource]map[Mutation][]Target) {
				g[realtime.ResourceActivity] = map[Mutation][]Target{Create: {{Key: key("activity")}}}
			},
			want: "activity: not a mutable resource",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := cloneGraph(Graph)
			tt.mutate(g)
			err := ValidateGraph(g)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFilters_ListItemsCascade(t *testing.T) {
	c := cache.New()
	keys := []cache.Key{
		{"list-items", int64(10)},
		{"list-items", int64(11)},
		{"lists", int64(10)},
		{"lists", map[string]any{"occasion_id": 3}},
		{"budgets", int64(1)},
		{"gifts"},
	}
	for _, k := range keys {
		cache.SetData(c, k, 1)
	}

	for _, f := range filters(Graph, realtime.ResourceListItems, Update, Scope{ID: 5, Parent: []any{int64(10)}}) {
		c.Invalidate(f)
	}

	assert.True(t, c.Peek(keys[0]).Invalidated, "items of the list")
	assert.False(t, c.Peek(keys[1]).Invalidated, "items of another list")
	assert.True(t, c.Peek(keys[2]).Invalidated, "the list itself")
	assert.True(t, c.Peek(keys[3]).Invalidated, "list collections")
	assert.True(t, c.Peek(keys[4]).Invalidated, "budgets")
	assert.False(t, c.Peek(keys[5]).Invalidated)
}

func TestFilters_ExceptSelf(t *testing.T) {
	fs := filters(Graph, realtime.ResourceGifts, Update, Scope{ID: 7})
	require.NotEmpty(t, fs)

	self := cache.Key{"gifts", int64(7)}
	other := cache.Key{"gifts", int64(8)}
	view := cache.Key{"gifts", map[string]any{"status": "idea"}}

	require.NotNil(t, fs[0].Predicate)
	assert.False(t, fs[0].Predicate(self))
	assert.True(t, fs[0].Predicate(other))
	assert.True(t, fs[0].Predicate(view))
}

func cloneGraph(g map[realtime.Resource]map[Mutation][]Target) map[realtime.Resource]map[Mutation][]Target {
	out := make(map[realtime.Resource]map[Mutation][]Target, len(g))
	for res, muts := range g {
		m := make(map[Mutation][]Target, len(muts))
		for mu, targets := range muts {
			m[mu] = append([]Target(nil), targets...)
		}
		out[res] = m
	}
	return out
}
