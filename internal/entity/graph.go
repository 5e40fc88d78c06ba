package entity

import (
	"errors"
	"fmt"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/realtime"
)

// Mutation is a write operation on an entity.
type Mutation string

const (
	Create Mutation = "create"
	Update Mutation = "update"
	Delete Mutation = "delete"
)

// Target is a cache key prefix invalidated after a mutation.
type Target struct {
	// Key is the root prefix, e.g. {"lists"}.
	Key cache.Key
	// WithParent appends the mutation's parent scope, e.g. the list id for
	// a list item, giving {"lists", 10}.
	WithParent bool
	// ExceptSelf skips the mutated entity's own detail key, which the update
	// has already written.
	ExceptSelf bool
}

// Scope identifies what a mutation touched.
type Scope struct {
	ID     int64
	Parent []any
}

var crud = []Mutation{Create, Update, Delete}

// Mutable lists the mutations each resource supports.
var Mutable = map[realtime.Resource][]Mutation{
	realtime.ResourcePersons:      crud,
	realtime.ResourceGifts:        crud,
	realtime.ResourceLists:        crud,
	realtime.ResourceListItems:    crud,
	realtime.ResourceOccasions:    crud,
	realtime.ResourceGroups:       crud,
	realtime.ResourceFieldOptions: crud,
	realtime.ResourceComments:     crud,
	realtime.ResourceBudgets:      {Update},
}

const ideasRoot = "ideas"

func key(parts ...any) cache.Key { return cache.Key(parts) }

// Graph is the invalidation table: for each resource and mutation, the
// cache prefixes that must be refetched.
var Graph = map[realtime.Resource]map[Mutation][]Target{
	realtime.ResourcePersons: {
		Create: {{Key: key("persons")}},
		Update: {{Key: key("persons"), ExceptSelf: true}, {Key: key("budgets")}},
		Delete: {{Key: key("persons")}, {Key: key("budgets")}, {Key: key("gifts")}, {Key: key("occasions")}},
	},
	realtime.ResourceGifts: {
		Create: {{Key: key("gifts")}, {Key: key(ideasRoot)}, {Key: key("budgets")}},
		Update: {{Key: key("gifts"), ExceptSelf: true}, {Key: key(ideasRoot)}, {Key: key("budgets")}, {Key: key("list-items")}},
		Delete: {{Key: key("gifts")}, {Key: key(ideasRoot)}, {Key: key("budgets")}, {Key: key("list-items")}, {Key: key("lists")}},
	},
	realtime.ResourceLists: {
		Create: {{Key: key("lists")}},
		Update: {{Key: key("lists"), ExceptSelf: true}},
		Delete: {{Key: key("lists")}, {Key: key("list-items")}},
	},
	realtime.ResourceListItems: {
		Create: listItemTargets,
		Update: listItemTargets,
		Delete: listItemTargets,
	},
	realtime.ResourceOccasions: {
		Create: {{Key: key("occasions")}},
		Update: {{Key: key("occasions"), ExceptSelf: true}, {Key: key("lists")}},
		Delete: {{Key: key("occasions")}, {Key: key("lists")}, {Key: key("budgets")}},
	},
	realtime.ResourceGroups: {
		Create: {{Key: key("groups")}},
		Update: {{Key: key("groups"), ExceptSelf: true}, {Key: key("persons")}},
		Delete: {{Key: key("groups")}, {Key: key("persons")}},
	},
	realtime.ResourceFieldOptions: {
		Create: {{Key: key("field-options")}},
		Update: {{Key: key("field-options")}},
		Delete: {{Key: key("field-options")}},
	},
	realtime.ResourceComments: {
		Create: {{Key: key("comments"), WithParent: true}},
		Update: {{Key: key("comments"), WithParent: true}},
		Delete: {{Key: key("comments"), WithParent: true}},
	},
	realtime.ResourceBudgets: {
		Update: {{Key: key("budgets"), WithParent: true}},
	},
}

// list item counts and purchase totals live on the parent list and on
// budgets, so every item change refreshes those too.
var listItemTargets = []Target{
	{Key: key("list-items"), WithParent: true},
	{Key: key("lists"), WithParent: true},
	{Key: key("lists")},
	{Key: key("budgets")},
}

// parented lists the resources whose mutations carry a parent scope.
var parented = map[realtime.Resource]bool{
	realtime.ResourceListItems: true,
	realtime.ResourceComments:  true,
	realtime.ResourceBudgets:   true,
}

// ValidateGraph checks g against Mutable: every supported mutation must
// declare at least one target, targets must name known resources, and only
// parented resources may use WithParent.
func ValidateGraph(g map[realtime.Resource]map[Mutation][]Target) error {
	var errs []error
	for res, muts := range Mutable {
		for _, m := range muts {
			targets := g[res][m]
			if len(targets) == 0 {
				errs = append(errs, fmt.Errorf("%s: no invalidation targets for %s", res, m))
				continue
			}
			for i, t := range targets {
				if err := validateTarget(res, t); err != nil {
					errs = append(errs, fmt.Errorf("%s %s target %d: %w", res, m, i, err))
				}
			}
		}
	}
	for res, muts := range g {
		if _, ok := Mutable[res]; !ok {
			errs = append(errs, fmt.Errorf("%s: not a mutable resource", res))
			continue
		}
		for m := range muts {
			if !supports(res, m) {
				errs = append(errs, fmt.Errorf("%s: %s is not supported", res, m))
			}
		}
	}
	return errors.Join(errs...)
}

func validateTarget(res realtime.Resource, t Target) error {
	if len(t.Key) == 0 {
		return errors.New("empty key")
	}
	root, ok := t.Key[0].(string)
	if !ok {
		return fmt.Errorf("key root %v is not a resource name", t.Key[0])
	}
	if _, ok := realtime.NormalizeResource(root); !ok {
		return fmt.Errorf("unknown resource %q", root)
	}
	if t.WithParent && !parented[res] {
		return errors.New("WithParent on a resource without a parent")
	}
	return nil
}

func supports(res realtime.Resource, m Mutation) bool {
	for _, x := range Mutable[res] {
		if x == m {
			return true
		}
	}
	return false
}

// filters resolves the targets of (res, m) into cache filters for scope.
func filters(g map[realtime.Resource]map[Mutation][]Target, res realtime.Resource, m Mutation, s Scope) []cache.Filter {
	targets := g[res][m]
	out := make([]cache.Filter, 0, len(targets))
	self := key(string(res), s.ID)
	for _, t := range targets {
		k := t.Key
		if t.WithParent {
			k = k.Append(s.Parent...)
		}
		f := cache.Prefix(k)
		if t.ExceptSelf && s.ID != 0 {
			f.Predicate = func(candidate cache.Key) bool { return !candidate.Equal(self) }
		}
		out = append(out, f)
	}
	return out
}
