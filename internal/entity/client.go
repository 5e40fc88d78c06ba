// Package entity exposes per-entity query and mutation services over the
// API client, the query cache and the realtime provider.
package entity

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/marcus/giftwell/internal/apiclient"
	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/logger"
	"github.com/marcus/giftwell/internal/realtime"
)

// Stale times per entity, reflecting how often each one changes.
const (
	StalePersons      = 10 * time.Minute
	StaleGroups       = 10 * time.Minute
	StaleFieldOptions = 10 * time.Minute
	StaleOccasions    = 10 * time.Minute
	StaleGifts        = 5 * time.Minute
	StaleLists        = 5 * time.Minute
	StaleListItems    = 5 * time.Minute
	StaleBudgets      = 5 * time.Minute
	StaleComments     = 5 * time.Minute
	StaleActivity     = time.Minute
)

// Options tunes the live handles returned by Watch methods.
type Options struct {
	// Debounce coalesces collection events into one refetch.
	Debounce time.Duration
	// PollInterval is used while the realtime connection is down.
	PollInterval time.Duration
	Clock        clockwork.Clock
}

// Client groups the entity services. Build one per application.
type Client struct {
	api   *apiclient.Client
	cache *cache.Cache
	rt    realtime.Provider
	log   logger.Logger
	opts  Options
	graph map[realtime.Resource]map[Mutation][]Target

	Persons      *PersonService
	Gifts        *GiftService
	Ideas        *IdeaService
	Lists        *ListService
	ListItems    *ListItemService
	Occasions    *OccasionService
	Groups       *GroupService
	FieldOptions *FieldOptionService
	Budgets      *BudgetService
	Comments     *CommentService
	Activity     *ActivityService
}

// New wires the services. rt may be a realtime.Static for offline use.
func New(api *apiclient.Client, c *cache.Cache, rt realtime.Provider, log logger.Logger, opts Options) *Client {
	if log == nil {
		log = logger.Mock()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	cl := &Client{
		api:   api,
		cache: c,
		rt:    rt,
		log:   logger.WithModule(log, "entity"),
		opts:  opts,
		graph: Graph,
	}

	cl.Persons = newPersonService(cl)
	cl.Gifts = newGiftService(cl)
	cl.Ideas = &IdeaService{c: cl}
	cl.Lists = newListService(cl)
	cl.ListItems = &ListItemService{c: cl}
	cl.Occasions = newOccasionService(cl)
	cl.Groups = newGroupService(cl)
	cl.FieldOptions = &FieldOptionService{c: cl}
	cl.Budgets = &BudgetService{c: cl}
	cl.Comments = &CommentService{c: cl}
	cl.Activity = &ActivityService{c: cl}
	return cl
}

// Cache returns the query cache the services write to.
func (c *Client) Cache() *cache.Cache { return c.cache }

// Realtime returns the provider the services subscribe through.
func (c *Client) Realtime() realtime.Provider { return c.rt }

// cascade invalidates everything the graph declares for (res, m).
func (c *Client) cascade(res realtime.Resource, m Mutation, s Scope) int {
	n := 0
	for _, f := range filters(c.graph, res, m, s) {
		n += c.cache.Invalidate(f)
	}
	c.log.Debug().Str("resource", string(res)).Str("mutation", string(m)).Int64("id", s.ID).Int("invalidated", n).Msg("cascade")
	return n
}
