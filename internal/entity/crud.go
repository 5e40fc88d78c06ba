package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/realtime"
)

// resourceService implements the query and mutation pattern shared by
// persons, gifts, lists, occasions and groups.
type resourceService[T any, In any, F any] struct {
	c     *Client
	res   realtime.Resource
	topic string // entity topic prefix, e.g. "gift" for "gift:7"
	stale time.Duration

	list   func(ctx context.Context, f F) (*models.Page[T], error)
	get    func(ctx context.Context, id int64) (*T, error)
	create func(ctx context.Context, in In) (*T, error)
	update func(ctx context.Context, id int64, in In) (*T, error)
	del    func(ctx context.Context, id int64) error
}

// ListKey is the cache key for a filtered collection view.
func (s *resourceService[T, In, F]) ListKey(f F) cache.Key {
	return cache.Key{string(s.res), f}
}

// Key is the cache key for one entity.
func (s *resourceService[T, In, F]) Key(id int64) cache.Key {
	return cache.Key{string(s.res), id}
}

// Topic is the realtime topic for one entity.
func (s *resourceService[T, In, F]) Topic(id int64) string {
	return fmt.Sprintf("%s:%d", s.topic, id)
}

// List returns one page of the collection, from cache when fresh.
func (s *resourceService[T, In, F]) List(ctx context.Context, f F) (*models.Page[T], error) {
	return cache.Fetch(ctx, s.c.cache, s.ListKey(f), s.listFetcher(f), cache.FetchOptions{StaleTime: s.stale})
}

// Get returns one entity, from cache when fresh. A zero id is a disabled
// query and returns cache.ErrDisabled.
func (s *resourceService[T, In, F]) Get(ctx context.Context, id int64) (*T, error) {
	return cache.Fetch(ctx, s.c.cache, s.Key(id), s.getFetcher(id), s.detailOptions(id))
}

// Create creates an entity and refreshes every view of the collection.
func (s *resourceService[T, In, F]) Create(ctx context.Context, in In) (*T, error) {
	out, err := s.create(ctx, in)
	if err != nil {
		s.c.log.Debug().Err(err).Str("resource", string(s.res)).Msg("create failed")
		return nil, err
	}
	s.c.cascade(s.res, Create, Scope{})
	return out, nil
}

// Update writes the returned entity into its detail key and refreshes the
// collection views that may include it.
func (s *resourceService[T, In, F]) Update(ctx context.Context, id int64, in In) (*T, error) {
	out, err := s.update(ctx, id, in)
	if err != nil {
		s.c.log.Debug().Err(err).Str("resource", string(s.res)).Int64("id", id).Msg("update failed")
		return nil, err
	}
	cache.SetData(s.c.cache, s.Key(id), out)
	s.c.cascade(s.res, Update, Scope{ID: id})
	return out, nil
}

// Delete deletes an entity and refreshes the collection views.
func (s *resourceService[T, In, F]) Delete(ctx context.Context, id int64) error {
	if err := s.del(ctx, id); err != nil {
		s.c.log.Debug().Err(err).Str("resource", string(s.res)).Int64("id", id).Msg("delete failed")
		return err
	}
	s.c.cascade(s.res, Delete, Scope{ID: id})
	return nil
}

// WatchList keeps a collection view live via the collection topic.
func (s *resourceService[T, In, F]) WatchList(f F) *Live[*models.Page[T]] {
	return watch(s.c, s.ListKey(f), s.listFetcher(f), cache.FetchOptions{StaleTime: s.stale}, bindSpec{
		topic:    string(s.res),
		events:   collectionEvents,
		debounce: s.c.opts.Debounce,
	})
}

// WatchOne keeps one entity live via its entity topic. A delete event
// removes it from the cache.
func (s *resourceService[T, In, F]) WatchOne(id int64) *Live[*T] {
	k := s.Key(id)
	return watch(s.c, k, s.getFetcher(id), s.detailOptions(id), bindSpec{
		topic:   s.Topic(id),
		events:  detailEvents,
		onEvent: detailHandler(k),
	})
}

func (s *resourceService[T, In, F]) listFetcher(f F) func(context.Context) (*models.Page[T], error) {
	return func(ctx context.Context) (*models.Page[T], error) { return s.list(ctx, f) }
}

func (s *resourceService[T, In, F]) getFetcher(id int64) func(context.Context) (*T, error) {
	return func(ctx context.Context) (*T, error) { return s.get(ctx, id) }
}

func (s *resourceService[T, In, F]) detailOptions(id int64) cache.FetchOptions {
	return cache.FetchOptions{StaleTime: s.stale, Enabled: cache.Bool(id != 0)}
}

// PersonService queries and mutates persons.
type PersonService struct {
	*resourceService[models.Person, models.PersonInput, models.PersonFilter]
}

func newPersonService(c *Client) *PersonService {
	return &PersonService{&resourceService[models.Person, models.PersonInput, models.PersonFilter]{
		c: c, res: realtime.ResourcePersons, topic: "person", stale: StalePersons,
		list: c.api.ListPersons, get: c.api.GetPerson, create: c.api.CreatePerson,
		update: c.api.UpdatePerson, del: c.api.DeletePerson,
	}}
}

// GiftService queries and mutates gifts.
type GiftService struct {
	*resourceService[models.Gift, models.GiftInput, models.GiftFilter]
}

func newGiftService(c *Client) *GiftService {
	return &GiftService{&resourceService[models.Gift, models.GiftInput, models.GiftFilter]{
		c: c, res: realtime.ResourceGifts, topic: "gift", stale: StaleGifts,
		list: c.api.ListGifts, get: c.api.GetGift, create: c.api.CreateGift,
		update: c.api.UpdateGift, del: c.api.DeleteGift,
	}}
}

// OccasionService queries and mutates occasions.
type OccasionService struct {
	*resourceService[models.Occasion, models.OccasionInput, models.OccasionFilter]
}

func newOccasionService(c *Client) *OccasionService {
	return &OccasionService{&resourceService[models.Occasion, models.OccasionInput, models.OccasionFilter]{
		c: c, res: realtime.ResourceOccasions, topic: "occasion", stale: StaleOccasions,
		list: c.api.ListOccasions, get: c.api.GetOccasion, create: c.api.CreateOccasion,
		update: c.api.UpdateOccasion, del: c.api.DeleteOccasion,
	}}
}

// GroupService queries and mutates groups.
type GroupService struct {
	*resourceService[models.Group, models.GroupInput, models.PageParams]
}

func newGroupService(c *Client) *GroupService {
	return &GroupService{&resourceService[models.Group, models.GroupInput, models.PageParams]{
		c: c, res: realtime.ResourceGroups, topic: "group", stale: StaleGroups,
		list: c.api.ListGroups, get: c.api.GetGroup, create: c.api.CreateGroup,
		update: c.api.UpdateGroup, del: c.api.DeleteGroup,
	}}
}
