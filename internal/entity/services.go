package entity

import (
	"context"
	"fmt"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/livesync"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/realtime"
)

// ListService queries and mutates gift lists.
type ListService struct {
	*resourceService[models.List, models.ListInput, models.ListFilter]
}

func newListService(c *Client) *ListService {
	return &ListService{&resourceService[models.List, models.ListInput, models.ListFilter]{
		c: c, res: realtime.ResourceLists, topic: "list", stale: StaleLists,
		list: c.api.ListLists, get: c.api.GetList, create: c.api.CreateList,
		update: c.api.UpdateList, del: c.api.DeleteList,
	}}
}

// OccasionKey is the cache key for the lists of one occasion. It is the
// same key as ListKey(models.ListFilter{OccasionID: id}).
func (s *ListService) OccasionKey(occasionID int64) cache.Key {
	return cache.Key{string(realtime.ResourceLists), map[string]any{"occasion_id": occasionID}}
}

// OccasionTopic is the realtime topic for the lists of one occasion.
func OccasionTopic(occasionID int64) string {
	return fmt.Sprintf("occasion:%d:lists", occasionID)
}

// ForOccasion returns the lists attached to an occasion.
func (s *ListService) ForOccasion(ctx context.Context, occasionID int64) (*models.Page[models.List], error) {
	return cache.Fetch(ctx, s.c.cache, s.OccasionKey(occasionID), s.occasionFetcher(occasionID), s.occasionOptions(occasionID))
}

// WatchOccasion keeps the lists of an occasion live.
func (s *ListService) WatchOccasion(occasionID int64) *Live[*models.Page[models.List]] {
	return watch(s.c, s.OccasionKey(occasionID), s.occasionFetcher(occasionID), s.occasionOptions(occasionID), bindSpec{
		topic:    OccasionTopic(occasionID),
		events:   collectionEvents,
		debounce: s.c.opts.Debounce,
	})
}

func (s *ListService) occasionFetcher(occasionID int64) func(context.Context) (*models.Page[models.List], error) {
	return func(ctx context.Context) (*models.Page[models.List], error) {
		return s.c.api.ListLists(ctx, models.ListFilter{OccasionID: occasionID})
	}
}

func (s *ListService) occasionOptions(occasionID int64) cache.FetchOptions {
	return cache.FetchOptions{StaleTime: StaleLists, Enabled: cache.Bool(occasionID != 0)}
}

// IdeaService serves the unassigned gift ideas inbox.
type IdeaService struct {
	c *Client
}

// InboxKey is the cache key for the ideas inbox.
func (s *IdeaService) InboxKey(limit int) cache.Key {
	return cache.Key{ideasRoot, "inbox", limit}
}

// Inbox returns gift ideas not yet tied to a person or list.
func (s *IdeaService) Inbox(ctx context.Context, limit int) (*models.Page[models.Gift], error) {
	return cache.Fetch(ctx, s.c.cache, s.InboxKey(limit), s.fetcher(limit), cache.FetchOptions{StaleTime: StaleGifts})
}

// WatchInbox keeps the inbox live via the gifts collection topic.
func (s *IdeaService) WatchInbox(limit int) *Live[*models.Page[models.Gift]] {
	return watch(s.c, s.InboxKey(limit), s.fetcher(limit), cache.FetchOptions{StaleTime: StaleGifts}, bindSpec{
		topic:    string(realtime.ResourceGifts),
		events:   collectionEvents,
		debounce: s.c.opts.Debounce,
	})
}

func (s *IdeaService) fetcher(limit int) func(context.Context) (*models.Page[models.Gift], error) {
	return func(ctx context.Context) (*models.Page[models.Gift], error) { return s.c.api.IdeasInbox(ctx, limit) }
}

// ListItemService queries and mutates the items of one list.
type ListItemService struct {
	c *Client
}

// Key is the cache key for the items of a list.
func (s *ListItemService) Key(listID int64) cache.Key {
	return cache.Key{string(realtime.ResourceListItems), listID}
}

// Topic is the realtime topic for the items of a list.
func (s *ListItemService) Topic(listID int64) string {
	return fmt.Sprintf("list:%d:items", listID)
}

// List returns the items of a list.
func (s *ListItemService) List(ctx context.Context, listID int64) (*models.Page[models.ListItem], error) {
	return cache.Fetch(ctx, s.c.cache, s.Key(listID), s.fetcher(listID), s.options(listID))
}

// Watch keeps the items of a list live.
func (s *ListItemService) Watch(listID int64) *Live[*models.Page[models.ListItem]] {
	return watch(s.c, s.Key(listID), s.fetcher(listID), s.options(listID), bindSpec{
		topic:    s.Topic(listID),
		events:   collectionEvents,
		debounce: s.c.opts.Debounce,
	})
}

// Create adds a gift to a list.
func (s *ListItemService) Create(ctx context.Context, listID int64, in models.ListItemInput) (*models.ListItem, error) {
	out, err := s.c.api.CreateListItem(ctx, listID, in)
	if err != nil {
		return nil, err
	}
	s.c.cascade(realtime.ResourceListItems, Create, Scope{Parent: []any{listID}})
	return out, nil
}

// Update changes a list item.
func (s *ListItemService) Update(ctx context.Context, listID, itemID int64, in models.ListItemInput) (*models.ListItem, error) {
	out, err := s.c.api.UpdateListItem(ctx, listID, itemID, in)
	if err != nil {
		return nil, err
	}
	s.c.cascade(realtime.ResourceListItems, Update, Scope{ID: itemID, Parent: []any{listID}})
	return out, nil
}

// Delete removes an item from a list.
func (s *ListItemService) Delete(ctx context.Context, listID, itemID int64) error {
	if err := s.c.api.DeleteListItem(ctx, listID, itemID); err != nil {
		return err
	}
	s.c.cascade(realtime.ResourceListItems, Delete, Scope{ID: itemID, Parent: []any{listID}})
	return nil
}

// Toggle flips an item between purchased and planned. The cached item page
// is updated before the request and rolled back if it fails.
func (s *ListItemService) Toggle(ctx context.Context, item models.ListItem) (*models.ListItem, error) {
	next := models.GiftStatusPurchased
	if item.Status.IsDone() {
		next = models.GiftStatusPlanned
	}

	rollback := livesync.Optimistic(s.c.cache, s.Key(item.ListID), func(p *models.Page[models.ListItem]) *models.Page[models.ListItem] {
		return withItemStatus(p, item.ID, next)
	})

	out, err := s.c.api.UpdateListItem(ctx, item.ListID, item.ID, models.ListItemInput{Status: next})
	if err != nil {
		rollback()
		s.c.log.Debug().Err(err).Int64("item", item.ID).Msg("toggle rolled back")
		return nil, err
	}
	s.c.cascade(realtime.ResourceListItems, Update, Scope{ID: item.ID, Parent: []any{item.ListID}})
	return out, nil
}

// withItemStatus returns a copy of p with one item's status replaced. The
// cached page is shared with readers and is never modified in place.
func withItemStatus(p *models.Page[models.ListItem], itemID int64, status models.GiftStatus) *models.Page[models.ListItem] {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Items = make([]models.ListItem, len(p.Items))
	copy(cp.Items, p.Items)
	for i := range cp.Items {
		if cp.Items[i].ID == itemID {
			cp.Items[i].Status = status
		}
	}
	return &cp
}

func (s *ListItemService) fetcher(listID int64) func(context.Context) (*models.Page[models.ListItem], error) {
	return func(ctx context.Context) (*models.Page[models.ListItem], error) {
		return s.c.api.ListItems(ctx, listID, models.PageParams{})
	}
}

func (s *ListItemService) options(listID int64) cache.FetchOptions {
	return cache.FetchOptions{StaleTime: StaleListItems, Enabled: cache.Bool(listID != 0)}
}

// FieldOptionService manages the choices for configurable fields.
type FieldOptionService struct {
	c *Client
}

// Key is the cache key for the options of a field; an empty field lists all.
func (s *FieldOptionService) Key(f models.FieldOptionFilter) cache.Key {
	return cache.Key{string(realtime.ResourceFieldOptions), f}
}

func (s *FieldOptionService) List(ctx context.Context, f models.FieldOptionFilter) (*models.Page[models.FieldOption], error) {
	return cache.Fetch(ctx, s.c.cache, s.Key(f), func(ctx context.Context) (*models.Page[models.FieldOption], error) {
		return s.c.api.ListFieldOptions(ctx, f)
	}, cache.FetchOptions{StaleTime: StaleFieldOptions})
}

func (s *FieldOptionService) Create(ctx context.Context, in models.FieldOptionInput) (*models.FieldOption, error) {
	out, err := s.c.api.CreateFieldOption(ctx, in)
	if err != nil {
		return nil, err
	}
	s.c.cascade(realtime.ResourceFieldOptions, Create, Scope{})
	return out, nil
}

func (s *FieldOptionService) Update(ctx context.Context, id int64, in models.FieldOptionInput) (*models.FieldOption, error) {
	out, err := s.c.api.UpdateFieldOption(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.c.cascade(realtime.ResourceFieldOptions, Update, Scope{ID: id})
	return out, nil
}

func (s *FieldOptionService) Delete(ctx context.Context, id int64) error {
	if err := s.c.api.DeleteFieldOption(ctx, id); err != nil {
		return err
	}
	s.c.cascade(realtime.ResourceFieldOptions, Delete, Scope{ID: id})
	return nil
}

// BudgetService reads and sets per-person budgets.
type BudgetService struct {
	c *Client
}

// Key is the cache key for a person's budget, optionally for one occasion.
func (s *BudgetService) Key(personID int64, occasionID *int64) cache.Key {
	k := cache.Key{string(realtime.ResourceBudgets), personID}
	if occasionID != nil {
		k = k.Append(*occasionID)
	}
	return k
}

// Topic is the realtime topic for a person's budget.
func (s *BudgetService) Topic(personID int64) string {
	return fmt.Sprintf("person:%d:budget", personID)
}

func (s *BudgetService) Get(ctx context.Context, personID int64, occasionID *int64) (*models.PersonBudget, error) {
	return cache.Fetch(ctx, s.c.cache, s.Key(personID, occasionID), s.fetcher(personID, occasionID), s.options(personID))
}

// Watch keeps a person's budget live. Any gift or list item change for the
// person arrives as an event on the budget topic.
func (s *BudgetService) Watch(personID int64, occasionID *int64) *Live[*models.PersonBudget] {
	return watch(s.c, s.Key(personID, occasionID), s.fetcher(personID, occasionID), s.options(personID), bindSpec{
		topic:    s.Topic(personID),
		events:   realtime.AllKinds(),
		debounce: s.c.opts.Debounce,
	})
}

// Set replaces the budgets for a person and refreshes every cached budget
// view of that person.
func (s *BudgetService) Set(ctx context.Context, personID int64, in models.BudgetInput) (*models.PersonBudget, error) {
	out, err := s.c.api.SetPersonBudget(ctx, personID, in)
	if err != nil {
		return nil, err
	}
	s.c.cascade(realtime.ResourceBudgets, Update, Scope{Parent: []any{personID}})
	return out, nil
}

func (s *BudgetService) fetcher(personID int64, occasionID *int64) func(context.Context) (*models.PersonBudget, error) {
	return func(ctx context.Context) (*models.PersonBudget, error) {
		return s.c.api.GetPersonBudget(ctx, personID, occasionID)
	}
}

func (s *BudgetService) options(personID int64) cache.FetchOptions {
	return cache.FetchOptions{StaleTime: StaleBudgets, Enabled: cache.Bool(personID != 0)}
}

// CommentService reads and writes comments on an entity.
type CommentService struct {
	c *Client
}

// Key is the cache key for the comments on one entity.
func (s *CommentService) Key(entityType models.CommentEntity, entityID int64) cache.Key {
	return cache.Key{string(realtime.ResourceComments), string(entityType), entityID}
}

// Topic is the realtime topic for the comments on one entity.
func (s *CommentService) Topic(entityType models.CommentEntity, entityID int64) string {
	return fmt.Sprintf("%s:%d:comments", entityType, entityID)
}

func (s *CommentService) List(ctx context.Context, entityType models.CommentEntity, entityID int64) (*models.Page[models.Comment], error) {
	return cache.Fetch(ctx, s.c.cache, s.Key(entityType, entityID), s.fetcher(entityType, entityID), s.options(entityType, entityID))
}

func (s *CommentService) Watch(entityType models.CommentEntity, entityID int64) *Live[*models.Page[models.Comment]] {
	return watch(s.c, s.Key(entityType, entityID), s.fetcher(entityType, entityID), s.options(entityType, entityID), bindSpec{
		topic:    s.Topic(entityType, entityID),
		events:   collectionEvents,
		debounce: s.c.opts.Debounce,
	})
}

func (s *CommentService) Create(ctx context.Context, in models.CommentInput) (*models.Comment, error) {
	if !models.IsValidCommentEntity(in.EntityType) {
		return nil, fmt.Errorf("comment: invalid entity type %q", in.EntityType)
	}
	out, err := s.c.api.CreateComment(ctx, in)
	if err != nil {
		return nil, err
	}
	s.c.cascade(realtime.ResourceComments, Create, Scope{Parent: []any{string(in.EntityType), in.EntityID}})
	return out, nil
}

// Update edits a comment. The comment's entity scopes the refresh.
func (s *CommentService) Update(ctx context.Context, cm models.Comment, body string) (*models.Comment, error) {
	out, err := s.c.api.UpdateComment(ctx, cm.ID, models.CommentInput{Body: body})
	if err != nil {
		return nil, err
	}
	s.c.cascade(realtime.ResourceComments, Update, Scope{ID: cm.ID, Parent: []any{string(cm.EntityType), cm.EntityID}})
	return out, nil
}

func (s *CommentService) Delete(ctx context.Context, cm models.Comment) error {
	if err := s.c.api.DeleteComment(ctx, cm.ID); err != nil {
		return err
	}
	s.c.cascade(realtime.ResourceComments, Delete, Scope{ID: cm.ID, Parent: []any{string(cm.EntityType), cm.EntityID}})
	return nil
}

func (s *CommentService) fetcher(entityType models.CommentEntity, entityID int64) func(context.Context) (*models.Page[models.Comment], error) {
	return func(ctx context.Context) (*models.Page[models.Comment], error) {
		return s.c.api.ListComments(ctx, models.CommentFilter{EntityType: entityType, EntityID: entityID})
	}
}

func (s *CommentService) options(entityType models.CommentEntity, entityID int64) cache.FetchOptions {
	return cache.FetchOptions{StaleTime: StaleComments, Enabled: cache.Bool(entityType != "" && entityID != 0)}
}

// ActivityService serves the family activity feed.
type ActivityService struct {
	c *Client
}

// Key is the cache key for the most recent activity.
func (s *ActivityService) Key(limit int) cache.Key {
	return cache.Key{string(realtime.ResourceActivity), "recent", limit}
}

// Recent returns the latest activity entries, newest first.
func (s *ActivityService) Recent(ctx context.Context, limit int) (*models.Page[models.Activity], error) {
	return cache.Fetch(ctx, s.c.cache, s.Key(limit), s.fetcher(limit), cache.FetchOptions{StaleTime: StaleActivity})
}

// WatchRecent keeps the feed live. New entries carried in the event payload
// are prepended without a refetch; events without one invalidate.
func (s *ActivityService) WatchRecent(limit int) *Live[*models.Page[models.Activity]] {
	k := s.Key(limit)
	return watch(s.c, k, s.fetcher(limit), cache.FetchOptions{StaleTime: StaleActivity}, bindSpec{
		topic:   string(realtime.ResourceActivity),
		events:  []realtime.Kind{realtime.Added},
		onEvent: prependActivity(k, limit),
	})
}

func prependActivity(k cache.Key, limit int) func(realtime.Event, *cache.Cache) {
	return func(ev realtime.Event, c *cache.Cache) {
		a, ok := realtime.PayloadAs[models.Activity](ev)
		if !ok {
			c.Invalidate(cache.Exact(k))
			return
		}
		if _, cached := cache.GetData[*models.Page[models.Activity]](c, k); !cached {
			c.Invalidate(cache.Exact(k))
			return
		}
		cache.Update(c, k, func(old *models.Page[models.Activity], _ bool) *models.Page[models.Activity] {
			items := make([]models.Activity, 0, len(old.Items)+1)
			items = append(items, *a)
			for _, x := range old.Items {
				if x.ID != a.ID {
					items = append(items, x)
				}
			}
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}
			cp := *old
			cp.Items = items
			return &cp
		})
	}
}

func (s *ActivityService) fetcher(limit int) func(context.Context) (*models.Page[models.Activity], error) {
	return func(ctx context.Context) (*models.Page[models.Activity], error) { return s.c.api.RecentActivity(ctx, limit) }
}
