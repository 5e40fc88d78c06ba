package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/giftwell/internal/apiclient"
	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/realtime"
)

func TestGifts_ListIsCached(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	ctx := context.Background()

	_, err := f.client.Gifts.List(ctx, models.GiftFilter{})
	require.NoError(t, err)
	_, err = f.client.Gifts.List(ctx, models.GiftFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.srv.count("GET /gifts"))

	f.clock.Advance(StaleGifts)
	_, err = f.client.Gifts.List(ctx, models.GiftFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.srv.count("GET /gifts"), "stale list refetches")
}

func TestGifts_CreateInvalidatesEveryView(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	ctx := context.Background()

	_, err := f.client.Gifts.List(ctx, models.GiftFilter{})
	require.NoError(t, err)
	_, err = f.client.Gifts.List(ctx, models.GiftFilter{Status: models.GiftStatusIdea})
	require.NoError(t, err)
	_, err = f.client.Ideas.Inbox(ctx, 20)
	require.NoError(t, err)

	g, err := f.client.Gifts.Create(ctx, models.GiftInput{Title: "Scarf"})
	require.NoError(t, err)
	assert.Equal(t, "Scarf", g.Title)

	c := f.client.Cache()
	assert.True(t, c.Peek(f.client.Gifts.ListKey(models.GiftFilter{})).Invalidated)
	assert.True(t, c.Peek(f.client.Gifts.ListKey(models.GiftFilter{Status: models.GiftStatusIdea})).Invalidated)
	assert.True(t, c.Peek(f.client.Ideas.InboxKey(20)).Invalidated)

	page, err := f.client.Gifts.List(ctx, models.GiftFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, f.srv.count("GET /gifts"))
}

func TestGifts_UpdateWritesDetailAndSkipsIt(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	ctx := context.Background()
	f.srv.gifts[7] = models.Gift{ID: 7, Title: "Book"}

	_, err := f.client.Gifts.Get(ctx, 7)
	require.NoError(t, err)
	_, err = f.client.Gifts.List(ctx, models.GiftFilter{})
	require.NoError(t, err)

	_, err = f.client.Gifts.Update(ctx, 7, models.GiftInput{Title: "Signed book"})
	require.NoError(t, err)

	c := f.client.Cache()
	detail := c.Peek(f.client.Gifts.Key(7))
	assert.False(t, detail.Invalidated, "detail key holds the server response")
	assert.True(t, c.Peek(f.client.Gifts.ListKey(models.GiftFilter{})).Invalidated)

	g, err := f.client.Gifts.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Signed book", g.Title)
	assert.Equal(t, 1, f.srv.count("GET /gifts/7"), "no refetch of the detail")
}

func TestGifts_ZeroIDIsDisabled(t *testing.T) {
	f := newFixture(t, realtime.Connected)

	_, err := f.client.Gifts.Get(context.Background(), 0)
	assert.ErrorIs(t, err, cache.ErrDisabled)
	assert.Equal(t, 0, f.srv.count("GET /gifts/0"))

	live := f.client.Gifts.WatchOne(0)
	defer live.Close()
	assert.Equal(t, 0, f.rt.Subscribers("gift:0"), "disabled watch does not subscribe")
	assert.False(t, live.Polling())
}

func TestGifts_GetNotFound(t *testing.T) {
	f := newFixture(t, realtime.Connected)

	_, err := f.client.Gifts.Get(context.Background(), 404)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
	assert.Contains(t, apiclient.ErrorMessage(err), "Gift not found")
}

func TestWatchOne_DeleteEventRemovesDetail(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	f.srv.gifts[7] = models.Gift{ID: 7, Title: "Book"}

	live := f.client.Gifts.WatchOne(7)
	defer live.Close()
	assert.Equal(t, "gift:7", live.Topic())
	assert.Equal(t, 1, f.rt.Subscribers("gift:7"))

	_, err := live.Load(context.Background())
	require.NoError(t, err)

	n := f.rt.Publish(realtime.Event{Topic: "gift:7", Kind: realtime.Added, EntityID: "7"})
	assert.Equal(t, 1, n)
	assert.False(t, live.State().Invalidated, "entity topics ignore ADDED")

	f.rt.Publish(realtime.Event{Topic: "gift:7", Kind: realtime.Deleted, EntityID: "7"})
	assert.False(t, live.State().Exists)
	_, ok := live.Data()
	assert.False(t, ok)
}

func TestWatchOne_UpdateEventRefetches(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	f.srv.gifts[7] = models.Gift{ID: 7, Title: "Book"}

	live := f.client.Gifts.WatchOne(7)
	defer live.Close()
	_, err := live.Load(context.Background())
	require.NoError(t, err)

	f.srv.mu.Lock()
	f.srv.gifts[7] = models.Gift{ID: 7, Title: "Paperback"}
	f.srv.mu.Unlock()

	f.rt.Publish(realtime.Event{Topic: "gift:7", Kind: realtime.Updated, EntityID: "7"})
	f.cache.Wait()

	g, ok := live.Data()
	require.True(t, ok)
	assert.Equal(t, "Paperback", g.Title)
	assert.Equal(t, 2, f.srv.count("GET /gifts/7"))
}

func TestLive_CloseUnsubscribes(t *testing.T) {
	f := newFixture(t, realtime.Connected)

	a := f.client.Gifts.WatchList(models.GiftFilter{})
	b := f.client.Ideas.WatchInbox(20)
	assert.Equal(t, 2, f.rt.Subscribers("gifts"))

	a.Close()
	a.Close()
	assert.Equal(t, 1, f.rt.Subscribers("gifts"), "closing one leaves the other")
	b.Close()
	assert.Equal(t, 0, f.rt.Subscribers("gifts"))
}

func TestWatchList_PollsWhileDisconnected(t *testing.T) {
	f := newFixture(t, realtime.Disconnected)

	live := f.client.Gifts.WatchList(models.GiftFilter{})
	defer live.Close()
	_, err := live.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, live.Polling())

	f.clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return f.srv.count("GET /gifts") == 2 }, time.Second, 5*time.Millisecond)

	f.rt.SetState(realtime.Connected)
	assert.False(t, live.Polling())
}

func TestLists_ForOccasionSharesFilterKey(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	lists := f.client.Lists

	assert.True(t, lists.OccasionKey(3).Equal(lists.ListKey(models.ListFilter{OccasionID: 3})))
	assert.Equal(t, "occasion:3:lists", OccasionTopic(3))

	_, err := lists.ForOccasion(context.Background(), 3)
	require.NoError(t, err)
	_, err = lists.List(context.Background(), models.ListFilter{OccasionID: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, f.srv.count("GET /lists"))

	live := lists.WatchOccasion(3)
	defer live.Close()
	assert.Equal(t, 1, f.rt.Subscribers("occasion:3:lists"))
}

func TestListItems_ToggleRollsBackOnError(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	ctx := context.Background()
	f.srv.addItem(10, models.ListItem{ID: 1, Status: models.GiftStatusPlanned})
	f.srv.addItem(10, models.ListItem{ID: 2, Status: models.GiftStatusPlanned})

	page, err := f.client.ListItems.List(ctx, 10)
	require.NoError(t, err)

	var during models.GiftStatus
	f.srv.failPut = true
	f.srv.onPut = func() {
		p, _ := cache.GetData[*models.Page[models.ListItem]](f.cache, f.client.ListItems.Key(10))
		during = p.Items[0].Status
	}

	_, err = f.client.ListItems.Toggle(ctx, page.Items[0])
	require.Error(t, err)
	assert.Equal(t, "database unavailable", apiclient.ErrorMessage(err))
	assert.Equal(t, models.GiftStatusPurchased, during, "optimistic value visible while in flight")

	after, ok := cache.GetData[*models.Page[models.ListItem]](f.cache, f.client.ListItems.Key(10))
	require.True(t, ok)
	assert.Same(t, page, after, "rollback restores the original page")
	assert.Equal(t, models.GiftStatusPlanned, after.Items[0].Status)
}

func TestListItems_ToggleCascades(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	ctx := context.Background()
	f.srv.addItem(10, models.ListItem{ID: 1, Status: models.GiftStatusPurchased})

	page, err := f.client.ListItems.List(ctx, 10)
	require.NoError(t, err)
	_, err = f.client.Lists.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	_, err = f.client.Budgets.Get(ctx, 1, nil)
	require.NoError(t, err)

	out, err := f.client.ListItems.Toggle(ctx, page.Items[0])
	require.NoError(t, err)
	assert.Equal(t, models.GiftStatusPlanned, out.Status)

	c := f.cache
	assert.True(t, c.Peek(f.client.ListItems.Key(10)).Invalidated)
	assert.True(t, c.Peek(f.client.Lists.ListKey(models.ListFilter{})).Invalidated)
	assert.True(t, c.Peek(f.client.Budgets.Key(1, nil)).Invalidated)
}

// Another client adds an item: the event on the list's item topic, after the
// debounce window, refetches the watched page.
func TestListItems_RealtimeAddRefreshesWatchers(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	f.srv.addItem(10, models.ListItem{ID: 1, Status: models.GiftStatusPlanned})

	live := f.client.ListItems.Watch(10)
	defer live.Close()
	page, err := live.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	f.srv.addItem(10, models.ListItem{ID: 2, Status: models.GiftStatusIdea})
	for i := 0; i < 3; i++ {
		f.rt.Publish(realtime.Event{Topic: "list:10:items", Kind: realtime.Added, EntityID: "2"})
	}
	assert.Equal(t, 1, f.srv.count("GET /lists/10/items"), "debounced")

	f.clock.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool {
		p, ok := live.Data()
		return ok && len(p.Items) == 2
	}, time.Second, 5*time.Millisecond)
	f.cache.Wait()
	assert.Equal(t, 2, f.srv.count("GET /lists/10/items"), "a burst costs one refetch")
}

func TestBudgets_SetScopedToPerson(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	ctx := context.Background()
	occ := int64(3)

	_, err := f.client.Budgets.Get(ctx, 1, nil)
	require.NoError(t, err)
	_, err = f.client.Budgets.Get(ctx, 1, &occ)
	require.NoError(t, err)
	_, err = f.client.Budgets.Get(ctx, 2, nil)
	require.NoError(t, err)

	amount := 50.0
	_, err = f.client.Budgets.Set(ctx, 1, models.BudgetInput{RecipientBudget: &amount})
	require.NoError(t, err)

	assert.True(t, f.cache.Peek(f.client.Budgets.Key(1, nil)).Invalidated)
	assert.True(t, f.cache.Peek(f.client.Budgets.Key(1, &occ)).Invalidated)
	assert.False(t, f.cache.Peek(f.client.Budgets.Key(2, nil)).Invalidated)
}

func TestComments_KeysAndValidation(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	s := f.client.Comments

	assert.Equal(t, "gift:7:comments", s.Topic(models.CommentOnGift, 7))
	assert.True(t, s.Key(models.CommentOnGift, 7).Equal(cache.Key{"comments", "gift", 7}))

	_, err := s.Create(context.Background(), models.CommentInput{EntityType: "invoice", EntityID: 1, Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, 0, f.srv.count("POST /comments"))

	_, err = s.List(context.Background(), "", 0)
	assert.ErrorIs(t, err, cache.ErrDisabled)
}

func TestActivity_AddedEventPrepends(t *testing.T) {
	f := newFixture(t, realtime.Connected)

	live := f.client.Activity.WatchRecent(2)
	defer live.Close()
	_, err := live.Load(context.Background())
	require.NoError(t, err)

	f.rt.Publish(realtime.Event{Topic: "activity", Kind: realtime.Added, EntityID: "2",
		Payload: &models.Activity{ID: 2, Summary: "second"}})
	f.rt.Publish(realtime.Event{Topic: "activity", Kind: realtime.Added, EntityID: "3",
		Payload: &models.Activity{ID: 3, Summary: "third"}})

	page, ok := live.Data()
	require.True(t, ok)
	require.Len(t, page.Items, 2, "trimmed to the limit")
	assert.Equal(t, int64(3), page.Items[0].ID)
	assert.Equal(t, int64(2), page.Items[1].ID)
	assert.Equal(t, 1, f.srv.count("GET /activity/recent"), "patched without refetch")

	f.rt.Publish(realtime.Event{Topic: "activity", Kind: realtime.Added, EntityID: "4"})
	f.cache.Wait()
	assert.Equal(t, 2, f.srv.count("GET /activity/recent"), "no payload falls back to a refetch")
}

func TestListItems_CreateThenList(t *testing.T) {
	f := newFixture(t, realtime.Connected)
	ctx := context.Background()
	f.srv.addItem(10, models.ListItem{ID: 1, Status: models.GiftStatusPlanned})

	page, err := f.client.ListItems.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	list, err := f.client.Lists.Get(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, list.ItemCount)

	_, err = f.client.ListItems.Create(ctx, 10, models.ListItemInput{GiftID: 5, Status: models.GiftStatusPlanned})
	require.NoError(t, err)
	assert.True(t, f.cache.Peek(f.client.Lists.Key(10)).Invalidated, "parent list count is refreshed")

	page, err = f.client.ListItems.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	list, err = f.client.Lists.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, list.ItemCount)
}

// An event that lands while the watched list is being fetched must not be
// lost when the older response arrives.
func TestWatchList_EventDuringFetchIsNotLost(t *testing.T) {
	f := newFixtureWith(t, realtime.Connected, Options{PollInterval: 10 * time.Second})
	f.srv.gifts[1] = models.Gift{ID: 1, Title: "Scarf"}

	live := f.client.Gifts.WatchList(models.GiftFilter{})
	defer live.Close()

	h := f.srv.holdList()
	done := make(chan *models.Page[models.Gift], 1)
	go func() {
		page, err := live.Load(context.Background())
		assert.NoError(t, err)
		done <- page
	}()
	<-h.reached

	f.srv.mu.Lock()
	f.srv.gifts[2] = models.Gift{ID: 2, Title: "Telescope"}
	f.srv.mu.Unlock()
	f.rt.Publish(realtime.Event{Topic: live.Topic(), Kind: realtime.Added, EntityID: "2"})
	close(h.release)

	page := <-done
	assert.Len(t, page.Items, 2, "the caller gets post-event data")
	f.cache.Wait()

	cached, ok := live.Data()
	require.True(t, ok)
	assert.Len(t, cached.Items, 2)
	st := live.State()
	assert.False(t, st.Invalidated)
	assert.False(t, st.Stale)
	assert.Equal(t, 2, f.srv.count("GET /gifts"))
}
