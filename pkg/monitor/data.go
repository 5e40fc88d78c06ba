package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/marcus/giftwell/internal/budget"
	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/entity"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
	"github.com/marcus/giftwell/internal/realtime"
	"github.com/marcus/giftwell/internal/theme"
)

const (
	loadTimeout     = 30 * time.Second
	budgetLoadLimit = 4
)

// feed owns the live queries behind the dashboard. Model is copied on
// every update, so it holds the feed by pointer.
type feed struct {
	ent *entity.Client

	persons  *entity.Live[*models.Page[models.Person]]
	gifts    *entity.Live[*models.Page[models.Gift]]
	activity *entity.Live[*models.Page[models.Activity]]

	mu      sync.Mutex
	budgets map[int64]*entity.Live[*models.PersonBudget]

	wake     chan struct{}
	states   chan realtime.ConnState
	done     chan struct{}
	onChange func(string)
	stateSub *realtime.Subscription
	once     sync.Once
}

func newFeed(ent *entity.Client) *feed {
	f := &feed{
		ent:      ent,
		persons:  ent.Persons.WatchList(models.PersonFilter{}),
		gifts:    ent.Gifts.WatchList(models.GiftFilter{PageParams: models.PageParams{Limit: giftLimit}}),
		activity: ent.Activity.WatchRecent(activityLimit),
		budgets:  make(map[int64]*entity.Live[*models.PersonBudget]),
		wake:     make(chan struct{}, 1),
		states:   make(chan realtime.ConnState, 8),
		done:     make(chan struct{}),
	}
	f.onChange = func(string) { f.signal() }
	_ = ent.Cache().Bus().Subscribe(cache.TopicUpdated, f.onChange)
	f.stateSub = ent.Realtime().OnStateChange(func(s realtime.ConnState) {
		select {
		case f.states <- s:
		default:
		}
	})
	return f
}

// signal wakes the listener. A pending wake absorbs further signals.
func (f *feed) signal() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// listen waits for the next cache change or connection transition.
func (f *feed) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-f.done:
			return nil
		default:
		}
		select {
		case <-f.wake:
			return CacheChangedMsg{}
		case s := <-f.states:
			return ConnStateMsg{State: s}
		case <-f.done:
			return nil
		}
	}
}

// load fetches every stale query. Failures end up in the cache state and
// are rendered per panel.
func (f *feed) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var g errgroup.Group
		g.Go(func() error { _, err := f.persons.Load(ctx); return err })
		g.Go(func() error { _, err := f.gifts.Load(ctx); return err })
		g.Go(func() error { _, err := f.activity.Load(ctx); return err })
		_ = g.Wait()

		f.loadBudgets(ctx)
		return LoadedMsg{At: time.Now()}
	}
}

// loadBudgetsCmd loads budgets for people that appeared since the last load.
func (f *feed) loadBudgetsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		f.loadBudgets(ctx)
		return LoadedMsg{At: time.Now()}
	}
}

func (f *feed) loadBudgets(ctx context.Context) {
	page, ok := f.persons.Data()
	if !ok || page == nil {
		return
	}
	ids := make([]int64, 0, len(page.Items))
	for _, p := range page.Items {
		ids = append(ids, p.ID)
	}

	var g errgroup.Group
	g.SetLimit(budgetLoadLimit)
	for _, live := range f.syncBudgets(ids) {
		live := live
		g.Go(func() error { _, err := live.Load(ctx); return err })
	}
	_ = g.Wait()
}

// syncBudgets keeps one budget watcher per person, closing watchers for
// people who are gone. It returns the watchers for ids.
func (f *feed) syncBudgets(ids []int64) []*entity.Live[*models.PersonBudget] {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := make(map[int64]bool, len(ids))
	out := make([]*entity.Live[*models.PersonBudget], 0, len(ids))
	for _, id := range ids {
		want[id] = true
		live, ok := f.budgets[id]
		if !ok {
			live = f.ent.Budgets.Watch(id, nil)
			f.budgets[id] = live
		}
		out = append(out, live)
	}
	for id, live := range f.budgets {
		if !want[id] {
			live.Close()
			delete(f.budgets, id)
		}
	}
	return out
}

// missingBudgets reports whether any of people has no budget watcher yet.
func (f *feed) missingBudgets(people []models.Person) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range people {
		if _, ok := f.budgets[p.ID]; !ok {
			return true
		}
	}
	return false
}

func (f *feed) budget(personID int64) (*models.PersonBudget, error) {
	f.mu.Lock()
	live, ok := f.budgets[personID]
	f.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if b, ok := live.Data(); ok && b != nil {
		return b, nil
	}
	return nil, live.State().Err
}

// polling reports whether the fallback poller is driving refreshes.
func (f *feed) polling() bool {
	return f.gifts.Polling()
}

// snapshot is the dashboard data as currently cached
type snapshot struct {
	People   []PersonRow
	Gifts    []models.Gift
	Activity []models.Activity
	Errs     map[Panel]error
}

func (f *feed) snapshot() snapshot {
	s := snapshot{Errs: make(map[Panel]error)}

	if page, ok := f.persons.Data(); ok && page != nil {
		for _, p := range page.Items {
			row := PersonRow{Person: p}
			row.Budget, row.BudgetErr = f.budget(p.ID)
			s.People = append(s.People, row)
		}
		sort.SliceStable(s.People, func(i, j int) bool {
			return strings.ToLower(s.People[i].Person.Name) < strings.ToLower(s.People[j].Person.Name)
		})
	} else if err := f.persons.State().Err; err != nil {
		s.Errs[PanelPeople] = err
	}

	if page, ok := f.gifts.Data(); ok && page != nil {
		s.Gifts = page.Items
	} else if err := f.gifts.State().Err; err != nil {
		s.Errs[PanelGifts] = err
	}

	if page, ok := f.activity.Data(); ok && page != nil {
		s.Activity = page.Items
	} else if err := f.activity.State().Err; err != nil {
		s.Errs[PanelActivity] = err
	}
	return s
}

// refresh marks everything stale. Watched entries refetch in the
// background and wake the listener as they land.
func (f *feed) refresh() int {
	return f.ent.Cache().Invalidate(cache.All())
}

// Close releases the live queries and stops the listener.
func (f *feed) Close() {
	f.once.Do(func() {
		close(f.done)
		_ = f.ent.Cache().Bus().Unsubscribe(cache.TopicUpdated, f.onChange)
		f.stateSub.Unsubscribe()
		f.persons.Close()
		f.gifts.Close()
		f.activity.Close()
		f.mu.Lock()
		for id, live := range f.budgets {
			live.Close()
			delete(f.budgets, id)
		}
		f.mu.Unlock()
	})
}

// fetchGiftDetail loads a gift with its comments for the detail overlay.
func (f *feed) fetchGiftDetail(id int64, people map[int64]string, width int, t theme.Theme) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		g, err := f.ent.Gifts.Get(ctx, id)
		if err != nil {
			return DetailMsg{Panel: PanelGifts, ID: id, Err: err}
		}
		body := output.FormatGiftLong(g, people)
		body += f.commentsSection(ctx, models.CommentOnGift, id, width, t)
		return DetailMsg{Panel: PanelGifts, ID: id, Body: body}
	}
}

// fetchPersonDetail loads a person with their budget bars and comments.
func (f *feed) fetchPersonDetail(id int64, width int, t theme.Theme) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		p, err := f.ent.Persons.Get(ctx, id)
		if err != nil {
			return DetailMsg{Panel: PanelPeople, ID: id, Err: err}
		}
		var sb strings.Builder
		sb.WriteString(output.FormatPerson(p))
		sb.WriteString("\n")
		if p.Notes != "" {
			sb.WriteString("\n" + p.Notes + "\n")
		}
		if sizes := formatSizes(p.Sizes); sizes != "" {
			sb.WriteString("Sizes: " + sizes + "\n")
		}

		b, err := f.ent.Budgets.Get(ctx, id, nil)
		switch {
		case err != nil:
			sb.WriteString(output.SectionHeader("budget"))
			sb.WriteString(output.FetchError("budget", err) + "\n")
		case b != nil:
			if section := budget.RenderSection(budget.Section(*b), width); section != "" {
				sb.WriteString(output.SectionHeader("budget"))
				sb.WriteString(section + "\n")
			}
		}

		sb.WriteString(f.commentsSection(ctx, models.CommentOnPerson, id, width, t))
		return DetailMsg{Panel: PanelPeople, ID: id, Body: sb.String()}
	}
}

func (f *feed) commentsSection(ctx context.Context, entityType models.CommentEntity, id int64, width int, t theme.Theme) string {
	page, err := f.ent.Comments.List(ctx, entityType, id)
	if err != nil {
		return output.SectionHeader("comments") + output.FetchError("comments", err) + "\n"
	}
	if page == nil || len(page.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(output.SectionHeader(fmt.Sprintf("comments (%d)", len(page.Items))))
	for i := range page.Items {
		sb.WriteString(output.FormatComment(&page.Items[i], width, t))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatSizes(s models.Sizes) string {
	var parts []string
	if s.Shirt != "" {
		parts = append(parts, "shirt "+s.Shirt)
	}
	if s.Pants != "" {
		parts = append(parts, "pants "+s.Pants)
	}
	if s.Shoe != "" {
		parts = append(parts, "shoe "+s.Shoe)
	}
	return strings.Join(parts, ", ")
}
