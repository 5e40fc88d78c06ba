package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/giftwell/internal/apiclient"
	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/entity"
	"github.com/marcus/giftwell/internal/logger"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/realtime"
	"github.com/marcus/giftwell/internal/theme"
)

type backend struct {
	mu        sync.Mutex
	people    []models.Person
	gifts     []models.Gift
	activity  []models.Activity
	budgets   map[int64]models.PersonBudget
	failGifts bool
}

func newBackend() *backend {
	budget := 100.0
	return &backend{
		people: []models.Person{{ID: 2, Name: "grace"}, {ID: 1, Name: "Ada"}},
		gifts: []models.Gift{
			{ID: 10, Title: "Telescope", Status: models.GiftStatusPlanned},
		},
		activity: []models.Activity{
			{ID: 1, ActorName: "Ada", Summary: "added Telescope", CreatedAt: time.Now()},
		},
		budgets: map[int64]models.PersonBudget{
			1: {PersonID: 1, Recipient: models.RoleBudget{Budget: &budget, PlannedTotal: 40}},
		},
	}
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /persons", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, models.Page[models.Person]{Items: b.people})
	})
	mux.HandleFunc("GET /persons/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, p := range b.people {
			if p.ID == id {
				writeJSON(w, p)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /gifts", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failGifts {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]string{"message": "database down"})
			return
		}
		writeJSON(w, models.Page[models.Gift]{Items: b.gifts})
	})
	mux.HandleFunc("GET /gifts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, g := range b.gifts {
			if g.ID == id {
				writeJSON(w, g)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /activity/recent", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, models.Page[models.Activity]{Items: b.activity})
	})
	mux.HandleFunc("GET /budgets/persons/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		b.mu.Lock()
		defer b.mu.Unlock()
		pb, ok := b.budgets[id]
		if !ok {
			pb = models.PersonBudget{PersonID: id}
		}
		writeJSON(w, pb)
	})
	mux.HandleFunc("GET /comments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Page[models.Comment]{Items: []models.Comment{
			{ID: 1, AuthorName: "Grace", Body: "Get the blue one", CreatedAt: time.Now()},
		}})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	backend *backend
	cache   *cache.Cache
	rt      *realtime.Static
	themes  *theme.Store
}

func newTestModel(t *testing.T, b *backend) (Model, *harness) {
	t.Helper()
	hs := httptest.NewServer(b.handler())
	t.Cleanup(hs.Close)

	c := cache.New()
	rt := realtime.NewStatic(realtime.Connected)
	ent := entity.New(apiclient.New(hs.URL, "tok"), c, rt, logger.Mock(), entity.Options{
		PollInterval: time.Hour,
	})
	themes := theme.NewStore(t.TempDir())

	m := NewModel(Options{Entity: ent, Themes: themes, SystemTheme: theme.Dark})
	t.Cleanup(func() {
		m.Close()
		c.Wait()
	})
	return m, &harness{backend: b, cache: c, rt: rt, themes: themes}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func loaded(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, m.feed.load()())
	return m
}

// detailFrom runs cmd, descending into batches, and returns the DetailMsg it yields
func detailFrom(t *testing.T, cmd tea.Cmd) DetailMsg {
	t.Helper()
	require.NotNil(t, cmd)
	switch msg := cmd().(type) {
	case DetailMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if d, ok := c().(DetailMsg); ok {
				return d
			}
		}
	}
	t.Fatal("command did not produce a DetailMsg")
	return DetailMsg{}
}

func press(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func TestLoad_PopulatesPanels(t *testing.T) {
	m, _ := newTestModel(t, newBackend())
	m = loaded(t, m)

	require.Len(t, m.People, 2)
	assert.Equal(t, "Ada", m.People[0].Person.Name, "sorted case-insensitively")
	assert.Equal(t, "grace", m.People[1].Person.Name)
	require.NotNil(t, m.People[0].Budget)
	assert.Equal(t, 40.0, m.People[0].Budget.Recipient.PlannedTotal)
	require.Len(t, m.Gifts, 1)
	require.Len(t, m.Activity, 1)
	assert.True(t, m.Loaded)
	assert.Empty(t, m.Errs)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "PEOPLE")
	assert.Contains(t, view, "Telescope")
	assert.Contains(t, view, "added Telescope")
	assert.Contains(t, view, "● connected")
}

func TestLoad_ErrorRenderedInPanel(t *testing.T) {
	b := newBackend()
	b.failGifts = true
	m, _ := newTestModel(t, b)
	m = loaded(t, m)

	require.Error(t, m.Errs[PanelGifts])
	assert.Len(t, m.People, 2, "other panels still load")
	assert.Contains(t, ansi.Strip(m.View()), "failed to load gifts: database down")
}

func TestRealtimeEvent_RefreshesGifts(t *testing.T) {
	m, h := newTestModel(t, newBackend())
	m = loaded(t, m)
	require.Len(t, m.Gifts, 1)

	h.backend.mu.Lock()
	h.backend.gifts = append(h.backend.gifts, models.Gift{ID: 11, Title: "Kite", Status: models.GiftStatusIdea})
	h.backend.mu.Unlock()

	h.rt.Publish(realtime.Event{Topic: "gifts", Kind: realtime.Added, EntityID: "11"})
	require.Eventually(t, func() bool {
		return len(m.feed.snapshot().Gifts) == 2
	}, 2*time.Second, 10*time.Millisecond)

	m, _ = update(t, m, CacheChangedMsg{})
	assert.Len(t, m.Gifts, 2)
}

func TestListen_WakesOnCacheChange(t *testing.T) {
	m, h := newTestModel(t, newBackend())
	m = loaded(t, m)

	// Drain any wake left over from the load.
	select {
	case <-m.feed.wake:
	default:
	}

	h.cache.Invalidate(cache.Prefix(cache.Key{"activity"}))
	msg := m.feed.listen()()
	assert.IsType(t, CacheChangedMsg{}, msg)
}

func TestConnState_ShowsPolling(t *testing.T) {
	m, h := newTestModel(t, newBackend())
	m = loaded(t, m)

	h.rt.SetState(realtime.Disconnected)
	m, cmd := update(t, m, ConnStateMsg{State: realtime.Disconnected})
	assert.NotNil(t, cmd, "keeps listening")
	assert.Equal(t, realtime.Disconnected, m.Conn)
	assert.True(t, m.Polling)
	assert.Contains(t, ansi.Strip(m.View()), "disconnected (polling)")

	h.rt.SetState(realtime.Connected)
	m, _ = update(t, m, ConnStateMsg{State: realtime.Connected})
	assert.False(t, m.Polling)
}

func TestKeys_PanelNavigation(t *testing.T) {
	m, _ := newTestModel(t, newBackend())
	m = loaded(t, m)

	assert.Equal(t, PanelPeople, m.ActivePanel)
	m, _ = update(t, m, press('j'))
	assert.Equal(t, 1, m.Cursor[PanelPeople])
	m, _ = update(t, m, press('j'))
	assert.Equal(t, 1, m.Cursor[PanelPeople], "clamped at last row")
	m, _ = update(t, m, press('k'))
	assert.Equal(t, 0, m.Cursor[PanelPeople])

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PanelGifts, m.ActivePanel)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PanelActivity, m.ActivePanel, "wraps around")
}

func TestDetail_GiftWithComments(t *testing.T) {
	m, _ := newTestModel(t, newBackend())
	m = loaded(t, m)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.Detail)
	require.NotNil(t, cmd)
	assert.True(t, m.Detail.Loading)
	assert.Equal(t, int64(10), m.Detail.ID)

	m, _ = update(t, m, detailFrom(t, cmd))
	assert.False(t, m.Detail.Loading)
	require.NoError(t, m.Detail.Err)
	assert.Contains(t, ansi.Strip(m.Detail.Body), "Telescope")
	assert.Contains(t, m.Detail.Body, "Get the blue one")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.Detail)
}

func TestDetail_PersonWithBudget(t *testing.T) {
	m, _ := newTestModel(t, newBackend())
	m = loaded(t, m)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, detailFrom(t, cmd))
	body := ansi.Strip(m.Detail.Body)
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "Receiving")
}

func TestDetail_StaleResultIgnored(t *testing.T) {
	m, _ := newTestModel(t, newBackend())
	m = loaded(t, m)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, DetailMsg{Panel: PanelGifts, ID: 99, Body: "other"})
	assert.True(t, m.Detail.Loading)
	assert.Empty(t, m.Detail.Body)
}

func TestThemeCycle_PersistsPreference(t *testing.T) {
	m, h := newTestModel(t, newBackend())

	m, cmd := update(t, m, press('t'))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, theme.Light, m.Theme)

	stored, err := h.themes.Get()
	require.NoError(t, err)
	assert.Equal(t, theme.Light, stored)
	assert.Equal(t, theme.Light, m.resolvedTheme())

	m, _ = update(t, m, ThemeMsg{Theme: theme.System})
	assert.Equal(t, theme.Dark, m.resolvedTheme(), "system resolves to the detected background")
}

func TestRefresh_InvalidatesEverything(t *testing.T) {
	m, h := newTestModel(t, newBackend())
	m = loaded(t, m)
	n := len(h.cache.Keys(cache.All()))
	require.Positive(t, n)

	m, cmd := update(t, m, press('r'))
	require.NotNil(t, cmd)
	assert.Equal(t, refreshStatus(n), m.StatusMessage)
	assert.False(t, m.StatusIsError)
}

func TestRefreshStatus(t *testing.T) {
	assert.Equal(t, "Refreshing 1 query", refreshStatus(1))
	assert.Equal(t, "Refreshing 3 queries", refreshStatus(3))
}

func TestHelp_Toggle(t *testing.T) {
	m, _ := newTestModel(t, newBackend())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = update(t, m, press('?'))
	assert.True(t, m.HelpOpen)
	assert.Contains(t, m.View(), "GIFTWELL DASHBOARD")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.HelpOpen)
}

func TestClose_ReleasesSubscriptions(t *testing.T) {
	m, h := newTestModel(t, newBackend())
	m = loaded(t, m)
	require.Positive(t, h.rt.Subscribers("gifts"))
	require.Positive(t, h.rt.Subscribers("person:1:budget"))

	m.Close()
	assert.Zero(t, h.rt.Subscribers("gifts"))
	assert.Zero(t, h.rt.Subscribers("person:1:budget"))
	assert.Nil(t, m.feed.listen()(), "listener returns once closed")
}

func TestCompactView(t *testing.T) {
	m, _ := newTestModel(t, newBackend())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Contains(t, m.View(), "resize for full view")
}

func TestSpinner_StopsOnceLoaded(t *testing.T) {
	m, _ := newTestModel(t, newBackend())
	_, cmd := update(t, m, m.spinner.Tick())
	assert.NotNil(t, cmd, "ticks while loading")

	m = loaded(t, m)
	_, cmd = update(t, m, m.spinner.Tick())
	assert.Nil(t, cmd)
}
