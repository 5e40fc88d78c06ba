package entity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/marcus/giftwell/internal/apiclient"
	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/logger"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/realtime"
)

// fakeServer is a tiny in-memory backend covering the endpoints the entity
// tests touch. hits counts requests per "METHOD path".
type fakeServer struct {
	mu      sync.Mutex
	hits    map[string]int
	gifts   map[int64]models.Gift
	items   map[int64][]models.ListItem
	failPut bool
	onPut   func()
	nextID  int64

	// hold, when set, parks the next GET /gifts after it has read its reply.
	hold *hold
}

type hold struct {
	reached chan struct{}
	release chan struct{}
}

// holdList parks the next gift list request once it has read the gifts.
func (s *fakeServer) holdList() *hold {
	h := &hold{reached: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.hold = h
	s.mu.Unlock()
	return h
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		hits:   map[string]int{},
		gifts:  map[int64]models.Gift{},
		items:  map[int64][]models.ListItem{},
		nextID: 100,
	}
}

func (s *fakeServer) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

func (s *fakeServer) addItem(listID int64, it models.ListItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ListID = listID
	s.items[listID] = append(s.items[listID], it)
}

func (s *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
	}

	mux.HandleFunc("GET /gifts", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		s.mu.Lock()
		page := models.Page[models.Gift]{}
		for _, g := range s.gifts {
			page.Items = append(page.Items, g)
		}
		h := s.hold
		s.hold = nil
		s.mu.Unlock()
		if h != nil {
			close(h.reached)
			<-h.release
		}
		writeJSON(w, page)
	})
	mux.HandleFunc("GET /gifts/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.Lock()
		g, ok := s.gifts[id]
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"detail": "Gift not found"})
			return
		}
		writeJSON(w, g)
	})
	mux.HandleFunc("POST /gifts", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		var in models.GiftInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		s.mu.Lock()
		s.nextID++
		g := models.Gift{ID: s.nextID, Title: in.Title, Status: models.GiftStatusIdea}
		s.gifts[g.ID] = g
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, g)
	})
	mux.HandleFunc("PUT /gifts/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var in models.GiftInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		s.mu.Lock()
		g := s.gifts[id]
		g.ID = id
		g.Title = in.Title
		s.gifts[id] = g
		s.mu.Unlock()
		writeJSON(w, g)
	})
	mux.HandleFunc("DELETE /gifts/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.Lock()
		delete(s.gifts, id)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /lists", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, models.Page[models.List]{Items: []models.List{{ID: 10, Name: "Christmas"}}})
	})
	mux.HandleFunc("GET /lists/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.Lock()
		items := append([]models.ListItem(nil), s.items[id]...)
		s.mu.Unlock()
		writeJSON(w, models.Page[models.ListItem]{Items: items})
	})
	mux.HandleFunc("POST /lists/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		listID, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var in models.ListItemInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		s.mu.Lock()
		s.nextID++
		it := models.ListItem{ID: s.nextID, ListID: listID, GiftID: in.GiftID, Status: in.Status}
		s.items[listID] = append(s.items[listID], it)
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, it)
	})
	mux.HandleFunc("GET /lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.Lock()
		n := len(s.items[id])
		s.mu.Unlock()
		writeJSON(w, models.List{ID: id, Name: "Christmas", ItemCount: n})
	})
	mux.HandleFunc("PUT /lists/{id}/items/{item}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if s.onPut != nil {
			s.onPut()
		}
		if s.failPut {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]string{"detail": "database unavailable"})
			return
		}
		listID, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		itemID, _ := strconv.ParseInt(r.PathValue("item"), 10, 64)
		var in models.ListItemInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		s.mu.Lock()
		var out models.ListItem
		for i, it := range s.items[listID] {
			if it.ID == itemID {
				s.items[listID][i].Status = in.Status
				out = s.items[listID][i]
			}
		}
		s.mu.Unlock()
		writeJSON(w, out)
	})
	mux.HandleFunc("GET /budgets/persons/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		writeJSON(w, models.PersonBudget{PersonID: id})
	})
	mux.HandleFunc("PUT /budgets/persons/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		writeJSON(w, models.PersonBudget{PersonID: id})
	})
	mux.HandleFunc("GET /activity/recent", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, models.Page[models.Activity]{Items: []models.Activity{{ID: 1, Summary: "first"}}})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type fixture struct {
	srv    *fakeServer
	cache  *cache.Cache
	rt     *realtime.Static
	clock  clockwork.FakeClock
	client *Client
}

func newFixture(t *testing.T, state realtime.ConnState) *fixture {
	t.Helper()
	return newFixtureWith(t, state, Options{
		Debounce:     100 * time.Millisecond,
		PollInterval: 10 * time.Second,
	})
}

func newFixtureWith(t *testing.T, state realtime.ConnState, opts Options) *fixture {
	t.Helper()
	srv := newFakeServer()
	hs := httptest.NewServer(srv.handler())
	t.Cleanup(hs.Close)

	clock := clockwork.NewFakeClock()
	c := cache.New(cache.WithClock(clock))
	rt := realtime.NewStatic(state)
	api := apiclient.New(hs.URL, "tok")
	opts.Clock = clock
	cl := New(api, c, rt, logger.Mock(), opts)
	t.Cleanup(c.Wait)
	return &fixture{srv: srv, cache: c, rt: rt, clock: clock, client: cl}
}
