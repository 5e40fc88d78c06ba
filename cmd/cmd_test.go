package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/marcus/giftwell/internal/models"
)

// fakeServer records mutating requests and serves canned responses.
type fakeServer struct {
	mu     sync.Mutex
	bodies map[string][]byte
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{bodies: make(map[string][]byte)}
	budget := 100.0

	mux := http.NewServeMux()
	mux.HandleFunc("GET /persons", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Page[models.Person]{Items: []models.Person{
			{ID: 1, Name: "Ada", Nickname: "Addie"},
			{ID: 2, Name: "Grace"},
		}})
	})
	mux.HandleFunc("GET /gifts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "10" {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"message": "gift not found"})
			return
		}
		writeJSON(w, models.Gift{ID: 10, Title: "Telescope", Status: models.GiftStatusPlanned, PersonIDs: []int64{1}})
	})
	mux.HandleFunc("GET /comments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Page[models.Comment]{})
	})
	mux.HandleFunc("POST /comments", func(w http.ResponseWriter, r *http.Request) {
		fs.record("POST /comments", r)
		writeJSON(w, models.Comment{ID: 5, EntityType: models.CommentOnGift, EntityID: 10, Body: "hi"})
	})
	mux.HandleFunc("GET /budgets/persons/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.PersonBudget{
			PersonID:  1,
			Recipient: models.RoleBudget{Budget: &budget, GiftCount: 2, PurchasedTotal: 30, PlannedTotal: 40},
		})
	})
	mux.HandleFunc("GET /lists/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Page[models.ListItem]{Items: []models.ListItem{
			{ID: 3, ListID: 4, GiftID: 10, Status: models.GiftStatusPlanned, Gift: &models.Gift{ID: 10, Title: "Telescope"}},
		}})
	})
	mux.HandleFunc("PUT /lists/{id}/items/{item}", func(w http.ResponseWriter, r *http.Request) {
		fs.record("PUT /lists/items", r)
		writeJSON(w, models.ListItem{ID: 3, ListID: 4, GiftID: 10, Status: models.GiftStatusPurchased,
			Gift: &models.Gift{ID: 10, Title: "Telescope"}})
	})

	hs := httptest.NewServer(mux)
	t.Cleanup(hs.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GIFTWELL_HOME", t.TempDir())
	t.Setenv("GIFTWELL_API_URL", hs.URL)
	t.Setenv("GIFTWELL_LOGGING_LEVEL", "ERROR")
	return fs
}

func (fs *fakeServer) record(name string, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	fs.mu.Lock()
	fs.bodies[name] = data
	fs.mu.Unlock()
}

func (fs *fakeServer) body(name string) []byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.bodies[name]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// resetFlags restores every flag to its default so runs don't leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command and returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	oldOut := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = oldOut

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return ansi.Strip(buf.String()), err
}

func TestPersonsList(t *testing.T) {
	newFakeServer(t)

	out, err := runCLI(t, "persons", "list")
	if err != nil {
		t.Fatalf("persons list: %v", err)
	}
	for _, want := range []string{"#1", "Ada", "(Addie)", "Grace"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPersonsListJSON(t *testing.T) {
	newFakeServer(t)

	out, err := runCLI(t, "persons", "list", "--json")
	if err != nil {
		t.Fatalf("persons list --json: %v", err)
	}
	var page models.Page[models.Person]
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(page.Items) != 2 || page.Items[1].Name != "Grace" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestGiftShow(t *testing.T) {
	newFakeServer(t)

	out, err := runCLI(t, "gifts", "show", "10")
	if err != nil {
		t.Fatalf("gifts show: %v", err)
	}
	if !strings.Contains(out, "Telescope") {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "For: Ada") {
		t.Errorf("recipient not resolved to a name:\n%s", out)
	}
}

func TestGiftShowNotFoundJSON(t *testing.T) {
	newFakeServer(t)

	out, err := runCLI(t, "gifts", "show", "99", "--json")
	if err == nil {
		t.Fatal("expected an error")
	}
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if resp.Error.Code != "not_found" {
		t.Errorf("code = %q, want not_found", resp.Error.Code)
	}
}

func TestUnreachableServerJSON(t *testing.T) {
	newFakeServer(t)
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	t.Setenv("GIFTWELL_API_URL", down.URL)

	out, err := runCLI(t, "persons", "list", "--json")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(out, `"code":"network"`) {
		t.Errorf("expected network code, got %s", out)
	}
}

func TestInvalidIDIsUsageError(t *testing.T) {
	newFakeServer(t)

	out, err := runCLI(t, "gifts", "show", "abc", "--json")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(out, `"invalid_input"`) {
		t.Errorf("expected invalid_input code, got %s", out)
	}
}

func TestBudgetShow(t *testing.T) {
	newFakeServer(t)

	out, err := runCLI(t, "budget", "show", "1")
	if err != nil {
		t.Fatalf("budget show: %v", err)
	}
	if !strings.Contains(out, "Receiving") {
		t.Errorf("missing recipient bar:\n%s", out)
	}
	if strings.Contains(out, "Buying") {
		t.Errorf("purchaser role has no budget or gifts and should be hidden:\n%s", out)
	}
}

func TestBudgetShowJSONStates(t *testing.T) {
	newFakeServer(t)

	out, err := runCLI(t, "budget", "show", "1", "--json")
	if err != nil {
		t.Fatalf("budget show --json: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if resp["recipient_state"] != "full-bar" || resp["purchaser_state"] != "hidden" {
		t.Errorf("unexpected states: %v / %v", resp["recipient_state"], resp["purchaser_state"])
	}
}

func TestListsToggle(t *testing.T) {
	fs := newFakeServer(t)

	out, err := runCLI(t, "lists", "toggle", "4", "3")
	if err != nil {
		t.Fatalf("lists toggle: %v", err)
	}
	if !strings.Contains(out, "[x]") {
		t.Errorf("expected checked item:\n%s", out)
	}
	var in models.ListItemInput
	if err := json.Unmarshal(fs.body("PUT /lists/items"), &in); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if in.Status != models.GiftStatusPurchased {
		t.Errorf("sent status %q, want purchased", in.Status)
	}
}

func TestListsToggleUnknownItem(t *testing.T) {
	newFakeServer(t)

	if _, err := runCLI(t, "lists", "toggle", "4", "42"); err == nil {
		t.Fatal("expected an error for an item not on the list")
	}
}

func TestCommentsAdd(t *testing.T) {
	fs := newFakeServer(t)

	_, err := runCLI(t, "comments", "add", "gift", "10", "Get", "the", "blue", "one")
	if err != nil {
		t.Fatalf("comments add: %v", err)
	}
	var in models.CommentInput
	if err := json.Unmarshal(fs.body("POST /comments"), &in); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if in.EntityType != models.CommentOnGift || in.EntityID != 10 || in.Body != "Get the blue one" {
		t.Errorf("unexpected body: %+v", in)
	}
}

func TestCommentsAddFromStdin(t *testing.T) {
	fs := newFakeServer(t)
	rootCmd.SetIn(strings.NewReader("Wrapped already\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	if _, err := runCLI(t, "comments", "add", "gift", "10", "-"); err != nil {
		t.Fatalf("comments add -: %v", err)
	}
	var in models.CommentInput
	if err := json.Unmarshal(fs.body("POST /comments"), &in); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if in.Body != "Wrapped already" {
		t.Errorf("body = %q", in.Body)
	}
}

func TestThemeSetAndGet(t *testing.T) {
	newFakeServer(t)

	if _, err := runCLI(t, "theme", "dark"); err != nil {
		t.Fatalf("theme dark: %v", err)
	}
	out, err := runCLI(t, "theme")
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	if strings.TrimSpace(out) != "dark" {
		t.Errorf("theme = %q, want dark", out)
	}

	out, err = runCLI(t, "theme", "--cycle")
	if err != nil {
		t.Fatalf("theme --cycle: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "system") {
		t.Errorf("dark should cycle to system, got %q", out)
	}

	if _, err := runCLI(t, "theme", "sepia"); err == nil {
		t.Error("expected an error for an unknown theme")
	}
}

func TestUnknownFlagSuggestion(t *testing.T) {
	newFakeServer(t)

	_, err := runCLI(t, "gifts", "add", "Kite", "--recipient", "1")
	if err == nil || !strings.Contains(err.Error(), "--for") {
		t.Errorf("expected a hint pointing at --for, got %v", err)
	}
	_, err = runCLI(t, "gifts", "add", "Kite", "--stauts", "idea")
	if err == nil || !strings.Contains(err.Error(), "did you mean --status") {
		t.Errorf("expected a did-you-mean for --status, got %v", err)
	}
}

func TestVersionShort(t *testing.T) {
	newFakeServer(t)
	SetVersion("v1.2.3")
	t.Cleanup(func() { SetVersion("") })

	out, err := runCLI(t, "version", "--short")
	if err != nil {
		t.Fatalf("version --short: %v", err)
	}
	if out != "v1.2.3" {
		t.Errorf("version --short = %q", out)
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		in      string
		want    []int64
		wantErr bool
	}{
		{"", nil, false},
		{"1", []int64{1}, false},
		{"1, 2,#3", []int64{1, 2, 3}, false},
		{"1,x", nil, true},
		{"0", nil, true},
		{"-4", nil, true},
	}
	for _, tt := range tests {
		got, err := parseIDs(tt.in, "person")
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIDs(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseIDs(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseIDs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(" books, ,lego ,")
	if len(got) != 2 || got[0] != "books" || got[1] != "lego" {
		t.Errorf("splitTags = %v", got)
	}
	if splitTags("") != nil {
		t.Error("empty input should yield nil")
	}
}

func TestParseCommentTarget(t *testing.T) {
	tests := []struct {
		kind string
		want models.CommentEntity
	}{
		{"gift", models.CommentOnGift},
		{"Lists", models.CommentOnList},
		{"occasion", models.CommentOnOccasion},
		{"people", models.CommentOnPerson},
	}
	for _, tt := range tests {
		got, id, err := parseCommentTarget(tt.kind, "7")
		if err != nil || got != tt.want || id != 7 {
			t.Errorf("parseCommentTarget(%q) = %q, %d, %v", tt.kind, got, id, err)
		}
	}
	if _, _, err := parseCommentTarget("budget", "7"); err == nil {
		t.Error("budget is not commentable")
	}
}

func TestActivityRejectsNonPositiveLimit(t *testing.T) {
	newFakeServer(t)

	out, err := runCLI(t, "activity", "--limit", "0", "--json")
	if err == nil {
		t.Fatal("limit 0 should be rejected")
	}
	if !strings.Contains(out, `"invalid_input"`) {
		t.Errorf("expected invalid_input code, got %s", out)
	}
}
