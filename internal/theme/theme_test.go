package theme

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestStore_DefaultsToSystem(t *testing.T) {
	s := NewStore(t.TempDir())

	got, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != System {
		t.Errorf("Get() = %q, want %q", got, System)
	}
}

func TestStore_SetGet(t *testing.T) {
	s := NewStore(t.TempDir())

	for _, want := range []Theme{Light, Dark, System} {
		if err := s.Set(want); err != nil {
			t.Fatalf("Set(%q): %v", want, err)
		}
		got, err := s.Get()
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != want {
			t.Errorf("Get() = %q, want %q", got, want)
		}
	}
}

func TestStore_SetRejectsInvalid(t *testing.T) {
	s := NewStore(t.TempDir())

	err := s.Set(Theme("sepia"))
	if !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("Set(sepia) error = %v, want ErrInvalidTheme", err)
	}
	if _, statErr := os.Stat(s.Path()); !os.IsNotExist(statErr) {
		t.Error("invalid theme should not create the state file")
	}
}

func TestStore_PreservesOtherKeys(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := os.WriteFile(s.Path(), []byte(`{"last_person": 42}`), 0644); err != nil {
		t.Fatal(err)
	}

	if err := s.Set(Dark); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"last_person": 42`) {
		t.Errorf("other keys lost: %s", data)
	}
	if !strings.Contains(string(data), `"theme": "dark"`) {
		t.Errorf("theme not written: %s", data)
	}
}

func TestStore_UnknownStoredValueFallsBack(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := os.WriteFile(s.Path(), []byte(`{"theme": "neon"}`), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != System {
		t.Errorf("Get() = %q, want %q", got, System)
	}
}

func TestStore_Cycle(t *testing.T) {
	s := NewStore(t.TempDir())

	want := []Theme{Light, Dark, System, Light}
	for i, w := range want {
		got, err := s.Cycle()
		if err != nil {
			t.Fatalf("Cycle %d: %v", i, err)
		}
		if got != w {
			t.Errorf("Cycle %d = %q, want %q", i, got, w)
		}
	}
}

func TestStore_ConcurrentSet(t *testing.T) {
	s := NewStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			th := Light
			if i%2 == 0 {
				th = Dark
			}
			if err := s.Set(th); err != nil {
				t.Errorf("Set: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != Light && got != Dark {
		t.Errorf("Get() = %q after concurrent writes", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Theme
		wantErr bool
	}{
		{"light", Light, false},
		{"dark", Dark, false},
		{"system", System, false},
		{"", "", true},
		{"Dark", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	orig := hasDarkBackground
	defer func() { hasDarkBackground = orig }()

	hasDarkBackground = func() bool { return true }
	if got := System.Resolve(); got != Dark {
		t.Errorf("System.Resolve() on dark terminal = %q", got)
	}
	hasDarkBackground = func() bool { return false }
	if got := System.Resolve(); got != Light {
		t.Errorf("System.Resolve() on light terminal = %q", got)
	}
	if got := Dark.Resolve(); got != Dark {
		t.Errorf("Dark.Resolve() = %q", got)
	}
}
