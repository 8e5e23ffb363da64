package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"projects":         "projects",
		"projects:active":  "projects_active",
		"tags/all v2":      "tags_all_v2",
		"../../etc/passwd": "______etc_passwd",
	}
	for in, want := range tests {
		if got := SanitizeKey(in); got != want {
			t.Errorf("SanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetGet(t *testing.T) {
	s := New(t.TempDir())
	want := []project{{"p1", "Home"}, {"p2", "Work"}}
	if err := s.Set("projects", want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	var got []project
	ok, err := s.Get("projects", &got)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if len(got) != 2 || got[1].Name != "Work" {
		t.Errorf("Get() = %+v", got)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "projects.json")); err != nil {
		t.Errorf("cache file missing: %v", err)
	}
}

func TestExpiry(t *testing.T) {
	s := New(t.TempDir())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	if err := s.Set("tags", []string{"a"}, 5*time.Minute); err != nil {
		t.Fatal(err)
	}
	var got []string
	if ok, _ := s.Get("tags", &got); !ok {
		t.Fatalf("fresh entry missed")
	}
	now = now.Add(5 * time.Minute)
	if ok, _ := s.Get("tags", &got); ok {
		t.Errorf("expired entry returned")
	}
}

func TestCorruptEntryIsDropped(t *testing.T) {
	s := New(t.TempDir())
	p := filepath.Join(s.Dir(), "folders.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	var got []string
	ok, err := s.Get("folders", &got)
	if ok || err != nil {
		t.Errorf("Get() = %v, %v, want miss without error", ok, err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("corrupt entry not removed")
	}
}

func TestConcurrentWriters(t *testing.T) {
	s := New(t.TempDir())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Set("projects", []int{i}, time.Minute); err != nil {
				t.Errorf("Set() error = %v", err)
			}
		}(i)
	}
	wg.Wait()
	var got []int
	if ok, err := s.Get("projects", &got); !ok || err != nil || len(got) != 1 {
		t.Errorf("Get() after races = %v, %v, %v", got, ok, err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(s.Dir(), ".tmp-*"))
	if len(leftovers) > 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestClearAndDelete(t *testing.T) {
	s := New(t.TempDir())
	for _, k := range []string{"projects", "tags", "folders"} {
		if err := s.Set(k, k, time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Delete("tags", "missing"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	n, err := s.Clear()
	if err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v, want 2", n, err)
	}
	if n, _ := New(filepath.Join(s.Dir(), "nope")).Clear(); n != 0 {
		t.Errorf("Clear() on missing dir = %d", n)
	}
}
