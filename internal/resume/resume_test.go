package resume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.json"))
	if err != nil || s != nil {
		t.Fatalf("Load(missing) = %v, %v; want nil, nil", s, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.state")
	s := New(path, "http://trusted", "http://testing", 3)
	s.MarkCompleted("/")
	s.MarkCompleted("/about")
	s.MarkCompleted("/about")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.RunID == "" || loaded.RunID != s.RunID {
		t.Errorf("RunID = %q, want %q", loaded.RunID, s.RunID)
	}
	if !loaded.Matches("http://trusted", "http://testing") || loaded.Matches("http://trusted", "http://other") {
		t.Error("Matches did not compare the origin pair")
	}
	if !loaded.IsCompleted("/about") || loaded.IsCompleted("/pricing") {
		t.Error("completed set not restored")
	}

	remaining := loaded.FilterRemaining([]string{"/", "/about", "/pricing"})
	if diff := cmp.Diff([]string{"/pricing"}, remaining); diff != "" {
		t.Errorf("FilterRemaining mismatch (-want +got):\n%s", diff)
	}

	if err := loaded.Remove(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("resume file should be gone")
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.state")
	os.WriteFile(path, []byte("{not json"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
