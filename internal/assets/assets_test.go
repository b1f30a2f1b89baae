package assets

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/drawstate/pkg/grf"
)

func writeArchive(t *testing.T, files []grf.File) string {
	t.Helper()
	var buf bytes.Buffer
	if err := grf.Write(&buf, files); err != nil {
		t.Fatalf("grf.Write: %v", err)
	}
	path := filepath.Join(t.TempDir(), "data.grf")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestManagerPriority(t *testing.T) {
	archive := writeArchive(t, []grf.File{
		{Name: "data/model/tank.rsm", Content: []byte("from grf")},
		{Name: "data/model/jeep.rsm", Content: []byte("grf only")},
	})
	dir := writeDir(t, map[string]string{
		"data/model/tank.rsm": "from dir",
	})

	m := NewManager()
	defer m.Close()
	if err := m.AddArchive(archive); err != nil {
		t.Fatalf("AddArchive: %v", err)
	}
	if err := m.AddDir(dir); err != nil {
		t.Fatalf("AddDir: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"data/model/tank.rsm", "from dir"},
		{"data\\model\\jeep.rsm", "grf only"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			data, err := m.Load(tt.path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Load(%q) = %q, want %q", tt.path, data, tt.want)
			}
		})
	}
}

func TestManagerNotFound(t *testing.T) {
	m := NewManager()
	defer m.Close()
	if err := m.AddDir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	_, err := m.Load("data/model/missing.rsm")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if m.Exists("data/model/missing.rsm") {
		t.Error("Exists reported a missing file")
	}
}

// brokenSource holds every path but fails to read it.
type brokenSource struct{}

var errBroken = errors.New("corrupt entry")

func (brokenSource) Read(path string) ([]byte, error) { return nil, errBroken }
func (brokenSource) Contains(path string) bool        { return true }
func (brokenSource) Close() error                     { return nil }
func (brokenSource) String() string                   { return "broken" }

func TestManagerReadErrors(t *testing.T) {
	archive := writeArchive(t, []grf.File{
		{Name: "data/model/tank.rsm", Content: []byte("from grf")},
	})

	t.Run("missing in archive", func(t *testing.T) {
		m := NewManager()
		defer m.Close()
		if err := m.AddArchive(archive); err != nil {
			t.Fatal(err)
		}
		_, err := m.Load("data/model/jeep.rsm")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("read failure is not a miss", func(t *testing.T) {
		m := NewManager()
		defer m.Close()
		if err := m.AddArchive(archive); err != nil {
			t.Fatal(err)
		}
		m.AddSource(brokenSource{})

		_, err := m.Load("data/model/tank.rsm")
		if !errors.Is(err, errBroken) {
			t.Fatalf("expected the read error, got %v", err)
		}
		if errors.Is(err, ErrNotFound) {
			t.Errorf("read failure reported as missing: %v", err)
		}
	})
}

func TestManagerCache(t *testing.T) {
	dir := writeDir(t, map[string]string{"a.rsm": "v1"})
	m := NewManager()
	defer m.Close()
	if err := m.AddDir(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Load("a.rsm"); err != nil {
		t.Fatal(err)
	}
	// Changing the file does not affect the cached copy until evicted.
	if err := os.WriteFile(filepath.Join(dir, "a.rsm"), []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	data, _ := m.Load("A.RSM")
	if string(data) != "v1" {
		t.Errorf("expected cached v1, got %q", data)
	}
	hits, misses := m.CacheStats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d/%d, want 1/1", hits, misses)
	}

	m.Evict("a.rsm")
	data, _ = m.Load("a.rsm")
	if string(data) != "v2" {
		t.Errorf("expected v2 after evict, got %q", data)
	}
}

func TestAddDirInvalid(t *testing.T) {
	m := NewManager()
	if err := m.AddDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
	file := filepath.Join(t.TempDir(), "file")
	os.WriteFile(file, nil, 0644)
	if err := m.AddDir(file); err == nil {
		t.Error("expected error for non-directory")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Set("k", []byte("v"))
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit")
	}
	c.Clear()
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after clear")
	}
	hits, misses := c.Stats()
	if hits != 0 || misses != 1 {
		t.Errorf("stats after clear = %d/%d, want 0/1", hits, misses)
	}
}
