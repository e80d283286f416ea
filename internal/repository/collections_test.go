package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"go.uber.org/zap"
)

func newTestCollectionStore(t *testing.T) (*FileCollectionStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileCollectionStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileCollectionStore: %v", err)
	}
	return s, dir
}

func TestCollectionStore_PathForSanitizesNames(t *testing.T) {
	s, dir := newTestCollectionStore(t)

	cases := map[string]string{
		"clients":          "clients.json",
		"my collection":    "my_collection.json",
		"../../etc/passwd": "______etc_passwd.json",
		"a/b\\c:d":         "a_b_c_d.json",
		"héllo":            "h_llo.json",
	}
	for input, wantFile := range cases {
		got := s.PathFor(input)
		if got != filepath.Join(dir, wantFile) {
			t.Errorf("PathFor(%q) = %q; want %q", input, got, filepath.Join(dir, wantFile))
		}
		rel, err := filepath.Rel(dir, got)
		if err != nil || strings.HasPrefix(rel, "..") {
			t.Errorf("PathFor(%q) escapes the data directory: %q", input, got)
		}
	}
}

func TestCollectionStore_RoundTrip(t *testing.T) {
	s, _ := newTestCollectionStore(t)
	ctx := context.Background()

	records := []models.Record{
		{"name": "Acme", "amount": float64(1200)},
		{"name": "Globex", "note": "priority"},
	}
	if ok := s.Save(ctx, "clients", records); !ok {
		t.Fatal("Save = false; want true")
	}

	got := s.Load(ctx, "clients")
	if !reflect.DeepEqual(got, records) {
		t.Errorf("Load = %+v; want %+v", got, records)
	}
}

func TestCollectionStore_LoadMissingOrCorrupt(t *testing.T) {
	s, dir := newTestCollectionStore(t)
	ctx := context.Background()

	if got := s.Load(ctx, "nope"); len(got) != 0 {
		t.Errorf("Load(missing) = %+v; want empty array", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(ctx, "broken"); len(got) != 0 {
		t.Errorf("Load(corrupt) = %+v; want empty array", got)
	}

	// Valid JSON that is not an array degrades the same way.
	if err := os.WriteFile(filepath.Join(dir, "object.json"), []byte(`{"a":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(ctx, "object"); len(got) != 0 {
		t.Errorf("Load(non-array) = %+v; want empty array", got)
	}
}

func TestCollectionStore_SaveNilWritesEmptyArray(t *testing.T) {
	s, _ := newTestCollectionStore(t)
	ctx := context.Background()

	if ok := s.Save(ctx, "empty", nil); !ok {
		t.Fatal("Save(nil) = false; want true")
	}
	data, err := os.ReadFile(s.PathFor("empty"))
	if err != nil {
		t.Fatal(err)
	}
	var arr []any
	if err := json.Unmarshal(data, &arr); err != nil {
		t.Errorf("on-disk content is not a JSON array: %s", data)
	}
}

func TestCollectionStore_ConcurrentSavesStayValid(t *testing.T) {
	s, _ := newTestCollectionStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records := make([]models.Record, 0, i)
			for j := 0; j < i; j++ {
				records = append(records, models.Record{"n": fmt.Sprintf("%d-%d", i, j)})
			}
			if ok := s.Save(ctx, "contended", records); !ok {
				t.Errorf("concurrent Save %d failed", i)
			}
		}(i)
	}
	wg.Wait()

	// Last writer wins, but the file is always one valid JSON array.
	data, err := os.ReadFile(s.PathFor("contended"))
	if err != nil {
		t.Fatal(err)
	}
	var arr []models.Record
	if err := json.Unmarshal(data, &arr); err != nil {
		t.Errorf("file after concurrent saves is not a valid JSON array: %v", err)
	}
}

func TestCollectionStore_Count(t *testing.T) {
	s, _ := newTestCollectionStore(t)
	ctx := context.Background()

	if got := s.Count(ctx); got != 0 {
		t.Fatalf("Count = %d; want 0", got)
	}
	s.Save(ctx, "a", nil)
	s.Save(ctx, "b", nil)
	if got := s.Count(ctx); got != 2 {
		t.Errorf("Count = %d; want 2", got)
	}
}
