package storage

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/qlcatalog/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleBatch() *types.Batch {
	return &types.Batch{
		Records: []types.Record{
			{ID: "1", Type: "lab", Name: `A "Name"`, Duration: "5m", Level: "L1", Credits: "1", Link: "https://x"},
			{ID: "2", Type: "course", Name: "Data, Pipelines", Link: "https://y"},
		},
		Filename:  "qwiklabs-catalog-labs-2026-01-02T03-04-05-000Z",
		Filter:    "labs",
		SourceURL: "https://www.skills.google/catalog?format[0]=labs",
		ScrapedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// --- CSV encoding ---

func TestEncodeCSVEscapesName(t *testing.T) {
	got := EncodeCSV([]types.Record{
		{ID: "1", Type: "lab", Name: `A "Name"`, Duration: "5m", Level: "L1", Credits: "1", Link: "https://x"},
	})
	if !strings.Contains(got, `1,lab,"A ""Name""",5m,L1,1,https://x`) {
		t.Errorf("unexpected CSV:\n%s", got)
	}
	if !strings.HasPrefix(got, CSVHeader+"\n") {
		t.Errorf("CSV must start with header:\n%s", got)
	}
}

func TestEncodeCSVLayout(t *testing.T) {
	got := EncodeCSV(sampleBatch().Records)
	want := "ID,Type,Name,Duration,Level,Credits,Link\n" +
		`1,lab,"A ""Name""",5m,L1,1,https://x` + "\n" +
		`2,course,"Data, Pipelines",,,,https://y`
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("CSV must not end with a newline")
	}
}

func TestEncodeCSVEmpty(t *testing.T) {
	if got := EncodeCSV(nil); got != CSVHeader+"\n" {
		t.Errorf("unexpected empty encoding %q", got)
	}
}

// --- File storage ---

func TestFileStorageCSV(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage("csv", dir, "none", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	batch := sampleBatch()
	if err := s.Store(batch); err != nil {
		t.Fatalf("store: %v", err)
	}

	path := s.Path(batch.Filename)
	if !strings.HasSuffix(path, "qwiklabs-catalog-labs-2026-01-02T03-04-05-000Z.csv") {
		t.Errorf("unexpected path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != EncodeCSV(batch.Records) {
		t.Errorf("file content differs from encoder output:\n%s", data)
	}
	if paths := s.Paths(); len(paths) != 1 || paths[0] != path {
		t.Errorf("unexpected paths %v", paths)
	}
}

func TestFileStorageJSON(t *testing.T) {
	s, err := NewFileStorage("json", t.TempDir(), "none", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	batch := sampleBatch()
	if err := s.Store(batch); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(s.Path(batch.Filename))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n    {") {
		t.Errorf("expected 4-space indentation:\n%s", data)
	}
	var got []types.Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != `A "Name"` {
		t.Errorf("unexpected records %+v", got)
	}
}

func TestFileStorageJSONL(t *testing.T) {
	s, err := NewFileStorage("jsonl", t.TempDir(), "none", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	batch := sampleBatch()
	if err := s.Store(batch); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(s.Path(batch.Filename))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestFileStorageBrotli(t *testing.T) {
	s, err := NewFileStorage("csv", t.TempDir(), "brotli", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	batch := sampleBatch()
	if err := s.Store(batch); err != nil {
		t.Fatal(err)
	}

	path := s.Path(batch.Filename)
	if !strings.HasSuffix(path, ".csv.br") {
		t.Errorf("expected .csv.br suffix, got %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data, err := io.ReadAll(brotli.NewReader(f))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != EncodeCSV(batch.Records) {
		t.Errorf("decompressed content mismatch:\n%s", data)
	}
}

func TestFileStorageRejectsEmptyBatch(t *testing.T) {
	s, err := NewFileStorage("csv", t.TempDir(), "none", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store(&types.Batch{Filename: "x"}); !errors.Is(err, types.ErrEmptyDataset) {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestNewFileStorageInvalid(t *testing.T) {
	if _, err := NewFileStorage("xml", t.TempDir(), "none", testLogger); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := NewFileStorage("csv", t.TempDir(), "zstd", testLogger); err == nil {
		t.Error("expected error for unsupported compression")
	}
}

// --- Multi storage ---

type recordingStorage struct {
	name    string
	err     error
	batches []*types.Batch
	closed  bool
}

func (r *recordingStorage) Name() string { return r.name }

func (r *recordingStorage) Store(b *types.Batch) error {
	r.batches = append(r.batches, b)
	return r.err
}

func (r *recordingStorage) Close() error {
	r.closed = true
	return nil
}

func TestMultiStorageFanOut(t *testing.T) {
	ok := &recordingStorage{name: "ok"}
	bad := &recordingStorage{name: "bad", err: errors.New("disk full")}
	m := NewMultiStorage([]Storage{bad, ok}, testLogger)

	err := m.Store(sampleBatch())
	var se *types.StorageError
	if !errors.As(err, &se) || se.Backend != "bad" {
		t.Fatalf("expected StorageError from bad backend, got %v", err)
	}
	if len(ok.batches) != 1 {
		t.Error("healthy backend should still receive the batch")
	}

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !ok.closed || !bad.closed {
		t.Error("all backends should be closed")
	}
}

func TestNewMongoStorageUnreachable(t *testing.T) {
	uri := "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"
	if _, err := NewMongoStorage(uri, "qlcatalog", "records", testLogger); err == nil {
		t.Fatal("expected ping failure for unreachable server")
	}
}
