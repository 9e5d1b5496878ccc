package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/qlcatalog/internal/types"
)

// Encode renders records in the given file format: csv, json or jsonl.
func Encode(format string, records []types.Record) ([]byte, error) {
	switch format {
	case "csv":
		return []byte(EncodeCSV(records)), nil
	case "json":
		return json.MarshalIndent(records, "", "    ")
	case "jsonl":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return nil, fmt.Errorf("encode JSONL: %w", err)
			}
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", format)
	}
}

// FileStorage writes each batch to its own file in an output directory,
// named after the batch and suffixed with the format extension.
type FileStorage struct {
	format   string
	dir      string
	compress string
	mu       sync.Mutex
	paths    []string
	logger   *slog.Logger
}

// NewFileStorage creates file storage for format ("csv", "json", "jsonl").
// compress is "none" or "brotli".
func NewFileStorage(format, outputDir, compress string, logger *slog.Logger) (*FileStorage, error) {
	if _, err := Encode(format, nil); err != nil {
		return nil, err
	}
	if compress != "" && compress != "none" && compress != "brotli" {
		return nil, fmt.Errorf("unsupported compression: %s", compress)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &FileStorage{
		format:   format,
		dir:      outputDir,
		compress: compress,
		logger:   logger.With("component", format+"_storage"),
	}, nil
}

func (s *FileStorage) Name() string { return s.format }

// Path returns the file a batch with the given base name is written to.
func (s *FileStorage) Path(filename string) string {
	p := filepath.Join(s.dir, filename+"."+s.format)
	if s.compress == "brotli" {
		p += ".br"
	}
	return p
}

func (s *FileStorage) Store(batch *types.Batch) error {
	if batch.Len() == 0 {
		return types.ErrEmptyDataset
	}

	data, err := Encode(s.format, batch.Records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(batch.Filename)
	if err := s.write(path, data); err != nil {
		return err
	}
	s.paths = append(s.paths, path)

	s.logger.Info("output written", "path", path, "records", batch.Len(), "bytes", len(data))
	return nil
}

func (s *FileStorage) write(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var bw *brotli.Writer
	if s.compress == "brotli" {
		bw = brotli.NewWriterLevel(f, brotli.BestCompression)
		w = bw
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	if bw != nil {
		if err := bw.Close(); err != nil {
			return fmt.Errorf("flush brotli: %w", err)
		}
	}
	return f.Close()
}

// Paths returns every file written so far.
func (s *FileStorage) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

func (s *FileStorage) Close() error {
	s.logger.Debug("file storage closed", "files", len(s.Paths()))
	return nil
}
