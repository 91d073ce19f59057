package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"smartsplit/internal/domain"
	"smartsplit/internal/port"
)

// LocalSink writes sections into a directory on the local filesystem.
type LocalSink struct {
	dir      string
	strategy domain.CollisionStrategy
}

// NewLocalSink creates a LocalSink. An empty strategy means rename.
func NewLocalSink(dir string, strategy domain.CollisionStrategy) *LocalSink {
	if strategy == "" {
		strategy = domain.CollisionRename
	}
	return &LocalSink{dir: dir, strategy: strategy}
}

func (s *LocalSink) Export(ctx context.Context, source io.ReadSeeker, run *domain.SplitRun) (*port.ExportResult, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", domain.ErrExportFailed, s.dir, err)
	}

	exists := func(name string) (bool, error) {
		_, err := os.Stat(filepath.Join(s.dir, name))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	result := &port.ExportResult{Files: make([]port.ExportedFile, 0, len(run.Sections))}
	taken := make(map[string]bool, len(run.Sections))
	for i, sec := range run.Sections {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}

		name, skip, err := resolveName(fileName(sec), s.strategy, taken, exists)
		if err != nil {
			return nil, fmt.Errorf("%w: section %d: %v", domain.ErrExportFailed, i, err)
		}
		path := filepath.Join(s.dir, name)
		if skip {
			log.Printf("export.LocalSink: skipping section %d, %s exists", i, path)
			result.Files = append(result.Files, port.ExportedFile{SectionIndex: i, Name: name, Location: path, Skipped: true})
			continue
		}

		data, err := ExtractRange(source, sec.StartPage, sec.EndPage)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("%w: writing %s: %v", domain.ErrExportFailed, path, err)
		}
		taken[name] = true
		result.Files = append(result.Files, port.ExportedFile{SectionIndex: i, Name: name, Location: path})
	}

	log.Printf("export.LocalSink: run %s exported %d sections to %s", run.ID, len(result.Files), s.dir)
	return result, nil
}
