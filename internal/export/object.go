package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/google/uuid"

	"smartsplit/internal/domain"
	"smartsplit/internal/port"
)

// ObjectSink uploads sections to object storage under <prefix>/<run id>/.
type ObjectSink struct {
	storage   port.ObjectStorage
	bucket    string
	prefix    string
	strategy  domain.CollisionStrategy
	urlExpiry int64 // seconds; 0 reports storage locations instead of presigned URLs
}

// NewObjectSink creates an ObjectSink. An empty strategy means rename. With a
// positive urlExpirySecs each exported file is reported as a presigned GET URL
// valid for that long.
func NewObjectSink(storage port.ObjectStorage, bucket, prefix string, strategy domain.CollisionStrategy, urlExpirySecs int64) *ObjectSink {
	if strategy == "" {
		strategy = domain.CollisionRename
	}
	return &ObjectSink{storage: storage, bucket: bucket, prefix: prefix, strategy: strategy, urlExpiry: urlExpirySecs}
}

func (s *ObjectSink) runPrefix(runID uuid.UUID) string {
	return path.Join(s.prefix, runID.String()) + "/"
}

func (s *ObjectSink) key(run *domain.SplitRun, name string) string {
	return path.Join(s.prefix, run.ID.String(), name)
}

// location is what callers get back for key: a presigned URL when enabled,
// otherwise the upload location or the key itself.
func (s *ObjectSink) location(ctx context.Context, key, uploaded string) string {
	if s.urlExpiry > 0 {
		url, err := s.storage.GetPresignedURL(ctx, s.bucket, key, s.urlExpiry)
		if err == nil {
			return url
		}
		log.Printf("export.ObjectSink: presigning %s: %v", key, err)
	}
	if uploaded != "" {
		return uploaded
	}
	return key
}

func (s *ObjectSink) Export(ctx context.Context, source io.ReadSeeker, run *domain.SplitRun) (*port.ExportResult, error) {
	exists := func(name string) (bool, error) {
		return s.storage.Exists(ctx, s.bucket, s.key(run, name))
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
		key := s.key(run, name)
		if skip {
			log.Printf("export.ObjectSink: skipping section %d, %s exists", i, key)
			result.Files = append(result.Files, port.ExportedFile{SectionIndex: i, Name: name, Location: s.location(ctx, key, ""), Skipped: true})
			continue
		}

		data, err := ExtractRange(source, sec.StartPage, sec.EndPage)
		if err != nil {
			return nil, err
		}
		out, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.bucket,
			Key:         key,
			Body:        bytes.NewReader(data),
			ContentType: "application/pdf",
			Size:        int64(len(data)),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: uploading %s: %v", domain.ErrExportFailed, key, err)
		}
		taken[name] = true
		result.Files = append(result.Files, port.ExportedFile{SectionIndex: i, Name: name, Location: s.location(ctx, key, out.Location)})
	}

	log.Printf("export.ObjectSink: run %s uploaded %d sections to %s", run.ID, len(result.Files), s.bucket)
	return result, nil
}

// Purge deletes every object exported for runID.
func (s *ObjectSink) Purge(ctx context.Context, runID uuid.UUID) error {
	keys, err := s.storage.List(ctx, s.bucket, s.runPrefix(runID))
	if err != nil {
		return fmt.Errorf("%w: listing run %s: %v", domain.ErrExportFailed, runID, err)
	}

	var failed []error
	for _, key := range keys {
		if err := s.storage.Delete(ctx, s.bucket, key); err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: purging run %s: %v", domain.ErrExportFailed, runID, errors.Join(failed...))
	}
	log.Printf("export.ObjectSink: run %s purged %d objects from %s", runID, len(keys), s.bucket)
	return nil
}
