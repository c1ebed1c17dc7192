package video

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"clipvault/internal/config"
	"clipvault/internal/utils/platformerrors"
	"clipvault/utils/videoid"
)

const (
	rawPrefix       = "raw/"
	processedPrefix = "processed/"

	processedMime = "video/mp4"
	processedExt  = ".mp4"
)

var videoMimePattern = regexp.MustCompile(`^video/[a-z0-9.+-]+$`)

// Repository defines persistence operations needed by the service.
type Repository interface {
	Insert(ctx context.Context, v *Video) (*Video, error)
	FindByID(ctx context.Context, id string) (*Video, error)
	ListAll(ctx context.Context) ([]Video, error)
	DeleteByID(ctx context.Context, id string) error
}

// ObjectStorage defines object store operations. Delete must succeed when the
// key is already absent.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Transcoder converts a staged input file into the fixed output profile.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// Stage is the local ephemeral holding area for in-flight uploads.
type Stage interface {
	Save(ctx context.Context, name string, body io.Reader) (string, error)
	Path(name string) string
	Remove(path string) error
}

// Service orchestrates video ingestion, deletion, and access issuance.
type Service struct {
	cfg        *config.Config
	repo       Repository
	storage    ObjectStorage
	transcoder Transcoder
	stage      Stage
	log        zerolog.Logger
}

func NewService(cfg *config.Config, repo Repository, storage ObjectStorage, transcoder Transcoder, stage Stage, log zerolog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		repo:       repo,
		storage:    storage,
		transcoder: transcoder,
		stage:      stage,
		log:        log.With().Str("component", "video-service").Logger(),
	}
}

// Ingest runs the full pipeline: stage, upload raw, transcode, upload
// processed, clean up, insert the record. No record is inserted unless the
// processed upload succeeded; a failure after the raw upload leaves an
// orphaned raw object, which is logged for operator reconciliation.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (*Video, error) {
	if !videoMimePattern.MatchString(strings.ToLower(strings.TrimSpace(in.MimeType))) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unsupported mime type %q, expected video/*", in.MimeType), nil)
	}
	if in.SizeBytes <= 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"file is empty", nil)
	}
	if in.SizeBytes > s.cfg.MaxVideoBytes {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("file exceeds max size of %d bytes", s.cfg.MaxVideoBytes), nil)
	}

	id := videoid.New()
	ext := safeExt(in.OriginalName)

	stagedPath, err := s.stage.Save(ctx, id+ext, in.Body)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			"stage upload locally", err)
	}
	outputPath := s.stage.Path(id + processedExt)
	defer s.cleanupStage(stagedPath, outputPath)

	if detected, derr := mimetype.DetectFile(stagedPath); derr == nil && !strings.HasPrefix(detected.String(), "video/") {
		s.log.Warn().Str("id", id).Str("declared", in.MimeType).Str("detected", detected.String()).
			Msg("declared mime type does not match sniffed content")
	}

	rawKey := rawPrefix + id + ext
	if err := s.uploadFile(ctx, rawKey, stagedPath, in.MimeType); err != nil {
		return nil, err
	}

	if err := s.transcoder.Transcode(ctx, stagedPath, outputPath); err != nil {
		s.log.Warn().Str("id", id).Str("raw_key", rawKey).
			Msg("transcode failed after raw upload, raw object is orphaned")
		if platformerrors.IsType(err, platformerrors.ErrorTypeProcessing) {
			return nil, err
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeProcessing,
			"transcode video", err)
	}

	processedKey := processedPrefix + id + processedExt
	if err := s.uploadFile(ctx, processedKey, outputPath, processedMime); err != nil {
		s.log.Warn().Str("id", id).Str("raw_key", rawKey).
			Msg("processed upload failed after raw upload, raw object is orphaned")
		return nil, err
	}

	processedSize, err := fileSize(outputPath)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			"stat transcoded file", err)
	}

	// Local temp files are removed before the insert; the deferred cleanup
	// turns into a no-op on this path.
	s.cleanupStage(stagedPath, outputPath)

	record, err := s.repo.Insert(ctx, &Video{
		ID:           id,
		StorageKey:   processedKey,
		OriginalName: in.OriginalName,
		MimeType:     processedMime,
		SizeBytes:    processedSize,
		OwnerID:      in.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("id", record.ID).Str("storage_key", record.StorageKey).
		Int64("size_bytes", record.SizeBytes).Msg("video ingested")
	return record, nil
}

// Delete removes the processed object, then the metadata row. The object is
// deleted first so a failure can never leave a record pointing at nothing.
func (s *Service) Delete(ctx context.Context, id string) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, record.StorageKey); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			fmt.Sprintf("delete object %s", record.StorageKey), err)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("id", id).Str("storage_key", record.StorageKey).Msg("video deleted")
	return nil
}

// IssueAccessURL returns a time-limited signed read URL for a record id or a
// raw-namespace key.
func (s *Service) IssueAccessURL(ctx context.Context, idOrKey string) (string, error) {
	key := idOrKey
	if videoid.IsValid(idOrKey) {
		record, err := s.repo.FindByID(ctx, idOrKey)
		if err != nil {
			return "", err
		}
		key = record.StorageKey
	} else if !strings.HasPrefix(idOrKey, rawPrefix) {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("%q is neither a video id nor a raw object key", idOrKey), nil)
	}

	url, err := s.storage.SignedURL(ctx, key, s.cfg.SignedURLTTL)
	if err != nil {
		if platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
			return "", err
		}
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			fmt.Sprintf("sign url for %s", key), err)
	}
	return url, nil
}

// Get returns the record for one id.
func (s *Service) Get(ctx context.Context, id string) (*Video, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all records, most recently uploaded first.
func (s *Service) List(ctx context.Context) ([]Video, error) {
	return s.repo.ListAll(ctx)
}

// Download fetches object contents for proxying.
func (s *Service) Download(ctx context.Context, id string) (io.ReadCloser, string, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	reader, mime, err := s.storage.Get(ctx, record.StorageKey)
	if err != nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			fmt.Sprintf("get object %s", record.StorageKey), err)
	}
	if mime == "" {
		mime = record.MimeType
	}
	return reader, mime, nil
}

func (s *Service) uploadFile(ctx context.Context, key, path, contentType string) error {
	file, err := os.Open(path)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			fmt.Sprintf("open staged file for %s", key), err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			fmt.Sprintf("stat staged file for %s", key), err)
	}

	if err := s.storage.Put(ctx, key, file, info.Size(), contentType); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			fmt.Sprintf("upload object %s", key), err)
	}
	return nil
}

// cleanupStage removes local temp files. Failures are logged, never
// propagated: local disk cleanup is not part of the durability contract.
func (s *Service) cleanupStage(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.stage.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("remove staged file")
		}
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// safeExt keeps a plausible extension from the user-supplied filename and
// discards anything else; the extension only ever lands in the raw object
// key, never in a command line.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
