// Package library is the media store: it places ingested files under unique
// storage keys and records them as assets in Postgres.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mediabridge/mediabridge/internal/attachment"
	"github.com/mediabridge/mediabridge/internal/db"
	"github.com/mediabridge/mediabridge/internal/media"
	"github.com/mediabridge/mediabridge/internal/storage"
)

const maxUniqueAttempts = 100

const (
	insertAssetSQL = `INSERT INTO media_assets (id, filename, title, mime, size_bytes, storage_key, source_url, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at`
	deleteAssetSQL = `DELETE FROM media_assets WHERE id = $1`
	getAssetSQL    = `SELECT id::text, filename, title, mime, size_bytes, storage_key, source_url, uploaded_by, created_at
FROM media_assets WHERE id = $1`
)

// Service ingests files into storage and tracks them as assets.
type Service struct {
	provider storage.Provider
	db       DBTX
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService creates a library over the given storage provider and database.
func NewService(log *slog.Logger, provider storage.Provider, conn DBTX) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		provider: provider,
		db:       conn,
		logger:   log.With(slog.String("service", "library")),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Store ingests input and returns the new asset id.
func (s *Service) Store(ctx context.Context, input media.StoreInput) (string, error) {
	asset, err := s.Ingest(ctx, input)
	if err != nil {
		return "", err
	}
	return asset.ID, nil
}

// Ingest copies the file at input.TempPath into storage under a
// YYYY/MM/<filename> key made unique with a numeric suffix, and records it.
// The asset row is written first so the unique storage_key constraint claims
// the key before any bytes land.
func (s *Service) Ingest(ctx context.Context, input media.StoreInput) (Asset, error) {
	if s.provider == nil || s.db == nil {
		return Asset{}, errors.New("media library not configured")
	}
	filename := strings.TrimSpace(input.Filename)
	if filename == "" || strings.ContainsAny(filename, `/\`) {
		return Asset{}, fmt.Errorf("invalid filename %q", input.Filename)
	}

	f, err := os.Open(input.TempPath)
	if err != nil {
		return Asset{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Asset{}, fmt.Errorf("stat upload: %w", err)
	}
	mime, err := detectMime(f)
	if err != nil {
		return Asset{}, err
	}

	asset := Asset{
		ID:         s.newID(),
		Title:      input.Title,
		Mime:       mime,
		SizeBytes:  info.Size(),
		SourceURL:  input.SourceURL,
		UploadedBy: input.UploadedBy,
	}
	dir := s.now().UTC().Format("2006/01")

	for attempt := 0; attempt < maxUniqueAttempts; attempt++ {
		name := uniqueName(filename, attempt)
		key := path.Join(dir, name)

		exists, err := storage.Exists(ctx, s.provider, key)
		if err != nil {
			return Asset{}, fmt.Errorf("check storage key: %w", err)
		}
		if exists {
			continue
		}

		asset.Filename = name
		asset.StorageKey = key
		err = s.db.QueryRow(ctx, insertAssetSQL,
			asset.ID, asset.Filename, asset.Title, asset.Mime, asset.SizeBytes,
			asset.StorageKey, asset.SourceURL, asset.UploadedBy,
		).Scan(&asset.CreatedAt)
		if db.IsUniqueViolation(err) {
			continue
		}
		if err != nil {
			return Asset{}, fmt.Errorf("insert asset: %w", err)
		}

		if _, err := f.Seek(0, io.SeekStart); err != nil {
			s.discardRow(ctx, asset.ID)
			return Asset{}, fmt.Errorf("rewind upload: %w", err)
		}
		if err := s.provider.Put(ctx, key, f); err != nil {
			s.discardRow(ctx, asset.ID)
			return Asset{}, fmt.Errorf("store media: %w", err)
		}

		asset.URL = s.provider.AccessPath(key)
		s.logger.Info("asset stored",
			slog.String("id", asset.ID),
			slog.String("storage_key", key),
			slog.String("mime", mime),
			slog.Int64("size_bytes", asset.SizeBytes),
		)
		return asset, nil
	}
	return Asset{}, fmt.Errorf("%w: %s", ErrNoUniqueKey, filename)
}

// Get returns the asset with id.
func (s *Service) Get(ctx context.Context, id string) (Asset, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return Asset{}, ErrInvalidID
	}
	var asset Asset
	err = s.db.QueryRow(ctx, getAssetSQL, parsed.String()).Scan(
		&asset.ID, &asset.Filename, &asset.Title, &asset.Mime, &asset.SizeBytes,
		&asset.StorageKey, &asset.SourceURL, &asset.UploadedBy, &asset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrAssetNotFound
		}
		return Asset{}, fmt.Errorf("get asset: %w", err)
	}
	asset.URL = s.provider.AccessPath(asset.StorageKey)
	return asset, nil
}

func (s *Service) discardRow(ctx context.Context, id string) {
	if _, err := s.db.Exec(context.WithoutCancel(ctx), deleteAssetSQL, id); err != nil {
		s.logger.Warn("discard asset row failed", slog.String("id", id), slog.Any("error", err))
	}
}

// uniqueName returns filename for attempt 0 and "<base>-<n><ext>" after.
func uniqueName(filename string, attempt int) string {
	if attempt == 0 {
		return filename
	}
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "-" + strconv.Itoa(attempt) + ext
}

func detectMime(r io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect mime: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return attachment.NormalizeMime(mt.String()), nil
}
