package library

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidID     = errors.New("invalid asset id")
	ErrNoUniqueKey   = errors.New("no unique storage key available")
)

// Asset is a stored media library item.
type Asset struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	Mime       string    `json:"mime"`
	SizeBytes  int64     `json:"size_bytes"`
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	SourceURL  string    `json:"source_url"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DBTX is the subset of pgxpool.Pool used by the library.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
