// Package media implements the download, classify and store pipeline that
// turns a remote URL into a media library asset.
package media

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"
	"unicode"

	"github.com/mediabridge/mediabridge/internal/attachment"
)

// State is a pipeline step.
type State string

const (
	StateDownloading         State = "downloading"
	StateExtensionResolution State = "extension_resolution"
	StateStoring             State = "storing"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

const fallbackBaseName = "download"

// Pipeline runs one fetch-classify-store transaction per call. It holds no
// per-request state and may be shared across goroutines.
type Pipeline struct {
	fetcher    Fetcher
	sniffer    Sniffer
	store      Store
	extensions *ExtensionTable
	logger     *slog.Logger
	remove     func(string) error
}

// NewPipeline wires the pipeline collaborators.
func NewPipeline(log *slog.Logger, fetcher Fetcher, sniffer Sniffer, store Store, extensions *ExtensionTable) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		fetcher:    fetcher,
		sniffer:    sniffer,
		store:      store,
		extensions: extensions,
		logger:     log.With(slog.String("service", "media")),
		remove:     os.Remove,
	}
}

// UploadFromURL downloads req.URL, resolves a file extension, and stores the
// file. The temporary download never outlives the call.
func (p *Pipeline) UploadFromURL(ctx context.Context, req UploadRequest) (UploadResult, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return UploadResult{}, newError(StageValidation, MessageMissingPath, nil)
	}
	log := p.logger.With(slog.String("url", rawURL))

	log.Debug("pipeline state", slog.String("state", string(StateDownloading)))
	download, err := p.fetcher.FetchToTemp(ctx, rawURL)
	if err != nil {
		return UploadResult{}, p.fail(ctx, log, StageDownload, MessageDownload, err)
	}
	defer p.cleanup(log, download.Path)

	log.Debug("pipeline state", slog.String("state", string(StateExtensionResolution)))
	base, ext := SplitURLFilename(rawURL)
	if ext == "" {
		ext, err = p.resolveExtension(download.Path)
		if err != nil {
			return UploadResult{}, p.fail(ctx, log, StageExtension, MessageExtension, err)
		}
	}

	log.Debug("pipeline state", slog.String("state", string(StateStoring)))
	title := strings.TrimSpace(req.Filename)
	if title == "" {
		title = base
	}
	assetID, err := p.store.Store(ctx, StoreInput{
		TempPath:   download.Path,
		Filename:   base + "." + ext,
		Title:      title,
		SourceURL:  rawURL,
		UploadedBy: req.UploadedBy,
	})
	if err != nil {
		return UploadResult{}, p.fail(ctx, log, StageStore, MessageStore, err)
	}

	log.Info("media uploaded",
		slog.String("state", string(StateDone)),
		slog.String("asset_id", assetID),
		slog.String("filename", base+"."+ext),
	)
	return UploadResult{Status: "success", Message: MessageUploaded, AssetID: assetID}, nil
}

func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, stage Stage, message string, cause error) *Error {
	level := slog.LevelWarn
	if stage == StageStore {
		level = slog.LevelError
	}
	log.Log(ctx, level, "media upload failed",
		slog.String("state", string(StateFailed)),
		slog.String("stage", string(stage)),
		slog.Any("error", cause),
	)
	return newError(stage, message, cause)
}

func (p *Pipeline) resolveExtension(tempPath string) (string, error) {
	raw, err := p.sniffer.SniffFile(tempPath)
	if err != nil {
		return "", err
	}
	mime, ok := attachment.SanitizeMime(raw)
	if !ok {
		return "", errors.New("sniffed mime type is malformed: " + raw)
	}
	ext, ok := p.extensions.Lookup(mime)
	if !ok {
		return "", errors.New("mime type not allowed: " + mime)
	}
	return ext, nil
}

func (p *Pipeline) cleanup(log *slog.Logger, tempPath string) {
	if tempPath == "" {
		return
	}
	if err := p.remove(tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("remove temp file failed", slog.String("path", tempPath), slog.Any("error", err))
	}
}

// SplitURLFilename returns the base name and extension (no period) of the
// last segment of rawURL's path. Query and fragment are ignored.
func SplitURLFilename(rawURL string) (string, string) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "/" || name == "." {
		name = ""
	}
	ext := path.Ext(name)
	base := sanitizeBaseName(strings.TrimSuffix(name, ext))
	return base, stripControl(strings.TrimPrefix(ext, "."))
}

// sanitizeBaseName drops separators, control characters and leading dots so
// the name cannot escape the storage directory.
func sanitizeBaseName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(strings.TrimLeft(name, "."))
	if name == "" {
		return fallbackBaseName
	}
	return name
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '/' || r == '\\' {
			return -1
		}
		return r
	}, s)
}
