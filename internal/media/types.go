package media

import "context"

// UploadRequest is one upload-from-URL call.
type UploadRequest struct {
	URL string
	// Filename is an optional display title, not a storage name.
	Filename   string
	UploadedBy string
}

// TemporaryDownload is a fetched resource spooled to disk. The pipeline owns
// the file at Path and removes it before returning.
type TemporaryDownload struct {
	Path      string
	SourceURL string
	Size      int64
}

// StoreInput carries everything the media store needs to ingest a download.
type StoreInput struct {
	TempPath   string
	Filename   string
	Title      string
	SourceURL  string
	UploadedBy string
}

// UploadResult is returned on success.
type UploadResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	AssetID string `json:"asset_id,omitempty"`
}

// Fetcher downloads a URL into a temp file.
type Fetcher interface {
	FetchToTemp(ctx context.Context, rawURL string) (TemporaryDownload, error)
}

// Sniffer returns the MIME type of a file from its content.
type Sniffer interface {
	SniffFile(path string) (string, error)
}

// Store ingests a file into the media library and returns the asset id.
type Store interface {
	Store(ctx context.Context, input StoreInput) (string, error)
}
