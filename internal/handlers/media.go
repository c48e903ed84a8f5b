package handlers

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/mediabridge/mediabridge/internal/auth"
	"github.com/mediabridge/mediabridge/internal/library"
	"github.com/mediabridge/mediabridge/internal/logger"
	"github.com/mediabridge/mediabridge/internal/media"
)

// Uploader runs the upload-from-URL pipeline.
type Uploader interface {
	UploadFromURL(ctx context.Context, req media.UploadRequest) (media.UploadResult, error)
}

// AssetReader looks up stored assets.
type AssetReader interface {
	Get(ctx context.Context, id string) (library.Asset, error)
}

// UploadRequest is the form body of POST /media-bridge/v1/media/upload.
type UploadRequest struct {
	URL      string `form:"url" json:"url" validate:"required"`
	Filename string `form:"filename" json:"filename"`
}

// MediaHandler serves the media bridge endpoints.
type MediaHandler struct {
	uploader Uploader
	assets   AssetReader
	validate *validator.Validate
	logger   *slog.Logger
}

// NewMediaHandler creates the media handler.
func NewMediaHandler(log *slog.Logger, uploader Uploader, assets AssetReader) *MediaHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MediaHandler{
		uploader: uploader,
		assets:   assets,
		validate: validator.New(),
		logger:   log.With(slog.String("handler", "media")),
	}
}

// Register mounts the media routes behind the edit_others_posts capability.
func (h *MediaHandler) Register(e *echo.Echo) {
	group := e.Group("/media-bridge/v1/media", auth.RequireCapability(auth.CapabilityEditOthersPosts))
	group.POST("/upload", h.Upload)
	group.GET("/:id", h.Get)
}

// Upload godoc
// @Summary Upload media from a URL
// @Description Download the resource at url and add it to the media library
// @Tags media
// @Accept x-www-form-urlencoded
// @Param url formData string true "Remote URL"
// @Param filename formData string false "Display title"
// @Success 200 {string} string "File uploaded"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /media-bridge/v1/media/upload [post]
func (h *MediaHandler) Upload(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req UploadRequest
	if err := c.Bind(&req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.URL = sanitizeURLField(req.URL)
	req.Filename = sanitizeTextField(req.Filename)
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, media.MessageMissingPath)
	}

	ctx := c.Request().Context()
	result, err := h.uploader.UploadFromURL(ctx, media.UploadRequest{
		URL:        req.URL,
		Filename:   req.Filename,
		UploadedBy: userID,
	})
	if err != nil {
		if errors.Is(err, media.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, media.MessageOf(err, media.MessageMissingPath))
		}
		logger.FromContext(ctx).Warn("upload failed",
			slog.String("user_id", userID),
			slog.String("url", req.URL),
			slog.Any("error", err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, media.MessageOf(err, media.MessageStore))
	}
	return c.JSON(http.StatusOK, result.Message)
}

// Get godoc
// @Summary Get a media asset
// @Tags media
// @Param id path string true "Asset ID"
// @Success 200 {object} library.Asset
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /media-bridge/v1/media/{id} [get]
func (h *MediaHandler) Get(c echo.Context) error {
	asset, err := h.assets.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, library.ErrInvalidID):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, library.ErrAssetNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			h.logger.Error("get asset failed", slog.String("id", c.Param("id")), slog.Any("error", err))
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, asset)
}

// sanitizeURLField trims and strips control characters; URLs keep their
// special characters so query strings survive.
func sanitizeURLField(value string) string {
	return strings.TrimSpace(stripControl(value))
}

// sanitizeTextField trims, strips control characters and HTML-escapes value.
func sanitizeTextField(value string) string {
	return html.EscapeString(strings.TrimSpace(stripControl(value)))
}

func stripControl(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
}
