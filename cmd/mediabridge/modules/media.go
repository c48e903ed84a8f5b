package modules

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	"github.com/mediabridge/mediabridge/internal/attachment"
	"github.com/mediabridge/mediabridge/internal/config"
	"github.com/mediabridge/mediabridge/internal/fetch"
	"github.com/mediabridge/mediabridge/internal/handlers"
	"github.com/mediabridge/mediabridge/internal/library"
	"github.com/mediabridge/mediabridge/internal/media"
	"github.com/mediabridge/mediabridge/internal/storage"
)

var MediaModule = fx.Module(
	"media",
	fx.Provide(
		provideLibrary,
		func(s *library.Service) media.Store { return s },
		func(s *library.Service) handlers.AssetReader { return s },
		fx.Annotate(provideFetcher, fx.As(new(media.Fetcher))),
		fx.Annotate(attachment.NewSniffer, fx.As(new(media.Sniffer))),
		provideExtensionTable,
		media.NewPipeline,
		func(p *media.Pipeline) handlers.Uploader { return p },
	),
)

func provideLibrary(log *slog.Logger, provider storage.Provider, conn *pgxpool.Pool) *library.Service {
	return library.NewService(log, provider, conn)
}

func provideFetcher(log *slog.Logger, cfg config.Config) *fetch.Fetcher {
	return fetch.NewFetcher(log, fetch.OptionsFromConfig(cfg))
}

func provideExtensionTable(cfg config.Config) (*media.ExtensionTable, error) {
	return media.NewExtensionTable(cfg.Media.MimeExtensions)
}
