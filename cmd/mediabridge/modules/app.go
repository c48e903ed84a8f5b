// Package modules holds the fx modules assembled by `mediabridge serve`.
package modules

import (
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// ConfigPath is the TOML file the infrastructure module loads.
type ConfigPath string

// App returns every option needed to run the API server.
func App(path ConfigPath) fx.Option {
	return fx.Options(
		fx.Supply(path),
		InfraModule,
		MediaModule,
		ServerModule,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
}
