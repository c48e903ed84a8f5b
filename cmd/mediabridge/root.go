package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/mediabridge/mediabridge/cmd/mediabridge/modules"
	mbdb "github.com/mediabridge/mediabridge/db"
	"github.com/mediabridge/mediabridge/internal/auth"
	"github.com/mediabridge/mediabridge/internal/boot"
	"github.com/mediabridge/mediabridge/internal/config"
	"github.com/mediabridge/mediabridge/internal/db"
	"github.com/mediabridge/mediabridge/internal/logger"
	"github.com/mediabridge/mediabridge/internal/version"
)

const defaultConfigPath = "config.toml"

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "mediabridge",
		Short:         "Import remote media into the media library",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("CONFIG_PATH", defaultConfigPath), "path to config.toml")

	root.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		tokenCmd(&configPath),
		versionCmd(),
	)
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := fx.New(modules.App(modules.ConfigPath(*configPath)))
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <" + strings.Join(db.MigrateCommands, "|") + "> [N]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: db.MigrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)

			migrations, err := mbdb.Migrations()
			if err != nil {
				return err
			}
			return db.RunMigrate(logger.L, cfg.Postgres, migrations, args[0], args[1:])
		},
	}
}

func tokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		role   string
		caps   []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the media API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			rc, err := boot.ProvideRuntimeConfig(cfg)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = rc.JwtExpiresIn
			}
			if role == "" && len(caps) == 0 {
				return errors.New("either --role or --capability is required")
			}
			signed, expiresAt, err := auth.GenerateToken(userID, role, caps, rc.JwtSecret, ttl)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
				"access_token": signed,
				"token_type":   "Bearer",
				"expires_at":   expiresAt.Format(time.RFC3339),
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token")
	cmd.Flags().StringVar(&role, "role", "", "role claim (admin implies every capability)")
	cmd.Flags().StringSliceVar(&caps, "capability", []string{auth.CapabilityEditOthersPosts}, "capability claims")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.jwt_expires_in)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func versionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "mediabridge %s %s\n", info, info.GoVersion)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
