package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"catan-standings/internal/config"
	"catan-standings/internal/constants"
	"catan-standings/internal/discord"
	fxmodules "catan-standings/internal/fx"
	"catan-standings/internal/server"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fxmodules.BotModule,
		fx.Invoke(runServer),
		fx.Invoke(runBot),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	standings *server.StandingsServer,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: standings.Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

func runBot(lc fx.Lifecycle, session *discordgo.Session, bot *discord.Bot, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			discord.Attach(session, bot, logger)
			if err := session.Open(); err != nil {
				return fmt.Errorf("failed to open discord session: %w", err)
			}
			logger.Info().Msg("discord session opened")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("closing discord session")
			return session.Close()
		},
	})
}
