package fx

import (
	"catan-standings/internal/api"
	"catan-standings/internal/config"
	"catan-standings/internal/database"
	"catan-standings/internal/discord"
	"catan-standings/internal/ledger"
	"catan-standings/internal/logger"
	"catan-standings/internal/metrics"
	"catan-standings/internal/repository"
	"catan-standings/internal/roster"
	"catan-standings/internal/server"
	"catan-standings/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideGrid picks the ledger backend. The roster is read through the same
// grid, so an offline workbook carries its own roster tab.
func ProvideGrid(cfg *config.Config, logger zerolog.Logger) (ledger.Grid, error) {
	if cfg.LedgerBackend == "xlsx" {
		logger.Info().Str("dir", cfg.LedgerXLSXDir).Msg("using local workbook ledger")
		grid, err := ledger.NewXLSXGrid(cfg.LedgerXLSXDir, logger)
		if err != nil {
			return nil, err
		}
		return grid, nil
	}
	sheets, err := api.NewSheetsClient(cfg.ServiceAccountKeyFile, logger)
	if err != nil {
		return nil, err
	}
	return sheets, nil
}

func ProvideSyncer(grid ledger.Grid, cfg *config.Config, logger zerolog.Logger) *ledger.Syncer {
	return ledger.NewSyncer(grid, ledger.Layouts(cfg), logger)
}

func ProvideResolver(grid ledger.Grid, cfg *config.Config, logger zerolog.Logger) *roster.Resolver {
	return roster.NewResolver(grid, roster.Sources(cfg), cfg.RosterCacheTTL, logger)
}

func ProvideSubmissionService(replays *api.ReplayClient, resolver *roster.Resolver, syncer *ledger.Syncer, games *repository.GameRepository, m *metrics.Metrics, logger zerolog.Logger) *service.SubmissionService {
	return service.NewSubmissionService(replays, resolver, syncer, games, m, logger)
}

func ProvidePlayerService(resolver *roster.Resolver, players *repository.PlayerRepository, m *metrics.Metrics, logger zerolog.Logger) *service.PlayerService {
	return service.NewPlayerService(resolver, players, m, logger)
}

func ProvideStandingsServer(submissions *service.SubmissionService, players *service.PlayerService, games *repository.GameRepository, m *metrics.Metrics, logger zerolog.Logger) *server.StandingsServer {
	return server.NewStandingsServer(submissions, players, games, m, logger)
}

func ProvideBot(session *discordgo.Session, submissions *service.SubmissionService, cfg *config.Config, logger zerolog.Logger) *discord.Bot {
	chat := discord.NewSessionMessenger(session)
	return discord.NewBot(chat, chat, submissions, cfg.Channels, cfg.ErrorChannelID, logger)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(metrics.New),
	// repos
	fx.Provide(repository.NewGameRepository),
	fx.Provide(repository.NewPlayerRepository),
	// external
	fx.Provide(api.NewReplayClient),
	fx.Provide(ProvideGrid),
	fx.Provide(ProvideSyncer),
	fx.Provide(ProvideResolver),
	// svc
	fx.Provide(ProvideSubmissionService),
	fx.Provide(ProvidePlayerService),
	// server
	fx.Provide(ProvideStandingsServer),
)

var BotModule = fx.Options(
	fx.Provide(discord.NewSession),
	fx.Provide(ProvideBot),
)
