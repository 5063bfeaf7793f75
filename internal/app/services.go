package app

import (
	"fmt"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/services"
	"github.com/vaultchat/vaultchat-backend/internal/tools"
)

type Services struct {
	Ledger       services.LedgerService
	Builder      *services.ContextBuilder
	Model        services.ModelClient
	Orchestrator *services.Orchestrator
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, registry *tools.Registry, dispatcher *tools.Dispatcher) (Services, error) {
	log.Info("Wiring services...")

	ledger := services.NewLedgerService(log, reposet.Metric)
	builder := services.NewContextBuilder(log, reposet.Chat, reposet.Message, cfg.HistoryLimit)

	model, err := services.NewOpenAIModelClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, log)
	if err != nil {
		return Services{}, fmt.Errorf("init model client: %w", err)
	}

	orchestrator := services.NewOrchestrator(
		log,
		services.OrchestratorConfig{
			TokenBudget:        cfg.TokenBudget,
			MaxToolRounds:      cfg.MaxToolRounds,
			ModelTimeout:       cfg.ModelTimeout,
			DefaultTemperature: float32(cfg.Temperature),
		},
		reposet.Chat,
		reposet.Message,
		reposet.Turn,
		ledger,
		builder,
		model,
		registry,
		dispatcher,
	)

	return Services{
		Ledger:       ledger,
		Builder:      builder,
		Model:        model,
		Orchestrator: orchestrator,
	}, nil
}

func wireTools(log *logger.Logger, cfg Config) (*tools.Registry, *tools.Dispatcher, error) {
	log.Info("Wiring tools...")
	registry := tools.NewRegistry()

	if cfg.SerperAPIKey != "" {
		if err := registry.Register(tools.NewInternetSearch(cfg.SerperAPIKey)); err != nil {
			return nil, nil, err
		}
	} else {
		log.Warn("SERPER_API_KEY not set, internet search tool disabled")
	}
	if err := registry.Register(tools.NewWikiSearch()); err != nil {
		return nil, nil, err
	}
	if err := registry.Register(tools.NewDateTime()); err != nil {
		return nil, nil, err
	}

	dispatcher := tools.NewDispatcher(registry, cfg.ToolTimeout, log)
	return registry, dispatcher, nil
}
