package app

import (
	"context"
	"time"

	"github.com/doeshing/opsentry/internal/application/conversation"
	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/infrastructure/config"
	"github.com/doeshing/opsentry/internal/infrastructure/confirm"
	"github.com/doeshing/opsentry/internal/infrastructure/handlers"
	"github.com/doeshing/opsentry/internal/infrastructure/intent"
	"github.com/doeshing/opsentry/internal/infrastructure/router"
	"github.com/doeshing/opsentry/internal/infrastructure/safety"
	"github.com/doeshing/opsentry/internal/infrastructure/store"
	"github.com/doeshing/opsentry/internal/infrastructure/synthesis"
	"github.com/doeshing/opsentry/internal/pkg/logger"
	"github.com/doeshing/opsentry/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Conversation *conversation.Service
	Store        ports.ContextStore
	Validator    *safety.Validator
	Config       domain.Config
	Logger       *logger.ZapLogger
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	log := logger.New(verbose)

	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	rules, err := synthesis.LoadRules(cfg.Synthesis.RulesFile)
	if err != nil {
		return nil, err
	}
	patterns, err := safety.LoadPatterns(cfg.Safety.RulesFile)
	if err != nil {
		return nil, err
	}

	var contextStore ports.ContextStore
	sqliteStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		log.Warn("sqlite store unavailable, using in-memory store", map[string]interface{}{
			"error": err.Error(),
		})
		contextStore = store.NewMemoryStore()
	} else {
		contextStore = sqliteStore
	}

	validator := safety.New(patterns, cfg.Safety, log)
	confirmations := confirm.New(time.Duration(cfg.Confirmation.TimeoutSeconds)*time.Second, log)

	svc := &conversation.Service{
		Store:         contextStore,
		Parser:        intent.NewHeuristicParser(),
		Synthesizer:   synthesis.New(rules, cfg.Synthesis.ContextualInference, log),
		Safety:        validator,
		Router:        router.New(handlers.Registry(), cfg.Execution, patterns, log),
		Confirmations: confirmations,
		Logger:        log,
	}
	confirmations.SetExpiryHook(svc.HandleExpiry)

	return &Container{
		Conversation: svc,
		Store:        contextStore,
		Validator:    validator,
		Config:       cfg,
		Logger:       log,
	}, nil
}
