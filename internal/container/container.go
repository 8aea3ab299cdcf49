package container

import (
	"campusvote/internal/config"
	"campusvote/internal/service"
	"campusvote/internal/session"
	"campusvote/internal/transport"
	"campusvote/internal/workflow"
	"campusvote/pkg/cache"
	"campusvote/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *logger.Logger
	Cache    *cache.Cache
	Sessions *session.Store
	API      *transport.Client
	Voting   *service.VotingService
	Auth     *service.AuthService
	AI       *service.AIService
	Workflow *workflow.Workflow
}

// New wires the client's dependency graph: one cache instance and one session
// store, both injected explicitly rather than reached through package state.
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	resourceCache := cache.New()
	sessions := session.NewStore(cfg.SessionFile, log)

	api := transport.New(cfg.APIBaseURL, cfg.RequestTimeout, sessions, log)
	// An auth rejection ends the session; everything cached belonged to it.
	api.OnAuthReject(func() {
		resourceCache.Clear()
	})

	votingService := service.NewVotingService(api, resourceCache, log.Logger)
	authService := service.NewAuthService(api, sessions, resourceCache, log)
	aiService := service.NewAIService(api, log)
	votingWorkflow := workflow.New(votingService, cfg.ReconcileDelay, log)

	return &Container{
		Config:   cfg,
		Logger:   log,
		Cache:    resourceCache,
		Sessions: sessions,
		API:      api,
		Voting:   votingService,
		Auth:     authService,
		AI:       aiService,
		Workflow: votingWorkflow,
	}, nil
}

// IsAuthenticated reports whether a usable session credential is present.
// Consumed by the CLI as its navigation guard.
func (c *Container) IsAuthenticated() bool {
	return c.Sessions.IsAuthenticated()
}
