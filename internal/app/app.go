package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"synodvote/internal/handlers"
	"synodvote/internal/locking"
	"synodvote/internal/logger"
	"synodvote/internal/repository"
	"synodvote/internal/services"
	"synodvote/internal/websocket"
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
}

// New creates and initializes a new application instance
func New(log logger.Logger, dbPath string) (*App, error) {
	repo, err := repository.New(dbPath)
	if err != nil {
		return nil, err
	}

	locks := locking.New()

	// Initialize services
	eligibilityService := services.NewEligibilityService(log, repo)
	codeService := services.NewCodeService(log, repo, eligibilityService, locks)
	ballotService := services.NewBallotService(log, repo, codeService, eligibilityService, locks)
	tallyService := services.NewTallyService(log, repo, locks)
	electionService := services.NewElectionService(log, repo, codeService)

	// Initialize WebSocket hub
	hub := websocket.New(log)
	hub.Start()
	ballotService.SetBroadcaster(hub)
	electionService.SetBroadcaster(hub)

	h := handlers.New(log, electionService, eligibilityService, codeService, ballotService, tallyService, hub)

	return &App{
		log:      log,
		handlers: h,
		repo:     repo,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close performs graceful shutdown of app resources
func (a *App) Close() error {
	return a.repo.Close()
}

// Run starts the HTTP server
func (a *App) Run(addr string) error {
	a.log.Info("Server starting", "addr", addr)
	return http.ListenAndServe(addr, a.Router())
}
