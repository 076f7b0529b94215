package cmd

import (
	"time"

	adapterclassifier "driftwatch/internal/adapters/classifier"
	adapterstorage "driftwatch/internal/adapters/storage"
	"driftwatch/internal/clock"
	"driftwatch/internal/config"
	"driftwatch/internal/logging"
	"driftwatch/internal/monitor"
	"driftwatch/internal/ports"
	"driftwatch/internal/services"
)

const persistTimeout = 5 * time.Second

// Container holds all dependencies for the application
type Container struct {
	SessionService *services.SessionService
	Settings       *config.Settings

	// Internal - for cleanup only
	repo ports.SessionRepository
}

// NewContainer creates a new Container with all dependencies wired. A
// store that cannot be opened degrades the engine to local-only sessions
// instead of failing startup.
func NewContainer(settings *config.Settings) (*Container, error) {
	if settings == nil {
		settings = &config.Settings{}
	}

	dbPath := settings.DBPath
	if dbPath == "" {
		dbPath = config.GetDBPath()
	}

	var repo ports.SessionRepository
	sqlRepo, err := adapterstorage.NewSQLiteRepository(dbPath)
	if err != nil {
		logging.Logger.Warn("failed to open session store, sessions will be local-only",
			"db_path", dbPath,
			"error", err,
		)
	} else {
		repo = sqlRepo
	}

	evaluateTimeout := config.Duration(settings.EvaluateTimeoutSeconds)
	var collab monitor.Collaborators
	if settings.ClassifierURL != "" {
		client := adapterclassifier.NewClient(settings.ClassifierURL, evaluateTimeout)
		collab.Classifier = client
		collab.Presence = client
	}

	cfg := services.Config{
		DebounceGlobal: settings.DebounceGlobal != nil && *settings.DebounceGlobal,
		DebounceWindow: config.Duration(settings.DebounceWindowSeconds),
		Monitor: monitor.Config{
			AttentionGrace:   config.Duration(settings.AttentionGraceSeconds),
			EvaluateTimeout:  evaluateTimeout,
			IdleThreshold:    config.Duration(settings.IdleThresholdSeconds),
			PollInterval:     config.Duration(settings.PollIntervalSeconds),
			PresenceSustain:  config.Duration(settings.PresenceSustainSeconds),
			RelevanceSustain: config.Duration(settings.RelevanceSustainSeconds),
		},
		PersistTimeout: persistTimeout,
	}

	service := services.NewSessionService(repo, collab, clock.NewSystem(), cfg)

	return &Container{
		SessionService: service,
		Settings:       settings,
		repo:           repo,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.repo != nil {
		return c.repo.Close()
	}
	return nil
}
