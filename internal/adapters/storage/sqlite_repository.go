package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"driftwatch/internal/domain"
	"driftwatch/internal/logging"
	"driftwatch/internal/ports"
)

// SQLiteRepository implements ports.SessionRepository using GORM
type SQLiteRepository struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.SessionRepository = (*SQLiteRepository)(nil)

// gormLogger wraps the driftwatch logger for GORM
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("DRIFTWATCH_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteRepository creates a new SQLiteRepository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for concurrent access
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := db.AutoMigrate(&SessionModel{}, &EventModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateSession implements ports.SessionStore.CreateSession
func (r *SQLiteRepository) CreateSession(ctx context.Context, params ports.CreateSessionParams) (*domain.Session, error) {
	model := SessionModel{
		CreatedAt:         params.CreatedAt,
		DestinationRef:    params.DestinationRef,
		ID:                uuid.New().String(),
		OwnerRef:          params.OwnerRef,
		PlannedDurationMs: params.PlannedDuration.Milliseconds(),
		StartedAt:         params.CreatedAt,
		Status:            string(domain.StatusActive),
	}

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Create(&model).Error
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session := sessionModelToDomain(model)
	return &session, nil
}

// UpdateSession implements ports.SessionStore.UpdateSession
func (r *SQLiteRepository) UpdateSession(ctx context.Context, id string, patch ports.SessionPatch) (*domain.Session, error) {
	updates := make(map[string]any)
	if patch.ActualDuration != nil {
		updates["actual_duration_ms"] = patch.ActualDuration.Milliseconds()
	}
	if patch.DistractionCount != nil {
		updates["distraction_count"] = *patch.DistractionCount
	}
	if patch.EndedAt != nil {
		updates["ended_at"] = *patch.EndedAt
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}

	var model SessionModel
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
				return err
			}
			if len(updates) == 0 {
				return nil
			}
			if err := tx.Model(&model).Updates(updates).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", id).First(&model).Error
		})
	}, 3)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	session := sessionModelToDomain(model)
	return &session, nil
}

// ListCompletedSessions implements ports.SessionStore.ListCompletedSessions
func (r *SQLiteRepository) ListCompletedSessions(ctx context.Context, ownerRef string) ([]domain.Session, error) {
	var models []SessionModel
	err := withRetry(func() error {
		return r.db.WithContext(ctx).
			Where("owner_ref = ? AND status = ?", ownerRef, string(domain.StatusCompleted)).
			Order("started_at DESC").
			Find(&models).Error
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed sessions: %w", err)
	}

	sessions := make([]domain.Session, len(models))
	for i, m := range models {
		sessions[i] = sessionModelToDomain(m)
	}
	return sessions, nil
}

// InsertEvent implements ports.EventStore.InsertEvent
func (r *SQLiteRepository) InsertEvent(ctx context.Context, event domain.DistractionEvent) error {
	model := eventToModel(event)
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Create(&model).Error
	}, 3)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// ResolveEvent implements ports.EventStore.ResolveEvent. It patches the
// most recent unresolved event of the given signal type for the session
// and reports whether a matching record was found.
func (r *SQLiteRepository) ResolveEvent(ctx context.Context, sessionID string, signalType domain.SignalType, patch ports.EventPatch) (bool, error) {
	updates := make(map[string]any)
	if patch.Duration != nil {
		updates["duration_ms"] = patch.Duration.Milliseconds()
	}
	if patch.Resolved != nil {
		updates["resolved"] = *patch.Resolved
	}
	if patch.Response != nil {
		updates["response"] = string(*patch.Response)
	}

	found := false
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var model EventModel
			err := tx.
				Where("session_id = ? AND signal_type = ? AND resolved = ?", sessionID, string(signalType), false).
				Order("detected_at DESC").
				First(&model).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := tx.Model(&model).Updates(updates).Error; err != nil {
				return err
			}
			found = true
			return nil
		})
	}, 3)
	if err != nil {
		return false, fmt.Errorf("failed to resolve event: %w", err)
	}
	return found, nil
}

// withRetry retries operations on SQLITE_BUSY with exponential backoff
func withRetry(fn func() error, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries", maxRetries)
}
