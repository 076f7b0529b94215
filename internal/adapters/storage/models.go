package storage

import "time"

// SessionModel is the GORM model for the sessions table
type SessionModel struct {
	ActualDurationMs  int64 `gorm:"not null;default:0"`
	CreatedAt         time.Time
	DestinationRef    string     `gorm:"not null;index:idx_destination"`
	DistractionCount  int        `gorm:"not null;default:0"`
	EndedAt           *time.Time `gorm:"default:null"`
	ID                string     `gorm:"primaryKey"`
	OwnerRef          string     `gorm:"not null;index:idx_owner"`
	PlannedDurationMs int64      `gorm:"not null;default:0"`
	StartedAt         time.Time  `gorm:"not null;index:idx_started_at"`
	Status            string     `gorm:"not null;default:'active';check:status IN ('active','completed','abandoned')"`
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string { return "sessions" }

// EventModel is the GORM model for distraction events
type EventModel struct {
	CreatedAt  time.Time
	DetectedAt time.Time `gorm:"not null;index:idx_detected_at"`
	DurationMs *int64    `gorm:"default:null"`
	ID         string    `gorm:"primaryKey"`
	Resolved   bool      `gorm:"not null;default:false;index:idx_resolved"`
	Response   *string   `gorm:"default:null"`
	SessionID  string    `gorm:"not null;index:idx_session"`
	SignalType string    `gorm:"not null;check:signal_type IN ('attention','idle','content','presence')"`
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (EventModel) TableName() string { return "distraction_events" }
