package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GenerationRun is the durable archive row for one session, written
// best-effort alongside the in-memory registry so status survives a
// process restart.
type GenerationRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   string         `gorm:"index;size:64" json:"session_id"`
	Topic       string         `json:"topic"`
	Status      string         `gorm:"index" json:"status"`
	Stage       string         `json:"stage"`
	Progress    float64        `json:"progress"`
	Error       string         `json:"error,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	HeartbeatAt *time.Time     `json:"heartbeat_at,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	EndedAt     *time.Time     `json:"ended_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
