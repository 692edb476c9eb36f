package recordtrail

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event describes a committed change. It is handed to Config.Publisher after commit.
type Event struct {
	ID        uuid.UUID `json:"id"`
	LogID     int64     `json:"log_id"`
	Table     string    `json:"table"`
	Key       string    `json:"key"`
	Kind      Kind      `json:"kind"`
	Actor     string    `json:"actor"`
	ChangedAt time.Time `json:"changed_at"`
	TraceID   string    `json:"trace_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Changes   []Delta   `json:"changes"`
}

// Publisher delivers change events. A failing Publish never undoes the write.
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
}
