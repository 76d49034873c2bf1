// Package jobs defines the background tasks of the catalog and the asynq
// worker, client and inspector endpoints that run and observe them.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogSnapshot recomputes the catalog totals.
	TaskCatalogSnapshot = "catalog:snapshot"
)

// SnapshotPayload carries scheduling metadata.
type SnapshotPayload struct {
	RequestedAt time.Time `json:"requested_at"`
	RequestedBy string    `json:"requested_by,omitempty"`
}

// NewSnapshotTask constructs a catalog snapshot task.
func NewSnapshotTask(payload SnapshotPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogSnapshot, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
