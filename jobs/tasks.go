package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup loads the dashboard dataset into the cache.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskCacheBump invalidates every cached dataset by bumping the cache version.
	TaskCacheBump = "dashboard:cache_bump"
)

// WarmupPayload selects the states to prepare. Empty lists mean every option.
type WarmupPayload struct {
	Ranges   []string `json:"ranges,omitempty"`
	Segments []string `json:"segments,omitempty"`
}

// NewDashboardWarmupTask constructs a warmup task.
func NewDashboardWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// CacheBumpPayload records why the cache was invalidated.
type CacheBumpPayload struct {
	Reason string `json:"reason"`
}

// NewCacheBumpTask constructs a cache invalidation task.
func NewCacheBumpTask(payload CacheBumpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheBump, data), nil
}
