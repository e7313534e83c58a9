// Package jobs contains the asynq task definitions and worker runtime.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeWelcomeMail greets a new newsletter subscriber.
	TaskTypeWelcomeMail = "mail:welcome"
	// TaskTypePopularityRefresh rebuilds the cached popular-policies list.
	TaskTypePopularityRefresh = "policies:refresh_popular"
)

// WelcomeMailPayload describes the information required to greet a subscriber.
type WelcomeMailPayload struct {
	To   string `json:"to"`
	Name string `json:"name"`
}

// NewWelcomeMailTask constructs an Asynq task.
func NewWelcomeMailTask(payload WelcomeMailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeMail, data), nil
}

// NewPopularityRefreshTask constructs the cache rebuild task. It carries no
// payload; the worker recomputes from the database.
func NewPopularityRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskTypePopularityRefresh, nil)
}
