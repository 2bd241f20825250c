package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeDeliverBroadcast = "broadcast:deliver"
)

// BroadcastPayload identifies the broadcast to deliver
type BroadcastPayload struct {
	BroadcastID string `json:"broadcast_id"`
}

// NewDeliverBroadcastTask creates a task to send a broadcast to volunteers
func NewDeliverBroadcastTask(broadcastID string) (*asynq.Task, error) {
	payload, err := json.Marshal(BroadcastPayload{
		BroadcastID: broadcastID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeDeliverBroadcast, payload), nil
}

// ParseBroadcastPayload parses task payload from Asynq task
func ParseBroadcastPayload(task *asynq.Task) (BroadcastPayload, error) {
	var payload BroadcastPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.BroadcastID == "" {
		return payload, fmt.Errorf("payload has no broadcast_id")
	}
	return payload, nil
}

// Enqueuer is the part of *asynq.Client the queue needs
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue hands broadcasts to the asynq worker
type Queue struct {
	client Enqueuer
}

// NewQueue creates a queue on top of an asynq client
func NewQueue(client Enqueuer) *Queue {
	return &Queue{client: client}
}

// DispatchBroadcast enqueues delivery of the broadcast
func (q *Queue) DispatchBroadcast(ctx context.Context, broadcastID string) error {
	task, err := NewDeliverBroadcastTask(broadcastID)
	if err != nil {
		return err
	}

	_, err = q.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(10*time.Minute),
		// Retries of the same broadcast collapse into one task
		asynq.TaskID("broadcast-"+broadcastID),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue broadcast: %w", err)
	}
	return nil
}
