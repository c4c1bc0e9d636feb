package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// turnJob is one queued chat turn awaiting processing.
type turnJob struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
}

func encodeTurnJob(job turnJob) (turnJob, string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	body, err := json.Marshal(job)
	if err != nil {
		return turnJob{}, "", fmt.Errorf("chat: failed to encode turn job: %w", err)
	}
	return job, string(body), nil
}

func decodeTurnJob(body string) (turnJob, error) {
	var job turnJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return turnJob{}, fmt.Errorf("chat: failed to decode turn job: %w", err)
	}
	if job.SessionID == "" {
		return turnJob{}, fmt.Errorf("chat: turn job %q has no session", job.ID)
	}
	return job, nil
}
