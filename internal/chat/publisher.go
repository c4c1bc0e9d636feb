package chat

import (
	"context"
	"fmt"

	"github.com/aaryan182/veterinary-chatbot-sdk/pkg/logging"
)

// Publisher enqueues chat turns for asynchronous processing.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("chat: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger.Component("chat.publisher"),
	}
}

// EnqueueTurn publishes one user utterance for the worker to process.
func (p *Publisher) EnqueueTurn(ctx context.Context, sessionID, utterance string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	job, body, err := encodeTurnJob(turnJob{SessionID: sessionID, Utterance: utterance})
	if err != nil {
		return "", err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return "", fmt.Errorf("chat: failed to enqueue turn: %w", err)
	}

	p.logger.Debug("chat turn enqueued", "job_id", job.ID, "session_id", sessionID)
	return job.ID, nil
}
