package chat

import (
	"context"
	"sync"
	"time"

	"github.com/aaryan182/veterinary-chatbot-sdk/pkg/logging"
)

// Responder delivers a processed reply back to the session's channel, e.g.
// over the webchat socket.
type Responder interface {
	Deliver(ctx context.Context, sessionID, text string) error
}

// Worker drains the turn queue and feeds the chat service. Turns for the
// same session are serialized with a per-session lock so state updates never
// interleave; Run may be started from several goroutines to add parallelism
// across sessions.
type Worker struct {
	queue     queueClient
	service   *Service
	responder Responder
	logger    *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWorker creates a queue consumer.
func NewWorker(queue queueClient, service *Service, responder Responder, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("chat: queue cannot be nil")
	}
	if service == nil {
		panic("chat: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:     queue,
		service:   service,
		responder: responder,
		logger:    logger.Component("chat.worker"),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Run consumes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		msgs, err := w.queue.Receive(ctx, 5, 10)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("queue receive failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg queueMessage) {
	job, err := decodeTurnJob(msg.Body)
	if err != nil {
		// Undecodable jobs would poison the queue if left behind.
		w.logger.Error("dropping malformed turn job", "message_id", msg.ID, "error", err)
		if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
			w.logger.Warn("failed to delete malformed job", "message_id", msg.ID, "error", err)
		}
		return
	}

	lock := w.lockFor(job.SessionID)
	lock.Lock()
	defer lock.Unlock()

	reply, err := w.service.HandleMessage(ctx, job.SessionID, job.Utterance)
	if err != nil {
		// Leave the message in the queue for redelivery.
		w.logger.Error("turn processing failed", "job_id", job.ID, "session_id", job.SessionID, "error", err)
		return
	}

	if w.responder != nil {
		if err := w.responder.Deliver(ctx, job.SessionID, reply); err != nil {
			w.logger.Warn("reply delivery failed", "job_id", job.ID, "session_id", job.SessionID, "error", err)
		}
	}

	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Warn("failed to delete processed job", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) lockFor(sessionID string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[sessionID] = lock
	}
	return lock
}
