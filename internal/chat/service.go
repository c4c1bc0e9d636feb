package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aaryan182/veterinary-chatbot-sdk/internal/appointments"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/booking"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/observability/metrics"
	"github.com/aaryan182/veterinary-chatbot-sdk/pkg/logging"
)

// AppointmentCreator persists a confirmed booking; *appointments.Service
// satisfies it.
type AppointmentCreator interface {
	Create(ctx context.Context, fields map[booking.FieldName]string) (*appointments.Appointment, error)
}

const (
	healthSystemPrompt = "You are a friendly veterinary clinic assistant. Answer general pet " +
		"health questions briefly and practically. You are not a veterinarian: never diagnose, " +
		"never prescribe, and recommend an in-person visit for anything urgent. If the user " +
		"wants an appointment, tell them you can book one right here in the chat."

	healthDisclaimer = "\n\nPlease note this is general guidance, not a diagnosis. For anything urgent, contact your vet right away."

	fallbackReply = "I'm having trouble answering right now. I can still book an appointment for you — just say \"book an appointment\" to get started."
)

var bookingIntentRE = regexp.MustCompile(`(?i)\b(book|booking|appointment|schedule|reschedule)\b`)

// Deps are the service's collaborators. Engine, Sessions and Appointments
// are required; the rest degrade gracefully when absent.
type Deps struct {
	Engine       *booking.Engine
	Sessions     booking.SessionStore
	Appointments AppointmentCreator
	LLM          LLMClient
	Transcripts  *TranscriptStore
	Metrics      *metrics.ChatMetrics
	Logger       *logging.Logger
	HistoryLimit int64
}

// Service routes each chat message either into the booking dialogue or to
// the LLM for a general pet-health answer.
type Service struct {
	engine       *booking.Engine
	sessions     booking.SessionStore
	appointments AppointmentCreator
	llm          LLMClient
	transcripts  *TranscriptStore
	metrics      *metrics.ChatMetrics
	logger       *logging.Logger
	historyLimit int64
}

// NewService creates the chat service.
func NewService(deps Deps) *Service {
	if deps.Engine == nil {
		panic("chat: booking engine cannot be nil")
	}
	if deps.Sessions == nil {
		panic("chat: session store cannot be nil")
	}
	if deps.Appointments == nil {
		panic("chat: appointment creator cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = 10
	}
	return &Service{
		engine:       deps.Engine,
		sessions:     deps.Sessions,
		appointments: deps.Appointments,
		llm:          deps.LLM,
		transcripts:  deps.Transcripts,
		metrics:      deps.Metrics,
		logger:       deps.Logger.Component("chat"),
		historyLimit: deps.HistoryLimit,
	}
}

// HandleMessage processes one user message end to end and returns the reply
// text. Callers wanting strict per-session ordering must serialize calls for
// the same session (see Worker).
func (s *Service) HandleMessage(ctx context.Context, sessionID, utterance string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("chat: sessionID required")
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("chat: load booking state: %w", err)
	}

	// History is loaded before the new utterance is recorded so the current
	// message never shows up twice in extraction or LLM context.
	history, err := s.transcripts.History(ctx, sessionID, s.historyLimit)
	if err != nil {
		s.logger.Warn("failed to load history", "session_id", sessionID, "error", err)
	}

	if err := s.transcripts.Append(ctx, sessionID, TranscriptMessage{Role: ChatRoleUser, Body: utterance}); err != nil {
		s.logger.Warn("failed to record user message", "session_id", sessionID, "error", err)
	}

	var reply string
	if (state != nil && state.IsActive) || bookingIntentRE.MatchString(utterance) {
		reply, err = s.bookingTurn(ctx, sessionID, utterance, state, history)
		if err != nil {
			return "", err
		}
	} else {
		reply = s.healthReply(ctx, utterance, history)
	}

	if err := s.transcripts.Append(ctx, sessionID, TranscriptMessage{Role: ChatRoleAssistant, Body: reply}); err != nil {
		s.logger.Warn("failed to record reply", "session_id", sessionID, "error", err)
	}
	return reply, nil
}

// Transcript returns the session's recent messages for history endpoints.
func (s *Service) Transcript(ctx context.Context, sessionID string, limit int64) ([]TranscriptMessage, error) {
	return s.transcripts.List(ctx, sessionID, limit)
}

func (s *Service) bookingTurn(ctx context.Context, sessionID, utterance string, state *booking.State, history []booking.Turn) (string, error) {
	res := s.engine.ProcessTurn(ctx, utterance, state, history)
	s.metrics.ObserveTurn(string(res.Action))

	switch res.Action {
	case booking.ActionConfirmed:
		appt, err := s.appointments.Create(ctx, res.State.Fields)
		if err != nil {
			// The state stays confirming so "yes" can simply be repeated.
			s.logger.Error("appointment creation failed", "session_id", sessionID, "error", err)
			s.metrics.ObserveBookingOutcome("create_failed")
			if putErr := s.sessions.Put(ctx, sessionID, res.State); putErr != nil {
				s.logger.Error("failed to persist state after create failure", "session_id", sessionID, "error", putErr)
			}
			return booking.CreateFailureMessage(), nil
		}
		s.metrics.ObserveBookingOutcome("confirmed")
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to clear session after booking", "session_id", sessionID, "error", err)
		}
		return booking.SuccessMessage(appt.ReferenceID, appt.Date, appt.TimeOfDay, appt.PetName), nil

	case booking.ActionCancelled:
		s.metrics.ObserveBookingOutcome("cancelled")
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to clear cancelled session", "session_id", sessionID, "error", err)
		}
		return res.Response, nil

	default:
		if err := s.sessions.Put(ctx, sessionID, res.State); err != nil {
			return "", fmt.Errorf("chat: persist booking state: %w", err)
		}
		return res.Response, nil
	}
}

// healthReply answers a general pet-health question with the LLM, falling
// back to a canned reply when the model is absent or failing.
func (s *Service) healthReply(ctx context.Context, utterance string, history []booking.Turn) string {
	if s.llm == nil {
		return fallbackReply
	}

	messages := make([]ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: utterance})

	start := time.Now()
	resp, err := s.llm.Complete(ctx, LLMRequest{
		System:      []string{healthSystemPrompt},
		Messages:    messages,
		MaxTokens:   512,
		Temperature: 0.7,
	})
	s.metrics.ObserveLLMLatency("health_reply", time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("llm completion failed", "error", err)
		return fallbackReply
	}
	if strings.TrimSpace(resp.Text) == "" {
		return fallbackReply
	}
	return resp.Text + healthDisclaimer
}
