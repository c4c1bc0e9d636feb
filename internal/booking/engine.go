package booking

import (
	"context"
	"strings"
	"time"

	"github.com/aaryan182/veterinary-chatbot-sdk/pkg/logging"
)

const defaultAITimeout = 3 * time.Second

// AIExtractor is the optional higher-recall extraction collaborator. The
// engine works correctly with it absent or failing; errors never reach the
// user.
type AIExtractor interface {
	Extract(ctx context.Context, utterance string, history []Turn, collected map[FieldName]string) (Extraction, error)
}

// Engine drives the multi-turn booking dialogue. It is stateless itself;
// all per-session state travels in and out through ProcessTurn. One turn is
// processed to completion before the next — callers wanting strict per-
// session ordering must serialize invocations (see chat worker).
type Engine struct {
	ai        AIExtractor
	aiTimeout time.Duration
	logger    *logging.Logger
	now       func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithAIExtractor attaches the optional AI extraction adapter.
func WithAIExtractor(ai AIExtractor) Option {
	return func(e *Engine) { e.ai = ai }
}

// WithAITimeout bounds each AI extraction call.
func WithAITimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.aiTimeout = d
		}
	}
}

// WithClock overrides the engine's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a booking engine.
func NewEngine(logger *logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		aiTimeout: defaultAITimeout,
		logger:    logger.Component("booking"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessTurn runs one utterance through the state machine and returns the
// updated state, the action taken, and the response text. A nil state starts
// a fresh collecting session.
func (e *Engine) ProcessTurn(ctx context.Context, utterance string, state *State, history []Turn) TurnResult {
	if state == nil {
		state = NewState()
	}

	intent := ClassifyIntent(utterance, state.IsConfirming)
	extraction := e.extract(ctx, utterance, history, state.Fields)

	switch {
	case intent.WantsCancel || extraction.WantsCancel:
		state.IsActive = false
		return TurnResult{State: state, Action: ActionCancelled, Response: CancelMessage()}

	case intent.WantsRestart || extraction.WantsRestart:
		fresh := NewState()
		fresh.CurrentField = RequiredFields[0]
		return TurnResult{State: fresh, Action: ActionRestarted, Response: RestartMessage()}
	}

	if state.IsConfirming {
		confirmation := intent.Confirmation
		if confirmation == "" {
			confirmation = extraction.Confirmation
		}
		switch confirmation {
		case "yes":
			// The caller creates the appointment and synthesizes the
			// success message; the state stays confirming so a downstream
			// failure remains retryable.
			return TurnResult{State: state, Action: ActionConfirmed}
		case "no":
			state.IsConfirming = false
			return TurnResult{State: state, Action: ActionEditRequested, Response: EditPrompt()}
		}
	}

	return e.collect(state, extraction, utterance)
}

// extract merges the regex extraction with the AI adapter's result, falling
// back to regex-only when the adapter is absent, slow, or broken.
func (e *Engine) extract(ctx context.Context, utterance string, history []Turn, collected map[FieldName]string) Extraction {
	regex := ExtractFields(utterance)
	if e.ai == nil {
		return regex
	}

	aiCtx, cancel := context.WithTimeout(ctx, e.aiTimeout)
	defer cancel()

	ai, err := e.ai.Extract(aiCtx, utterance, history, collected)
	if err != nil {
		e.logger.Warn("ai extraction failed, using regex only", "error", err)
		return regex
	}
	return Merge(regex, ai)
}

// collect is the normal collection turn: validate candidates in the fixed
// field order, then decide the next response.
func (e *Engine) collect(state *State, extraction Extraction, utterance string) TurnResult {
	// When nothing was extracted and we are mid-prompt, the reply itself is
	// the candidate for the current field. Short answers like "Buddy" or
	// "123" carry no extractable structure.
	if len(extraction.Fields) == 0 && state.CurrentField != "" {
		if raw := strings.TrimSpace(utterance); raw != "" {
			extraction.Fields[state.CurrentField] = raw
		}
	}

	var filled []FieldName
	var invalidField FieldName
	var invalidReason string

	for _, f := range append(append([]FieldName{}, RequiredFields...), FieldNotes) {
		candidate, ok := extraction.Fields[f]
		if !ok || candidate == "" {
			continue
		}
		if reason := e.validate(f, candidate); reason != "" {
			// Only the last invalid field of a turn is remembered. This
			// mirrors the original behavior; earlier failures in the same
			// turn are dropped (known limitation).
			invalidField = f
			invalidReason = reason
			state.Attempts[f]++
			continue
		}
		if state.Fields[f] != candidate {
			filled = append(filled, f)
		}
		state.Fields[f] = candidate
	}

	state.ErrorField = ""
	state.LastError = ""

	if state.IsComplete() {
		state.IsConfirming = true
		state.CurrentField = ""
		return TurnResult{
			State:    state,
			Action:   ActionConfirming,
			Response: ConfirmationSummary(state.Fields),
		}
	}

	if invalidField != "" {
		state.ErrorField = invalidField
		state.LastError = invalidReason
		state.CurrentField = invalidField
		return TurnResult{
			State:    state,
			Action:   ActionCollecting,
			Response: RetryPromptFor(invalidField, invalidReason),
		}
	}

	next, _ := state.NextMissingField()
	state.CurrentField = next
	return TurnResult{
		State:    state,
		Action:   ActionCollecting,
		Response: AckFor(filled, state.Fields) + PromptFor(next),
	}
}

// validate runs the field's validator, with the date check pinned to the
// engine's clock.
func (e *Engine) validate(f FieldName, value string) string {
	if f == FieldDate {
		return validateDateAt(value, e.now())
	}
	return SpecFor(f).Validate(value)
}
