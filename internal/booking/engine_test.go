package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(nil, opts...)
}

func TestFullBookingConversation(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	// Turn 1: name and pet in one message.
	res := engine.ProcessTurn(ctx, "I'm John and my dog is Buddy", nil, nil)
	require.Equal(t, ActionCollecting, res.Action)
	assert.Equal(t, "John", res.State.Fields[FieldOwnerName])
	assert.Equal(t, "Buddy", res.State.Fields[FieldPetName])
	assert.Contains(t, res.Response, "phone")

	// Turn 2: phone number.
	res = engine.ProcessTurn(ctx, "555-123-4567", res.State, nil)
	require.Equal(t, ActionCollecting, res.Action)
	assert.Equal(t, "555-123-4567", res.State.Fields[FieldPhone])
	assert.Contains(t, res.Response, "date")

	// Turn 3: relative date.
	res = engine.ProcessTurn(ctx, "tomorrow", res.State, nil)
	require.Equal(t, ActionCollecting, res.Action)
	wantDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	assert.Equal(t, wantDate, res.State.Fields[FieldDate])
	assert.Contains(t, res.Response, "time")

	// Turn 4: time completes the set and triggers confirmation.
	res = engine.ProcessTurn(ctx, "10am", res.State, nil)
	require.Equal(t, ActionConfirming, res.Action)
	assert.Equal(t, "10:00", res.State.Fields[FieldTime])
	assert.True(t, res.State.IsConfirming)
	assert.Contains(t, res.Response, "John")
	assert.Contains(t, res.Response, "Buddy")
	assert.Contains(t, res.Response, "yes/no")

	// Turn 5: confirmation yields no response text; the caller builds it.
	res = engine.ProcessTurn(ctx, "yes", res.State, nil)
	require.Equal(t, ActionConfirmed, res.Action)
	assert.Empty(t, res.Response)
}

func TestCancelAlwaysDeactivates(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	states := []*State{
		nil,
		NewState(),
		{
			IsActive:     true,
			IsConfirming: true,
			Fields: map[FieldName]string{
				FieldOwnerName: "John", FieldPetName: "Buddy",
				FieldPhone: "5551234567", FieldDate: "2026-07-01", FieldTime: "10:00",
			},
			Attempts: map[FieldName]int{},
		},
	}

	for _, st := range states {
		res := engine.ProcessTurn(ctx, "actually, cancel that", st, nil)
		assert.Equal(t, ActionCancelled, res.Action)
		assert.False(t, res.State.IsActive)
		assert.Equal(t, CancelMessage(), res.Response)
	}
}

func TestRestartClearsFields(t *testing.T) {
	engine := newTestEngine()
	st := NewState()
	st.Fields[FieldOwnerName] = "John"
	st.Fields[FieldPetName] = "Buddy"

	res := engine.ProcessTurn(context.Background(), "let's start over", st, nil)

	require.Equal(t, ActionRestarted, res.Action)
	assert.Empty(t, res.State.Fields)
	assert.True(t, res.State.IsActive)
	assert.Contains(t, res.Response, SpecFor(FieldOwnerName).Prompt)
}

func TestInvalidPhoneGetsPhoneRetry(t *testing.T) {
	engine := newTestEngine()
	st := NewState()
	st.Fields[FieldOwnerName] = "John"
	st.Fields[FieldPetName] = "Buddy"
	st.CurrentField = FieldPhone

	res := engine.ProcessTurn(context.Background(), "123", st, nil)

	require.Equal(t, ActionCollecting, res.Action)
	assert.Empty(t, res.State.Fields[FieldPhone])
	assert.Equal(t, FieldPhone, res.State.ErrorField)
	assert.Contains(t, res.Response, "10 to 15 digits")
	assert.Equal(t, 1, res.State.Attempts[FieldPhone])
}

func TestEditRequestReopensCollection(t *testing.T) {
	engine := newTestEngine()
	st := &State{
		IsActive:     true,
		IsConfirming: true,
		Fields: map[FieldName]string{
			FieldOwnerName: "John", FieldPetName: "Buddy",
			FieldPhone: "5551234567", FieldDate: "2026-07-01", FieldTime: "10:00",
		},
		Attempts: map[FieldName]int{},
	}

	res := engine.ProcessTurn(context.Background(), "no, let's change something", st, nil)

	require.Equal(t, ActionEditRequested, res.Action)
	assert.False(t, res.State.IsConfirming)
	assert.Contains(t, res.Response, "change")
}

func TestConfirmingReplaysummaryAfterEditValue(t *testing.T) {
	engine := newTestEngine()
	st := &State{
		IsActive: true,
		Fields: map[FieldName]string{
			FieldOwnerName: "John", FieldPetName: "Buddy",
			FieldPhone: "5551234567", FieldDate: "2026-07-01", FieldTime: "10:00",
		},
		Attempts: map[FieldName]int{},
	}

	// An edit was requested, then the user supplies a new time.
	res := engine.ProcessTurn(context.Background(), "make it 3pm", st, nil)

	require.Equal(t, ActionConfirming, res.Action)
	assert.Equal(t, "15:00", res.State.Fields[FieldTime])
	assert.True(t, res.State.IsConfirming)
	assert.Contains(t, res.Response, "3:00 PM")
}

func TestDateOutsideWindowRejected(t *testing.T) {
	engine := newTestEngine()
	st := NewState()
	st.Fields[FieldOwnerName] = "John"
	st.Fields[FieldPetName] = "Buddy"
	st.Fields[FieldPhone] = "5551234567"
	st.CurrentField = FieldDate

	farOut := time.Now().AddDate(0, 0, 120).Format("2006-01-02")
	res := engine.ProcessTurn(context.Background(), farOut, st, nil)

	require.Equal(t, ActionCollecting, res.Action)
	assert.Empty(t, res.State.Fields[FieldDate])
	assert.Equal(t, FieldDate, res.State.ErrorField)
	assert.Contains(t, res.Response, "90 days")
}

type stubAIExtractor struct {
	result Extraction
	err    error
	called bool
}

func (s *stubAIExtractor) Extract(context.Context, string, []Turn, map[FieldName]string) (Extraction, error) {
	s.called = true
	return s.result, s.err
}

func TestAIExtractionMergesIn(t *testing.T) {
	stub := &stubAIExtractor{result: Extraction{
		Fields: map[FieldName]string{FieldOwnerName: "Maria Lopez"},
	}}
	engine := newTestEngine(WithAIExtractor(stub))

	res := engine.ProcessTurn(context.Background(), "hi, I need a checkup for my cat named Milo", nil, nil)

	require.True(t, stub.called)
	assert.Equal(t, "Maria Lopez", res.State.Fields[FieldOwnerName])
	assert.Equal(t, "Milo", res.State.Fields[FieldPetName])
}

func TestAIFailureFallsBackToRegex(t *testing.T) {
	stub := &stubAIExtractor{err: errors.New("model unavailable")}
	engine := newTestEngine(WithAIExtractor(stub), WithAITimeout(50*time.Millisecond))

	res := engine.ProcessTurn(context.Background(), "I'm John and my dog is Buddy", nil, nil)

	require.True(t, stub.called)
	require.Equal(t, ActionCollecting, res.Action)
	assert.Equal(t, "John", res.State.Fields[FieldOwnerName])
}

type slowAIExtractor struct{}

func (slowAIExtractor) Extract(ctx context.Context, _ string, _ []Turn, _ map[FieldName]string) (Extraction, error) {
	select {
	case <-ctx.Done():
		return Extraction{}, ctx.Err()
	case <-time.After(5 * time.Second):
		return Extraction{Fields: map[FieldName]string{FieldOwnerName: "Too Late"}}, nil
	}
}

func TestAITimeoutIsBounded(t *testing.T) {
	engine := newTestEngine(WithAIExtractor(slowAIExtractor{}), WithAITimeout(20*time.Millisecond))

	start := time.Now()
	res := engine.ProcessTurn(context.Background(), "I'm John", nil, nil)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "John", res.State.Fields[FieldOwnerName])
}

func TestLastInvalidFieldWins(t *testing.T) {
	// Two invalid candidates in one turn: only the later field in the fixed
	// order is reported. This mirrors the original behavior.
	engine := newTestEngine()
	st := NewState()

	extraction := Extraction{Fields: map[FieldName]string{
		FieldOwnerName: "J",   // too short
		FieldPhone:     "123", // too few digits
	}}
	res := engine.collect(st, extraction, "")

	require.Equal(t, ActionCollecting, res.Action)
	assert.Equal(t, FieldPhone, res.State.ErrorField)
	assert.True(t, strings.Contains(res.Response, "digits"))
}
