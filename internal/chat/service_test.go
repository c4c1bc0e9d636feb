package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaryan182/veterinary-chatbot-sdk/internal/appointments"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/booking"
)

type fakeCreator struct {
	created []map[booking.FieldName]string
	err     error
}

func (f *fakeCreator) Create(_ context.Context, fields map[booking.FieldName]string) (*appointments.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, fields)
	return &appointments.Appointment{
		ReferenceID: "VET-TEST01",
		PetName:     fields[booking.FieldPetName],
		Date:        fields[booking.FieldDate],
		TimeOfDay:   fields[booking.FieldTime],
	}, nil
}

type fakeLLM struct {
	reply  string
	err    error
	called bool
}

func (f *fakeLLM) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	f.called = true
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	return LLMResponse{Text: f.reply}, nil
}

func newTestService(t *testing.T, llm LLMClient, creator AppointmentCreator) *Service {
	t.Helper()
	if creator == nil {
		creator = &fakeCreator{}
	}
	return NewService(Deps{
		Engine:       booking.NewEngine(nil),
		Sessions:     booking.NewMemorySessionStore(),
		Appointments: creator,
		LLM:          llm,
	})
}

func TestHealthQuestionGoesToLLM(t *testing.T) {
	llm := &fakeLLM{reply: "Mild vomiting usually passes within a day."}
	svc := newTestService(t, llm, nil)

	reply, err := svc.HandleMessage(context.Background(), "sess-1", "my cat keeps vomiting, is that bad?")

	require.NoError(t, err)
	assert.True(t, llm.called)
	assert.Contains(t, reply, "Mild vomiting")
	assert.Contains(t, reply, "not a diagnosis")
}

func TestLLMFailureFallsBack(t *testing.T) {
	svc := newTestService(t, &fakeLLM{err: errors.New("rate limited")}, nil)

	reply, err := svc.HandleMessage(context.Background(), "sess-1", "is chocolate dangerous for dogs?")

	require.NoError(t, err)
	assert.Equal(t, fallbackReply, reply)
}

func TestNoLLMFallsBack(t *testing.T) {
	svc := newTestService(t, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), "sess-1", "how often should I feed a puppy?")

	require.NoError(t, err)
	assert.Equal(t, fallbackReply, reply)
}

func TestBookingIntentStartsCollection(t *testing.T) {
	llm := &fakeLLM{reply: "should not be used"}
	svc := newTestService(t, llm, nil)

	reply, err := svc.HandleMessage(context.Background(), "sess-1", "I'd like to book an appointment")

	require.NoError(t, err)
	assert.False(t, llm.called)
	assert.Contains(t, reply, "your name")

	state, err := svc.sessions.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.IsActive)
}

func TestActiveBookingBypassesIntentCheck(t *testing.T) {
	svc := newTestService(t, &fakeLLM{reply: "nope"}, nil)
	ctx := context.Background()

	_, err := svc.HandleMessage(ctx, "sess-1", "book an appointment please")
	require.NoError(t, err)

	// A plain name carries no booking keyword but must still hit the engine.
	reply, err := svc.HandleMessage(ctx, "sess-1", "John Smith")
	require.NoError(t, err)
	assert.Contains(t, reply, "pet's name")
}

func TestFullBookingThroughService(t *testing.T) {
	creator := &fakeCreator{}
	svc := newTestService(t, nil, creator)
	ctx := context.Background()

	turns := []string{
		"I want to schedule a visit",
		"I'm John and my dog is Buddy",
		"555-123-4567",
		"tomorrow",
		"10am",
	}
	var reply string
	var err error
	for _, turn := range turns {
		reply, err = svc.HandleMessage(ctx, "sess-1", turn)
		require.NoError(t, err, "turn %q", turn)
	}
	assert.Contains(t, reply, "Shall I book it?")

	reply, err = svc.HandleMessage(ctx, "sess-1", "yes")
	require.NoError(t, err)
	assert.Contains(t, reply, "VET-TEST01")
	assert.Contains(t, reply, "Buddy")
	require.Len(t, creator.created, 1)

	// The session is cleared once the appointment exists.
	state, err := svc.sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestCreateFailureIsRetryable(t *testing.T) {
	creator := &fakeCreator{err: errors.New("db down")}
	svc := newTestService(t, nil, creator)
	ctx := context.Background()

	confirming := &booking.State{
		IsActive:     true,
		IsConfirming: true,
		Fields: map[booking.FieldName]string{
			booking.FieldOwnerName: "John", booking.FieldPetName: "Buddy",
			booking.FieldPhone: "5551234567", booking.FieldDate: "2026-09-01", booking.FieldTime: "10:00",
		},
		Attempts: map[booking.FieldName]int{},
	}
	require.NoError(t, svc.sessions.Put(ctx, "sess-1", confirming))

	reply, err := svc.HandleMessage(ctx, "sess-1", "yes")
	require.NoError(t, err)
	assert.Equal(t, booking.CreateFailureMessage(), reply)

	state, err := svc.sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.IsConfirming)

	// Retry succeeds once the repository recovers.
	creator.err = nil
	reply, err = svc.HandleMessage(ctx, "sess-1", "yes")
	require.NoError(t, err)
	assert.Contains(t, reply, "VET-TEST01")
}

func TestCancelClearsSession(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.HandleMessage(ctx, "sess-1", "book an appointment")
	require.NoError(t, err)

	reply, err := svc.HandleMessage(ctx, "sess-1", "cancel that")
	require.NoError(t, err)
	assert.Equal(t, booking.CancelMessage(), reply)

	state, err := svc.sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestEmptySessionIDRejected(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.HandleMessage(context.Background(), "  ", "hello")
	require.Error(t, err)
}

func TestBookingIntentDetection(t *testing.T) {
	tests := []struct {
		utterance string
		want      bool
	}{
		{"I want to book a visit", true},
		{"can I schedule something for Buddy?", true},
		{"need an appointment", true},
		{"my dog ate chocolate", false},
		{"what are your opening hours?", false},
	}
	for _, tt := range tests {
		if got := bookingIntentRE.MatchString(tt.utterance); got != tt.want {
			t.Errorf("bookingIntentRE(%q) = %v, want %v", tt.utterance, got, tt.want)
		}
	}
}
