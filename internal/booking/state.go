package booking

// FieldName identifies one slot collected during a booking conversation.
type FieldName string

const (
	FieldOwnerName FieldName = "petOwnerName"
	FieldPetName   FieldName = "petName"
	FieldPhone     FieldName = "phoneNumber"
	FieldDate      FieldName = "preferredDate"
	FieldTime      FieldName = "preferredTime"
	FieldNotes     FieldName = "notes"
)

// RequiredFields is the fixed collection order. The next field prompted for
// is always the first one in this order not yet collected.
var RequiredFields = []FieldName{FieldOwnerName, FieldPetName, FieldPhone, FieldDate, FieldTime}

// Action describes what the engine decided for a turn.
type Action string

const (
	ActionCollecting    Action = "collecting"
	ActionConfirming    Action = "confirming"
	ActionConfirmed     Action = "confirmed"
	ActionCancelled     Action = "cancelled"
	ActionRestarted     Action = "restarted"
	ActionEditRequested Action = "edit_requested"
)

// Turn is one prior message of conversation context fed into extraction.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// State is the per-session booking record. A missing record is equivalent to
// an inactive state.
type State struct {
	IsActive     bool                 `json:"is_active"`
	Fields       map[FieldName]string `json:"fields"`
	CurrentField FieldName            `json:"current_field,omitempty"`
	IsConfirming bool                 `json:"is_confirming"`
	ErrorField   FieldName            `json:"error_field,omitempty"`
	LastError    string               `json:"last_error,omitempty"`
	Attempts     map[FieldName]int    `json:"attempts,omitempty"`
}

// NewState returns an active, empty collecting state.
func NewState() *State {
	return &State{
		IsActive: true,
		Fields:   make(map[FieldName]string),
		Attempts: make(map[FieldName]int),
	}
}

// IsComplete reports whether every required field has a validated value.
func (s *State) IsComplete() bool {
	if s == nil {
		return false
	}
	for _, f := range RequiredFields {
		if s.Fields[f] == "" {
			return false
		}
	}
	return true
}

// NextMissingField returns the first required field not yet collected.
func (s *State) NextMissingField() (FieldName, bool) {
	for _, f := range RequiredFields {
		if s == nil || s.Fields[f] == "" {
			return f, true
		}
	}
	return "", false
}

// TurnResult is the outcome of processing one utterance.
// Response is empty only for ActionConfirmed: the caller creates the
// appointment and synthesizes the success message itself.
type TurnResult struct {
	State    *State
	Action   Action
	Response string
}
