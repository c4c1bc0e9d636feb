package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	cancelMessage = "No problem, I've cancelled the booking. Feel free to reach out whenever you'd like to schedule a visit!"

	restartPreamble = "Sure, let's start fresh! "

	editPrompt = "Of course! Which detail would you like to change — your name, pet's name, phone number, date, or time?"

	retryAfterCreateFailure = "I'm sorry, something went wrong on our end while creating the appointment. Your details are saved — just say \"yes\" again and I'll retry."

	genericAck = "Got all that, thank you! "
)

// PromptFor renders the question for a field.
func PromptFor(f FieldName) string {
	return SpecFor(f).Prompt
}

// RetryPromptFor renders the retry question shown after a validation
// failure, including the validator's reason when available.
func RetryPromptFor(f FieldName, reason string) string {
	prompt := SpecFor(f).RetryPrompt
	if reason == "" {
		return prompt
	}
	return reason + " " + prompt
}

// CancelMessage is the fixed cancellation acknowledgment.
func CancelMessage() string {
	return cancelMessage
}

// RestartMessage re-opens the flow with the first field's prompt.
func RestartMessage() string {
	return restartPreamble + PromptFor(RequiredFields[0])
}

// EditPrompt asks which field the user wants to change.
func EditPrompt() string {
	return editPrompt
}

// CreateFailureMessage is shown when appointment creation fails downstream;
// the state stays in confirming so the user can retry.
func CreateFailureMessage() string {
	return retryAfterCreateFailure
}

// AckFor returns a field-specific acknowledgment when exactly one field was
// filled this turn. Two or more newly filled fields get one generic phrase.
func AckFor(filled []FieldName, fields map[FieldName]string) string {
	switch len(filled) {
	case 0:
		return ""
	case 1:
		return ackForField(filled[0], fields[filled[0]])
	default:
		return genericAck
	}
}

func ackForField(f FieldName, value string) string {
	switch f {
	case FieldOwnerName:
		return fmt.Sprintf("Nice to meet you, %s! ", value)
	case FieldPetName:
		return fmt.Sprintf("%s — what a great name! ", value)
	case FieldPhone:
		return "Thanks, I've noted your phone number. "
	case FieldDate:
		return fmt.Sprintf("Great, %s works. ", FormatLongDate(value))
	case FieldTime:
		return fmt.Sprintf("Perfect, %s it is. ", FormatClock(value))
	default:
		return genericAck
	}
}

// ConfirmationSummary renders every collected value with friendly date/time
// formatting, ending in an explicit yes/no question.
func ConfirmationSummary(fields map[FieldName]string) string {
	var b strings.Builder
	b.WriteString("Wonderful! Let me confirm the details:\n\n")
	fmt.Fprintf(&b, "Owner: %s\n", fields[FieldOwnerName])
	fmt.Fprintf(&b, "Pet: %s\n", fields[FieldPetName])
	fmt.Fprintf(&b, "Phone: %s\n", fields[FieldPhone])
	fmt.Fprintf(&b, "Date: %s\n", FormatLongDate(fields[FieldDate]))
	fmt.Fprintf(&b, "Time: %s\n", FormatClock(fields[FieldTime]))
	if notes := fields[FieldNotes]; notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", notes)
	}
	b.WriteString("\nShall I book it? (yes/no)")
	return b.String()
}

// SuccessMessage is synthesized by the caller once the appointment has been
// created, since only the caller knows the generated reference.
func SuccessMessage(referenceID, date, timeOfDay, petName string) string {
	return fmt.Sprintf(
		"You're all set! %s's appointment is booked for %s at %s. Your booking reference is %s. We look forward to seeing you both!",
		petName, FormatLongDate(date), FormatClock(timeOfDay), referenceID,
	)
}

// FormatLongDate turns YYYY-MM-DD into "Monday, January 2, 2006".
// Unparseable input is returned unchanged.
func FormatLongDate(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}

// FormatClock turns HH:MM into a 12-hour clock like "2:30 PM".
// Unparseable input is returned unchanged.
func FormatClock(clock string) string {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return clock
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return clock
	}
	meridiem := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		display = hour - 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%s %s", display, parts[1], meridiem)
}
