package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldSpec bundles everything the engine needs to collect one field:
// the prompt, the retry prompt shown after a failed validation, the ordered
// extraction patterns (textual fields only), and a validator.
//
// Validators are total: they never panic on bad input, and they return a
// human-readable reason on failure, "" on success.
type FieldSpec struct {
	Name        FieldName
	Prompt      string
	RetryPrompt string
	Patterns    []*regexp.Regexp
	Validate    func(value string) string
}

// SpecFor returns the static spec for a field. The switch is exhaustive over
// the closed FieldName set so a new field cannot be added without a spec.
func SpecFor(f FieldName) FieldSpec {
	switch f {
	case FieldOwnerName:
		return ownerNameSpec
	case FieldPetName:
		return petNameSpec
	case FieldPhone:
		return phoneSpec
	case FieldDate:
		return dateSpec
	case FieldTime:
		return timeSpec
	case FieldNotes:
		return notesSpec
	default:
		panic(fmt.Sprintf("booking: unknown field %q", f))
	}
}

const namePhrase = `[\p{L}][\p{L}'-]*(?:\s+[\p{L}][\p{L}'-]*){0,2}`

var (
	ownerNameSpec = FieldSpec{
		Name:        FieldOwnerName,
		Prompt:      "I'd be happy to help you book an appointment! First, may I have your name?",
		RetryPrompt: "Sorry, I didn't catch a valid name. Could you tell me your name again?",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)my name is\s+(` + namePhrase + `)`),
			regexp.MustCompile(`(?i)\bi'?m\s+(` + namePhrase + `)`),
			regexp.MustCompile(`(?i)\bi am\s+(` + namePhrase + `)`),
			regexp.MustCompile(`(?i)this is\s+(` + namePhrase + `)`),
			regexp.MustCompile(`(?i)call me\s+(` + namePhrase + `)`),
		},
		Validate: validateOwnerName,
	}

	petNameSpec = FieldSpec{
		Name:        FieldPetName,
		Prompt:      "What's your pet's name?",
		RetryPrompt: "I didn't get a valid pet name there. What's your pet called?",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:my|our)\s+(?:dog|cat|pet|puppy|kitten|bird|rabbit|hamster|ferret)(?:'s name)?\s+is\s+([\p{L}][\p{L}'-]*)`),
			regexp.MustCompile(`(?i)(?:dog|cat|pet|puppy|kitten|bird|rabbit|hamster|ferret)\s+(?:named|called)\s+([\p{L}][\p{L}'-]*)`),
			regexp.MustCompile(`(?i)pet'?s name is\s+([\p{L}][\p{L}'-]*)`),
			regexp.MustCompile(`(?i)(?:his|her|their) name is\s+([\p{L}][\p{L}'-]*)`),
		},
		Validate: validatePetName,
	}

	phoneSpec = FieldSpec{
		Name:        FieldPhone,
		Prompt:      "What's the best phone number to reach you?",
		RetryPrompt: "That doesn't look like a valid phone number. Please share a number with 10 to 15 digits.",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`),
			regexp.MustCompile(`\+?\d[\d\s().-]{8,18}\d`),
		},
		Validate: validatePhone,
	}

	dateSpec = FieldSpec{
		Name:        FieldDate,
		Prompt:      "What date works best for the appointment? You can say things like \"tomorrow\", \"next Friday\", or \"March 15\".",
		RetryPrompt: "I couldn't work out that date. Appointments can be booked from today up to 90 days out — could you try another date?",
		Validate:    validateDate,
	}

	timeSpec = FieldSpec{
		Name:        FieldTime,
		Prompt:      "What time would you like? You can say \"10am\", \"2:30pm\", or \"morning\".",
		RetryPrompt: "I couldn't work out that time. Could you give me a time like \"10am\" or \"14:30\"?",
		Validate:    validateTime,
	}

	notesSpec = FieldSpec{
		Name:        FieldNotes,
		Prompt:      "Anything else we should know before the visit?",
		RetryPrompt: "Those notes are a bit long — could you keep them under 500 characters?",
		Validate:    validateNotes,
	}
)

var ownerNameCharsRE = regexp.MustCompile(`^[\p{L} '-]+$`)

func validateOwnerName(value string) string {
	v := strings.TrimSpace(value)
	n := utf8.RuneCountInString(v)
	if n < 2 || n > 100 {
		return "Name must be between 2 and 100 characters."
	}
	if !ownerNameCharsRE.MatchString(v) {
		return "Name can only contain letters, spaces, hyphens, and apostrophes."
	}
	return ""
}

func validatePetName(value string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < 1 || n > 50 {
		return "Pet name must be between 1 and 50 characters."
	}
	return ""
}

func validatePhone(value string) string {
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 10 || digits > 15 {
		return "Phone number must contain 10 to 15 digits."
	}
	return ""
}

const maxBookingWindowDays = 90

func validateDate(value string) string {
	return validateDateAt(value, time.Now())
}

func validateDateAt(value string, now time.Time) string {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), now.Location())
	if err != nil {
		return "Date must be a real calendar date in YYYY-MM-DD format."
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return "That date has already passed — please pick today or a future date."
	}
	if d.After(today.AddDate(0, 0, maxBookingWindowDays)) {
		return "Appointments can only be booked up to 90 days in advance."
	}
	return ""
}

var time24RE = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

func validateTime(value string) string {
	if !time24RE.MatchString(strings.TrimSpace(value)) {
		return "Time must be in HH:MM 24-hour format."
	}
	return ""
}

func validateNotes(value string) string {
	if utf8.RuneCountInString(value) > 500 {
		return "Notes must be 500 characters or fewer."
	}
	return ""
}
