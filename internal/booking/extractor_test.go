package booking

import (
	"testing"
)

func TestExtractFieldsNames(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantPet   string
	}{
		{
			name:      "intro with pet",
			input:     "I'm John and my dog is Buddy",
			wantOwner: "John",
			wantPet:   "Buddy",
		},
		{
			name:      "full name",
			input:     "My name is Sarah Connor",
			wantOwner: "Sarah Connor",
		},
		{
			name:    "pet named pattern",
			input:   "We have a cat named Whiskers",
			wantPet: "Whiskers",
		},
		{
			name:    "his name is",
			input:   "His name is Rex",
			wantPet: "Rex",
		},
		{
			name:  "nothing extractable",
			input: "hello there",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := ExtractFields(tt.input)
			if got := ex.Fields[FieldOwnerName]; got != tt.wantOwner {
				t.Errorf("owner = %q, want %q", got, tt.wantOwner)
			}
			if got := ex.Fields[FieldPetName]; got != tt.wantPet {
				t.Errorf("pet = %q, want %q", got, tt.wantPet)
			}
		})
	}
}

func TestExtractFieldsPhone(t *testing.T) {
	ex := ExtractFields("you can reach me at 555-123-4567 thanks")
	if got := ex.Fields[FieldPhone]; got != "555-123-4567" {
		t.Errorf("phone = %q, want 555-123-4567", got)
	}

	if ex := ExtractFields("no number here"); ex.Fields[FieldPhone] != "" {
		t.Errorf("unexpected phone %q", ex.Fields[FieldPhone])
	}
}

func TestExtractFieldsDateAndTime(t *testing.T) {
	ex := ExtractFields("tomorrow")
	if ex.Fields[FieldDate] == "" {
		t.Error("expected a date for tomorrow")
	}

	ex = ExtractFields("10am")
	if got := ex.Fields[FieldTime]; got != "10:00" {
		t.Errorf("time = %q, want 10:00", got)
	}
}

func TestMergeRegexWinsForDateTime(t *testing.T) {
	regex := Extraction{Fields: map[FieldName]string{
		FieldDate: "2026-07-01",
		FieldTime: "10:00",
	}}
	ai := Extraction{Fields: map[FieldName]string{
		FieldOwnerName: "John",
		FieldDate:      "2026-08-15",
		FieldTime:      "16:00",
	}}

	merged := Merge(regex, ai)

	if got := merged.Fields[FieldDate]; got != "2026-07-01" {
		t.Errorf("date = %q, regex parser must win", got)
	}
	if got := merged.Fields[FieldTime]; got != "10:00" {
		t.Errorf("time = %q, regex parser must win", got)
	}
	if got := merged.Fields[FieldOwnerName]; got != "John" {
		t.Errorf("owner = %q, AI fields should merge in", got)
	}
}

func TestMergeAIDateUsedWhenParserFoundNothing(t *testing.T) {
	regex := Extraction{Fields: map[FieldName]string{}}
	ai := Extraction{Fields: map[FieldName]string{FieldDate: "2026-08-15"}}

	if got := Merge(regex, ai).Fields[FieldDate]; got != "2026-08-15" {
		t.Errorf("date = %q, AI value should fill the gap", got)
	}
}

func TestMergeFlags(t *testing.T) {
	merged := Merge(
		Extraction{Fields: map[FieldName]string{}},
		Extraction{Fields: map[FieldName]string{}, WantsCancel: true, Confirmation: "yes"},
	)
	if !merged.WantsCancel {
		t.Error("cancel flag should carry over from AI")
	}
	if merged.Confirmation != "yes" {
		t.Errorf("confirmation = %q, want yes", merged.Confirmation)
	}
}

func TestTrimNamePhrase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John and my dog", "John"},
		{"Sarah Connor", "Sarah Connor"},
		{"Pete here", "Pete"},
		{"Anna", "Anna"},
	}
	for _, tt := range tests {
		if got := trimNamePhrase(tt.input); got != tt.want {
			t.Errorf("trimNamePhrase(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
