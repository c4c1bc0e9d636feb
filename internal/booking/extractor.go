package booking

import (
	"strings"
)

// Extraction is a partial field map plus the structural signals detected in
// one utterance. It is produced by the regex extractor and, optionally, by
// an AIExtractor; Merge reconciles the two.
type Extraction struct {
	Fields       map[FieldName]string `json:"fields"`
	WantsCancel  bool                 `json:"wants_cancel"`
	WantsRestart bool                 `json:"wants_restart"`
	Confirmation string               `json:"confirmation,omitempty"` // "yes", "no", or ""
}

// textualFields are extracted by each field's ordered pattern list. Date and
// time always go through the natural-language parsers instead.
var textualFields = []FieldName{FieldOwnerName, FieldPetName, FieldPhone}

// nameStopWords terminate a captured name phrase. "I'm John and my dog is
// Buddy" should yield "John", not "John and my".
var nameStopWords = map[string]bool{
	"and": true, "but": true, "my": true, "our": true, "the": true,
	"here": true, "calling": true, "with": true,
}

// ExtractFields applies the schema's regex patterns and the date/time
// parsers to a raw utterance. At most one value per field per turn; the
// first pattern with a capture wins.
func ExtractFields(utterance string) Extraction {
	ex := Extraction{Fields: make(map[FieldName]string)}

	for _, f := range textualFields {
		spec := SpecFor(f)
		for _, re := range spec.Patterns {
			m := re.FindStringSubmatch(utterance)
			if m == nil {
				continue
			}
			value := m[0]
			if len(m) > 1 {
				value = m[1]
			}
			if f == FieldOwnerName || f == FieldPetName {
				value = trimNamePhrase(value)
			}
			value = strings.TrimSpace(value)
			if value != "" {
				ex.Fields[f] = value
				break
			}
		}
	}

	if date := ParseDate(utterance); date != "" {
		ex.Fields[FieldDate] = date
	}
	if t := ParseTime(utterance); t != "" {
		ex.Fields[FieldTime] = t
	}

	return ex
}

// trimNamePhrase cuts a captured multi-word name at the first stop word.
func trimNamePhrase(phrase string) string {
	words := strings.Fields(phrase)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if nameStopWords[strings.ToLower(w)] {
			break
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Merge reconciles the regex extraction with an AI extraction. AI values
// fill in fields and intent flags the regexes missed, but the parser-derived
// date and time always win over AI values for those two fields.
func Merge(regex, ai Extraction) Extraction {
	merged := Extraction{Fields: make(map[FieldName]string)}

	for f, v := range ai.Fields {
		merged.Fields[f] = v
	}
	for f, v := range regex.Fields {
		merged.Fields[f] = v
	}

	merged.WantsCancel = regex.WantsCancel || ai.WantsCancel
	merged.WantsRestart = regex.WantsRestart || ai.WantsRestart
	merged.Confirmation = regex.Confirmation
	if merged.Confirmation == "" {
		merged.Confirmation = ai.Confirmation
	}
	return merged
}
