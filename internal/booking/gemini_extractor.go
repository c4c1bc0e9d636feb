package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

const extractionPromptTemplate = `You are extracting appointment details from a veterinary clinic chat.

Fields already collected: %s
Recent conversation:
%s

Latest customer message: %q

Extract any NEW details from the latest message. Respond with JSON only:
{"petOwnerName": "", "petName": "", "phoneNumber": "", "preferredDate": "YYYY-MM-DD", "preferredTime": "HH:MM", "notes": "", "wants_cancel": false, "wants_restart": false, "confirmation": "yes|no|"}

Leave a field empty if the message does not mention it. Do not invent values.`

// GeminiExtractor implements AIExtractor using Google's Gemini API.
type GeminiExtractor struct {
	client  *genai.Client
	modelID string
}

// NewGeminiExtractor wraps an existing genai client.
func NewGeminiExtractor(client *genai.Client, modelID string) (*GeminiExtractor, error) {
	if client == nil {
		return nil, errors.New("booking: genai client is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	return &GeminiExtractor{client: client, modelID: modelID}, nil
}

// Extract asks the model for a structured field map. Any transport or parse
// problem is returned as an error; the engine degrades to regex-only.
func (g *GeminiExtractor) Extract(ctx context.Context, utterance string, history []Turn, collected map[FieldName]string) (Extraction, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(256)

	prompt := fmt.Sprintf(extractionPromptTemplate,
		formatCollected(collected), formatHistory(history), utterance)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Extraction{}, fmt.Errorf("booking: gemini extraction failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Extraction{}, errors.New("booking: gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return parseExtractionJSON(text.String())
}

// parseExtractionJSON tolerates prose around the JSON object, the way
// generative models tend to answer.
func parseExtractionJSON(content string) (Extraction, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Extraction{}, errors.New("booking: no JSON object in gemini response")
	}

	var raw struct {
		OwnerName    string `json:"petOwnerName"`
		PetName      string `json:"petName"`
		Phone        string `json:"phoneNumber"`
		Date         string `json:"preferredDate"`
		Time         string `json:"preferredTime"`
		Notes        string `json:"notes"`
		WantsCancel  bool   `json:"wants_cancel"`
		WantsRestart bool   `json:"wants_restart"`
		Confirmation string `json:"confirmation"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return Extraction{}, fmt.Errorf("booking: decode gemini extraction: %w", err)
	}

	ex := Extraction{
		Fields:       make(map[FieldName]string),
		WantsCancel:  raw.WantsCancel,
		WantsRestart: raw.WantsRestart,
	}
	setIfPresent(ex.Fields, FieldOwnerName, raw.OwnerName)
	setIfPresent(ex.Fields, FieldPetName, raw.PetName)
	setIfPresent(ex.Fields, FieldPhone, raw.Phone)
	setIfPresent(ex.Fields, FieldDate, raw.Date)
	setIfPresent(ex.Fields, FieldTime, raw.Time)
	setIfPresent(ex.Fields, FieldNotes, raw.Notes)

	switch strings.ToLower(strings.TrimSpace(raw.Confirmation)) {
	case "yes":
		ex.Confirmation = "yes"
	case "no":
		ex.Confirmation = "no"
	}
	return ex, nil
}

func setIfPresent(fields map[FieldName]string, f FieldName, value string) {
	if v := strings.TrimSpace(value); v != "" {
		fields[f] = v
	}
}

func formatCollected(collected map[FieldName]string) string {
	if len(collected) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(collected))
	for _, f := range append(append([]FieldName{}, RequiredFields...), FieldNotes) {
		if v := collected[f]; v != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", f, v))
		}
	}
	return strings.Join(parts, ", ")
}

func formatHistory(history []Turn) string {
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return b.String()
}
