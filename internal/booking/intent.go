package booking

import (
	"regexp"
	"strings"
)

// Intent carries the structural signals found in an utterance, independent
// of any field data. Precedence when several fire in one turn:
// cancel > restart > confirmation > field collection.
type Intent struct {
	WantsCancel  bool
	WantsRestart bool
	Confirmation string // "yes", "no", or ""
}

var (
	cancelRE = regexp.MustCompile(`\b(cancel|stop|nevermind|never mind|forget it|don'?t want)\b`)

	restartRE = regexp.MustCompile(`\b(restart|start over|begin again|reset)\b`)

	affirmativePrefixes = []string{
		"yes", "yeah", "yep", "correct", "right", "confirm",
		"that's right", "looks good", "perfect",
	}

	negativePrefixes = []string{
		"no", "nope", "wrong", "incorrect", "change", "fix", "not right",
	}
)

// ClassifyIntent inspects the lowercased utterance for cancel and restart
// keywords. Confirmation signals are only classified when confirming is
// true, since "yes"/"no" carry no meaning outside the confirmation step.
func ClassifyIntent(utterance string, confirming bool) Intent {
	lower := strings.ToLower(strings.TrimSpace(utterance))

	intent := Intent{
		WantsCancel:  cancelRE.MatchString(lower),
		WantsRestart: restartRE.MatchString(lower),
	}

	if confirming {
		intent.Confirmation = classifyConfirmation(lower)
	}
	return intent
}

func classifyConfirmation(lower string) string {
	for _, p := range affirmativePrefixes {
		if strings.HasPrefix(lower, p) {
			return "yes"
		}
	}
	for _, p := range negativePrefixes {
		if strings.HasPrefix(lower, p) {
			return "no"
		}
	}
	return ""
}
