package therapy

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/solace/internal/domain"
)

// Advance applies one turn to the conversation state: it records the
// emotion, bumps the depth, appends the turn's distortions and reselects the
// mode. The phase is left untouched.
func Advance(tc *domain.TherapeuticContext, e domain.Emotion, intensity float64, found []domain.Distortion) domain.TherapyMode {
	tc.CurrentEmotion = e
	tc.EmotionIntensity = clamp(intensity, 0, 1)
	tc.ConversationDepth++
	tc.IdentifiedDistortions = append(tc.IdentifiedDistortions, found...)
	tc.Mode = SelectMode(e, tc.EmotionIntensity, tc.ConversationDepth, found)
	return tc.Mode
}

var validationStatements = []string{
	"What you're feeling makes complete sense given what you're going through.",
	"Your emotions are valid and deserve to be acknowledged.",
	"It's understandable that you feel this way.",
	"Anyone in your situation would likely feel similar emotions.",
	"Thank you for trusting me with these difficult feelings.",
	"It takes courage to be this honest about how you're feeling.",
}

var reflectionTemplates = []string{
	"It sounds like you're carrying a lot of %s right now.",
	"I can hear how %s this situation is making you feel.",
	"What you're describing sounds really %s.",
	"I sense that you're feeling quite %s about this.",
}

var openQuestions = []string{
	"Can you tell me more about what led to these feelings?",
	"What's been the hardest part of this for you?",
	"How long have you been feeling this way?",
	"What do you think you need most right now?",
}

var thoughtChallenging = []string{
	"What evidence do you have for this thought?",
	"What evidence contradicts this thought?",
	"What would you tell a friend in this situation?",
	"Is this thought helping you or hurting you?",
	"What's a more balanced way to look at this?",
}

// ComposeResponse builds the rule-based reply for an already advanced
// context. found are the distortions detected on this turn only.
func ComposeResponse(tc *domain.TherapeuticContext, found []domain.Distortion, iv domain.Intervention) string {
	idx := tc.ConversationDepth - 1
	if idx < 0 {
		idx = 0
	}

	parts := []string{
		validationStatements[idx%len(validationStatements)],
		fmt.Sprintf(reflectionTemplates[idx%len(reflectionTemplates)], tc.CurrentEmotion),
		intervention(tc, found, iv),
		followUp(tc.ConversationDepth, idx),
	}
	return strings.Join(parts, " ")
}

func intervention(tc *domain.TherapeuticContext, found []domain.Distortion, iv domain.Intervention) string {
	if tc.ConversationDepth > 2 && iv.Prompt != "" {
		return iv.Prompt
	}

	switch tc.Mode {
	case domain.ModeCBT:
		if len(found) > 0 {
			info := distortions[found[0]]
			return fmt.Sprintf("I notice you might be %s. %s", strings.ToLower(info.Description), info.Challenge)
		}
	case domain.ModeSupportive:
		return "These feelings are a natural response to what you're experiencing. You're not alone in feeling this way."
	case domain.ModeDBT:
		return "Let's work on accepting and regulating these intense emotions. They're valid, and we can learn to sit with them without being overwhelmed."
	case domain.ModeMotivational:
		return "What matters most to you? Even in this difficult moment, what values do you want to honor?"
	}
	return "When was a time you handled something similar? What helped you then?"
}

func followUp(depth, idx int) string {
	if depth < 3 {
		return openQuestions[idx%len(openQuestions)]
	}
	return thoughtChallenging[idx%len(thoughtChallenging)]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
