package llm

import (
	"strings"

	"github.com/PabloGalante/solace/internal/domain"
)

const baseSystemPrompt = `
You are "Solace", a warm and empathetic emotional-support companion.

Your role:
- You listen with empathy and without judgment.
- You help the user name what they feel and find one small next step.
- You are NOT a therapist, doctor, or emergency service and you do NOT give medical or psychiatric diagnoses.

General style guidelines:
- Answer in the SAME LANGUAGE as the user.
- Be concise: 2-4 sentences.
- Start with validation, then ask at most one thoughtful follow-up question.
- Use simple, everyday language, not technical jargon.

Boundaries and safety:
- If the user mentions self-harm, suicide, or that they might hurt someone, encourage them to contact local emergency services or a crisis line right away.
- Never give instructions on how to self-harm or harm others.

You receive a draft reply written by a rule-based therapeutic engine. Keep its
intent and its question, and make it sound natural and personal.
`

const supportiveInstructions = `
Mode: supportive

Focus:
- Validate and normalize what the user feels.
- Offer presence and comfort before any suggestion.

Tone:
- Gentle, validating, and grounded.
`

const cbtInstructions = `
Mode: cbt

Focus:
- Gently notice unhelpful thinking patterns the user may be caught in.
- Invite them to look at the evidence and at more balanced alternatives.

Tone:
- Curious, collaborative, never lecturing.
`

const dbtInstructions = `
Mode: dbt

Focus:
- Help the user tolerate and regulate an intense emotion.
- Suggest one concrete regulation skill (pausing, breathing, opposite action).

Tone:
- Calm, steady, accepting.
`

const motivationalInstructions = `
Mode: motivational

Focus:
- Reflect the user's own reasons for change.
- Help them find one very small step that feels doable today.

Tone:
- Encouraging, realistic, never pushy.
`

const solutionFocusedInstructions = `
Mode: solution_focused

Focus:
- Look for what already works and for exceptions to the problem.
- Keep attention on small, concrete progress.

Tone:
- Practical, hopeful.
`

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildSystemPrompt returns the identity plus the instructions for the mode
// and the turn's emotional context.
func BuildSystemPrompt(convCtx domain.ConversationContext) string {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	b.WriteString("\n")
	b.WriteString(modeInstructions(convCtx.Mode))

	emotion := convCtx.Emotion
	if emotion == "" {
		emotion = domain.EmotionNeutral
	}
	b.WriteString("\nThe user seems to be feeling " + string(emotion) + ".\n")
	if convCtx.Framework != "" {
		b.WriteString("Therapeutic framework in use: " + string(convCtx.Framework) + ".\n")
	}
	if convCtx.CopingSuggestion != "" {
		b.WriteString("A coping idea you may weave in: " + convCtx.CopingSuggestion + "\n")
	}
	return b.String()
}

// BuildUserContent renders the draft and the new message.
func BuildUserContent(userMessage string, convCtx domain.ConversationContext) string {
	var userContent strings.Builder
	if convCtx.Draft != "" {
		userContent.WriteString("Draft reply:\n")
		userContent.WriteString(convCtx.Draft)
		userContent.WriteString("\n\n")
	}
	userContent.WriteString("New user message:\n")
	userContent.WriteString(userMessage)
	return userContent.String()
}

// BuildPrompt builds the system prompt and the user content
// (history + draft + new message) as a single exchange.
func BuildPrompt(userMessage string, convCtx domain.ConversationContext) Prompt {
	var historyParts []string
	for _, m := range priorHistory(convCtx.History, userMessage) {
		role := "user"
		if m.Author == domain.RoleAgent {
			role = "assistant"
		}
		historyParts = append(historyParts, role+": "+m.Text)
	}

	var user strings.Builder
	if len(historyParts) > 0 {
		user.WriteString("Conversation so far:\n")
		user.WriteString(strings.Join(historyParts, "\n"))
		user.WriteString("\n\n")
	}
	user.WriteString(BuildUserContent(userMessage, convCtx))

	return Prompt{
		System: BuildSystemPrompt(convCtx),
		User:   user.String(),
	}
}

// priorHistory drops the trailing copy of the current message, which the
// conversation service stores before the turn runs.
func priorHistory(history []*domain.Message, userMessage string) []*domain.Message {
	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Author == domain.RoleUser && last.Text == userMessage {
			return history[:n-1]
		}
	}
	return history
}

func modeInstructions(mode domain.TherapyMode) string {
	switch mode {
	case domain.ModeCBT:
		return cbtInstructions
	case domain.ModeDBT:
		return dbtInstructions
	case domain.ModeMotivational:
		return motivationalInstructions
	case domain.ModeSolutionFocused:
		return solutionFocusedInstructions
	case domain.ModeSupportive:
		fallthrough
	default:
		return supportiveInstructions
	}
}
