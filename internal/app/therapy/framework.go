package therapy

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/solace/internal/domain"
)

var schemaPatterns = []struct {
	schema   domain.Schema
	keywords []string
}{
	{domain.SchemaAbandonment, []string{"everyone leaves", "always left alone", "people abandon me"}},
	{domain.SchemaDefectiveness, []string{"something wrong with me", "i'm broken", "fundamentally flawed"}},
	{domain.SchemaFailure, []string{"always fail", "never good enough", "can't succeed"}},
	{domain.SchemaMistrust, []string{"can't trust anyone", "people hurt me", "will betray me"}},
	{domain.SchemaSubjugation, []string{"have to please", "can't say no", "others' needs first"}},
	{domain.SchemaUnrelentingStandards, []string{"must be perfect", "any mistake", "never enough"}},
}

var (
	selfConceptMarkers  = []string{"i am", "always been", "that's just who i am"}
	helpSeekingMarkers  = []string{"help me", "what should i do", "how can i"}
	selfCriticalMarkers = []string{"hate myself", "worthless", "pathetic", "failure"}
)

// DetectSchema returns the first schema whose patterns appear in text.
func DetectSchema(text string) (domain.Schema, bool) {
	lower := normalize(text)
	for _, p := range schemaPatterns {
		if containsAny(lower, p.keywords) {
			return p.schema, true
		}
	}
	return "", false
}

// SelectFramework picks a framework intervention for the turn. Rules are
// ordered; the first match wins. Conversations at depth 2 or less always get
// the acceptance-based default.
func SelectFramework(e domain.Emotion, text string, depth int) domain.Intervention {
	if depth <= 2 {
		return actIntervention(e)
	}

	lower := normalize(text)

	if schema, ok := DetectSchema(lower); ok && depth > 3 {
		return schemaIntervention(schema)
	}

	switch {
	case e == domain.EmotionAnxious || e == domain.EmotionOverwhelmed || e == domain.EmotionStressed:
		return actIntervention(e)
	case containsAny(lower, selfConceptMarkers):
		return narrativeIntervention(e)
	case containsAny(lower, helpSeekingMarkers):
		return miracleQuestion()
	case containsAny(lower, selfCriticalMarkers):
		return compassionateSelf()
	default:
		return actIntervention(e)
	}
}

func actIntervention(e domain.Emotion) domain.Intervention {
	switch e {
	case domain.EmotionAnxious, domain.EmotionStressed, domain.EmotionOverwhelmed:
		return domain.Intervention{
			Framework: domain.FrameworkACT,
			Technique: "Cognitive Defusion",
			Prompt:    "I notice you're having the thought that things are overwhelming. Can we try something? Instead of 'I am anxious,' can you say 'I'm noticing thoughts about anxiety'? How does that subtle shift feel?",
			FollowUp: []string{
				"What would you do right now if anxiety wasn't stopping you?",
				"What matters to you that's bigger than this fear?",
				"If you could take one small step toward what you value, what would it be?",
			},
			ExpectedOutcome: "Create distance from anxious thoughts",
		}
	case domain.EmotionSad, domain.EmotionDepressed, domain.EmotionHopeless:
		return domain.Intervention{
			Framework: domain.FrameworkACT,
			Technique: "Values Clarification",
			Prompt:    "Even in this difficult moment, what would you want to stand for? If your life was a book and this chapter is painful, what values would you want the reader to see in your character?",
			FollowUp: []string{
				"What small action could you take today that aligns with those values?",
				"Who do you want to be in the face of this pain?",
				"What matters to you beyond feeling good?",
			},
			ExpectedOutcome: "Connect to life meaning beyond mood",
		}
	default:
		return domain.Intervention{
			Framework: domain.FrameworkACT,
			Technique: "Present Moment Awareness",
			Prompt:    "Let's pause. Right now, in this exact moment, what are you noticing? What can you see, hear, feel in your body?",
			FollowUp: []string{
				"Can you be curious about this feeling rather than judging it?",
				"What's one thing you can appreciate in this moment?",
				"How can you be more fully here, right now?",
			},
			ExpectedOutcome: "Ground in present experience",
		}
	}
}

func schemaIntervention(s domain.Schema) domain.Intervention {
	switch s {
	case domain.SchemaAbandonment:
		return domain.Intervention{
			Framework: domain.FrameworkSchema,
			Technique: "Reparenting the Vulnerable Child",
			Prompt:    "It sounds like a deep part of you feels afraid of being left. That makes sense if you've experienced abandonment. Can we explore: what does that scared part of you need to hear right now?",
			FollowUp: []string{
				"What would you tell a child who felt this way?",
				"Can you offer that same compassion to yourself?",
				"What evidence do you have that contradicts this fear?",
			},
			ExpectedOutcome: "Provide corrective emotional experience",
		}
	case domain.SchemaDefectiveness:
		return domain.Intervention{
			Framework: domain.FrameworkSchema,
			Technique: "Fighting the Punitive Parent",
			Prompt:    "I hear a harsh, critical voice in what you're saying. That voice telling you you're flawed: is that your voice, or someone else's from your past?",
			FollowUp: []string{
				"What would a compassionate voice say instead?",
				"If a friend felt this way, would you tell them they're defective?",
				"Can we challenge that critical voice together?",
			},
			ExpectedOutcome: "Separate from internalized criticism",
		}
	case domain.SchemaUnrelentingStandards:
		return domain.Intervention{
			Framework: domain.FrameworkSchema,
			Technique: "Relaxing Standards",
			Prompt:    "These standards you're holding yourself to, where did they come from? What would happen if you achieved 'good enough' instead of perfect?",
			FollowUp: []string{
				"What would you accomplish if perfection wasn't required?",
				"How much has perfectionism actually helped vs. hurt you?",
				"Can you give yourself permission to be human?",
			},
			ExpectedOutcome: "Challenge maladaptive perfectionism",
		}
	default:
		return domain.Intervention{
			Framework: domain.FrameworkSchema,
			Technique: "Schema Awareness",
			Prompt:    "I'm noticing a pattern in what you're sharing. These beliefs you have, where do you think they came from? What experiences shaped them?",
			FollowUp: []string{
				"How has this pattern affected your life?",
				"What would life be like if this weren't true?",
				"Are you ready to challenge this old belief?",
			},
			ExpectedOutcome: "Build schema awareness",
		}
	}
}

func narrativeIntervention(e domain.Emotion) domain.Intervention {
	name := titleCase(string(e))
	return domain.Intervention{
		Framework: domain.FrameworkNarrative,
		Technique: "Externalizing the Problem",
		Prompt:    fmt.Sprintf("I notice you're saying 'I am %s', but what if %s is something visiting you, not who you ARE? Can we give this feeling a name? What would you call it?", e, e),
		FollowUp: []string{
			fmt.Sprintf("When does %s show up most in your life?", name),
			fmt.Sprintf("What does %s tell you about yourself?", name),
			fmt.Sprintf("Can you remember a time when you stood up to %s?", name),
			"What are you like when this problem isn't around?",
			"Who in your life knows the real you, the you without this problem?",
		},
		ExpectedOutcome: "Separate identity from problem",
	}
}

func miracleQuestion() domain.Intervention {
	return domain.Intervention{
		Framework: domain.FrameworkSFBT,
		Technique: "Miracle Question",
		Prompt:    "Let me ask you something powerful: Imagine tonight while you sleep, a miracle happens and this problem is solved. But you don't know the miracle happened because you were asleep. What would be the first small thing you'd notice tomorrow that would tell you something had changed?",
		FollowUp: []string{
			"Who else would notice this change? What would they see?",
			"What would you be doing differently?",
			"On a scale of 1-10, where are you now toward this miracle?",
			"What would it take to move up just one point?",
			"What parts of this miracle are already happening, even a little?",
		},
		ExpectedOutcome: "Envision concrete solutions",
	}
}

func compassionateSelf() domain.Intervention {
	return domain.Intervention{
		Framework: domain.FrameworkCFT,
		Technique: "Compassionate Self Imagery",
		Prompt:    "I want you to imagine your wisest, kindest, most compassionate self. This version of you has deep understanding and infinite patience. What would that compassionate self say to you right now?",
		FollowUp: []string{
			"How would they look at you, with what kind of eyes?",
			"What tone of voice would they use?",
			"What do they understand about your struggle?",
			"Can you feel their warmth toward you?",
			"What do they want you to know?",
		},
		ExpectedOutcome: "Access self-compassion",
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
