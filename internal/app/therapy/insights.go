package therapy

import (
	"strings"

	"github.com/PabloGalante/solace/internal/domain"
)

var breakthroughMarkers = []string{
	"i realize",
	"i realised",
	"i realized",
	"i understand now",
	"makes sense now",
	"i never thought",
	"i can see that",
	"feeling better",
	"that helped",
}

var concernAreas = []struct {
	area    string
	markers []string
}{
	{"work", []string{"work", "job", "boss", "career"}},
	{"relationships", []string{"relationship", "partner", "boyfriend", "girlfriend", "husband", "wife", "breakup"}},
	{"money", []string{"money", "debt", "pay rent", "bills"}},
	{"health", []string{"health", "sick", "illness", "doctor"}},
	{"family", []string{"family", "mother", "father", "my mom", "my dad", "parents"}},
	{"school", []string{"school", "exams", "college", "university", "grades"}},
	{"sleep", []string{"sleep", "insomnia", "can't rest"}},
}

const maxInsightLen = 200

// DetectBreakthroughs returns the message itself when it reads like an insight.
func DetectBreakthroughs(text string) []string {
	lower := normalize(text)
	if lower == "" || !containsAny(lower, breakthroughMarkers) {
		return nil
	}
	return []string{truncate(strings.TrimSpace(text), maxInsightLen)}
}

// DetectConcerns names the life areas a distressed message talks about.
// Positive or neutral turns raise no concerns.
func DetectConcerns(text string, e domain.Emotion) []string {
	if e == domain.EmotionHappy || e == domain.EmotionNeutral {
		return nil
	}
	lower := normalize(text)

	var out []string
	for _, c := range concernAreas {
		if containsAny(lower, c.markers) {
			out = append(out, string(e)+" about "+c.area)
		}
	}
	return out
}

var techniques = map[domain.Emotion][]string{
	domain.EmotionAnxious: {"Box breathing (4-4-4-4)", "Progressive muscle relaxation", "Grounding 5-4-3-2-1", "Worry time technique"},
	domain.EmotionSad:     {"Behavioral activation", "Gratitude journaling", "Reach out to support", "Self-compassion exercise"},
	domain.EmotionAngry:   {"STOP skill (DBT)", "Opposite action", "Time-out strategy", "Physical release (exercise)"},
	domain.EmotionLonely:  {"Schedule social activity", "Join online community", "Volunteer", "Self-companionship"},
	domain.EmotionTired:   {"Sleep hygiene", "Energy conservation", "Gentle movement", "Nutrition check"},
	domain.EmotionNeutral: {"Mindfulness practice", "Values clarification", "Goal setting", "Self-reflection"},
}

// SuggestTechniques returns concrete techniques for the emotion.
func SuggestTechniques(e domain.Emotion) []string {
	list, ok := techniques[e]
	if !ok {
		list = techniques[domain.EmotionNeutral]
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
