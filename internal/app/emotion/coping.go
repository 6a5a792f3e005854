package emotion

import "github.com/PabloGalante/solace/internal/domain"

const defaultCoping = "Take a moment to breathe deeply and be kind to yourself."

var copingStrategies = map[domain.Emotion][]string{
	domain.EmotionSad: {
		"Try taking a short walk outside to get some fresh air",
		"Listen to your favorite uplifting music",
		"Reach out to a friend or family member",
		"Write down three things you're grateful for today",
		"Watch a comforting movie or show",
	},
	domain.EmotionAnxious: {
		"Practice deep breathing: inhale for 4 counts, hold for 4, exhale for 4",
		"Try the 5-4-3-2-1 grounding technique",
		"Do some gentle stretching or yoga",
		"Limit caffeine and stay hydrated",
		"Focus on what you can control right now",
	},
	domain.EmotionLonely: {
		"Join an online community about your interests",
		"Video call someone you care about",
		"Volunteer for a cause you believe in",
		"Take a class or workshop to meet new people",
		"Spend time in public spaces like cafes or libraries",
	},
	domain.EmotionAngry: {
		"Take a 10-minute timeout to cool down",
		"Do some physical exercise to release tension",
		"Write down your feelings without judgment",
		"Practice progressive muscle relaxation",
		"Count backwards from 10 slowly",
	},
	domain.EmotionTired: {
		"Ensure you're getting 7-9 hours of sleep",
		"Take a 20-minute power nap if possible",
		"Stay hydrated throughout the day",
		"Limit screen time before bed",
		"Try a short meditation or relaxation exercise",
	},
}

// CopingSuggestion picks a strategy for the emotion. n rotates through the
// pool so consecutive turns get different suggestions.
func CopingSuggestion(e domain.Emotion, n int) string {
	pool, ok := copingStrategies[e]
	if !ok || len(pool) == 0 {
		return defaultCoping
	}
	if n < 0 {
		n = -n
	}
	return pool[n%len(pool)]
}
