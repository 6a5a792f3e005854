package emotion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// keywordTable is ordered: ties between emotions go to the first one declared.
var keywordTable = []struct {
	emotion  domain.Emotion
	keywords []string
}{
	{domain.EmotionSad, []string{"sad", "down", "depressed", "unhappy", "miserable", "heartbroken", "grief"}},
	{domain.EmotionAnxious, []string{"anxious", "worried", "nervous", "stressed", "panic", "fear", "scared"}},
	{domain.EmotionLonely, []string{"lonely", "alone", "isolated", "disconnected", "empty", "abandoned"}},
	{domain.EmotionAngry, []string{"angry", "mad", "furious", "irritated", "frustrated", "upset"}},
	{domain.EmotionHappy, []string{"happy", "joy", "excited", "great", "wonderful", "amazing", "good"}},
	{domain.EmotionTired, []string{"tired", "exhausted", "drained", "fatigued", "weary", "burned out"}},
}

// Polarity thresholds used when no keyword matches.
const (
	negativeThreshold = -0.3
	positiveThreshold = 0.3
)

// Match is an emotion with the number of its keywords found in the text.
type Match struct {
	Emotion domain.Emotion `json:"emotion"`
	Count   int            `json:"count"`
}

// Result is the full analysis of one piece of text.
type Result struct {
	Emotion      domain.Emotion `json:"primary_emotion"`
	Intensity    float64        `json:"intensity"`
	Polarity     float64        `json:"polarity"`
	Subjectivity float64        `json:"subjectivity"`
	Matches      []Match        `json:"emotions"`
	MoodLabel    string         `json:"mood_label"`
}

// Classifier maps text to an emotion label. It is stateless and safe for
// concurrent use.
type Classifier struct {
	scorer Scorer
}

// NewClassifier builds a classifier. A nil scorer uses the built-in lexicon.
func NewClassifier(scorer Scorer) *Classifier {
	if scorer == nil {
		scorer = NewLexiconScorer()
	}
	return &Classifier{scorer: scorer}
}

// Classify never fails: a broken scorer degrades to neutral sentiment.
func (c *Classifier) Classify(text string) Result {
	polarity, subjectivity := c.sentiment(text)
	matches := DetectEmotions(text)

	res := Result{
		Polarity:     polarity,
		Subjectivity: subjectivity,
		Matches:      matches,
		Intensity:    clamp(abs(polarity), 0, 1),
		MoodLabel:    MoodLabel(polarity),
	}

	switch {
	case len(matches) > 0:
		res.Emotion = matches[0].Emotion
	case polarity < negativeThreshold:
		res.Emotion = domain.EmotionSad
	case polarity > positiveThreshold:
		res.Emotion = domain.EmotionHappy
	default:
		res.Emotion = domain.EmotionNeutral
	}
	return res
}

func (c *Classifier) sentiment(text string) (polarity, subjectivity float64) {
	if strings.TrimSpace(text) == "" {
		return 0, 0.5
	}

	defer func() {
		if r := recover(); r != nil {
			observability.Logger().Warn("sentiment scorer panicked", "panic", fmt.Sprint(r))
			polarity, subjectivity = 0, 0.5
		}
	}()

	p, s, err := c.scorer.Score(text)
	if err != nil {
		observability.Logger().Warn("sentiment scorer failed", "err", err)
		return 0, 0.5
	}
	return clamp(p, -1, 1), clamp(s, 0, 1)
}

// DetectEmotions counts keyword hits per emotion, case-insensitively, and
// returns the emotions with at least one hit sorted by count. Equal counts
// keep table order.
func DetectEmotions(text string) []Match {
	lower := strings.ToLower(text)

	var matches []Match
	for _, row := range keywordTable {
		count := 0
		for _, kw := range row.keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > 0 {
			matches = append(matches, Match{Emotion: row.emotion, Count: count})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Count > matches[j].Count
	})
	return matches
}

// MoodLabel buckets a polarity score.
func MoodLabel(polarity float64) string {
	switch {
	case polarity < -0.5:
		return "Very Negative"
	case polarity < -0.1:
		return "Negative"
	case polarity <= 0.1:
		return "Neutral"
	case polarity <= 0.5:
		return "Positive"
	default:
		return "Very Positive"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
