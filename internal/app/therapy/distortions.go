package therapy

import (
	"strings"

	"github.com/PabloGalante/solace/internal/domain"
)

// DistortionInfo describes a distortion family and how to challenge it.
type DistortionInfo struct {
	Keywords    []string
	Description string
	Challenge   string
}

// distortionOrder is the detection and reporting order.
var distortionOrder = []domain.Distortion{
	domain.DistortionAllOrNothing,
	domain.DistortionOvergeneralization,
	domain.DistortionCatastrophizing,
	domain.DistortionShouldStatements,
	domain.DistortionEmotionalReasoning,
}

var distortions = map[domain.Distortion]DistortionInfo{
	domain.DistortionAllOrNothing: {
		Keywords:    []string{"always", "never", "every time", "no one", "everyone"},
		Description: "Seeing things in black and white",
		Challenge:   "Are there any exceptions? Has there been a time when this wasn't true?",
	},
	domain.DistortionOvergeneralization: {
		Keywords:    []string{"always happens", "typical", "never works"},
		Description: "Drawing broad conclusions from single events",
		Challenge:   "Is this really true every single time? What about the times it went differently?",
	},
	domain.DistortionCatastrophizing: {
		Keywords:    []string{"disaster", "terrible", "worst", "end of the world", "can't handle"},
		Description: "Expecting the worst possible outcome",
		Challenge:   "What's the most realistic outcome? How have you handled difficult situations before?",
	},
	domain.DistortionShouldStatements: {
		Keywords:    []string{"should", "must", "ought to", "have to"},
		Description: "Rigid rules about how things should be",
		Challenge:   "Where did this rule come from? What would be more flexible?",
	},
	domain.DistortionEmotionalReasoning: {
		Keywords:    []string{"i feel like", "feels true", "seems like"},
		Description: "Believing feelings reflect reality",
		Challenge:   "What's the evidence for and against this? What would you tell a friend?",
	},
}

// DetectDistortions returns every distortion family with at least one
// keyword in text, once each, in declaration order.
func DetectDistortions(text string) []domain.Distortion {
	lower := normalize(text)
	if lower == "" {
		return nil
	}

	var found []domain.Distortion
	for _, d := range distortionOrder {
		for _, kw := range distortions[d].Keywords {
			if strings.Contains(lower, kw) {
				found = append(found, d)
				break
			}
		}
	}
	return found
}

// normalize lowercases text and folds curly apostrophes so "can’t" matches "can't".
func normalize(text string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), "’", "'")
}
