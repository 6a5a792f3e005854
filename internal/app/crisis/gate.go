package crisis

import (
	"strings"

	"github.com/PabloGalante/solace/internal/app/therapy"
	"github.com/PabloGalante/solace/internal/domain"
)

// DefaultKeywords is a known incomplete heuristic. It errs on the side of
// flagging too much.
var DefaultKeywords = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"want to die",
	"better off dead",
	"harm myself",
	"hurt myself",
	"self-harm",
	"cutting myself",
	"overdose",
	"no point",
	"can't go on",
}

// Response is the fixed safety message returned on every crisis turn.
const Response = `I'm really concerned about what you're sharing, and I want you to know that your life has value and meaning. What you're feeling right now is temporary, even though it doesn't feel that way.

Please reach out to immediate support:
- National Suicide Prevention Lifeline: 988 (US), available 24/7
- Crisis Text Line: Text HOME to 741741
- International Association for Suicide Prevention: https://www.iasp.info/resources/Crisis_Centres/

If you're in immediate danger, please call emergency services (911 in US) or go to your nearest emergency room.

I care about your safety. Can you tell me, are you currently safe? Do you have someone nearby you can talk to right now?`

const (
	SeverityNone = "none"
	SeverityHigh = "high"
)

// Assessment is the outcome of checking one message.
type Assessment struct {
	IsCrisis  bool              `json:"is_crisis"`
	Severity  string            `json:"severity"`
	Escalate  bool              `json:"escalate"`
	Response  string            `json:"response,omitempty"`
	VoiceTone *domain.VoiceTone `json:"voice_tone,omitempty"`
}

// Gate flags messages that need a safety response instead of a normal turn.
type Gate struct {
	keywords []string
}

// NewGate builds a gate from the default keywords plus extra ones.
func NewGate(extra ...string) *Gate {
	kws := make([]string, 0, len(DefaultKeywords)+len(extra))
	seen := make(map[string]struct{})
	for _, k := range append(append([]string{}, DefaultKeywords...), extra...) {
		k = normalize(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kws = append(kws, k)
	}
	return &Gate{keywords: kws}
}

// Assess is a case-insensitive substring match against the keyword list.
func (g *Gate) Assess(text string) Assessment {
	lower := normalize(text)
	for _, k := range g.keywords {
		if strings.Contains(lower, k) {
			tone := therapy.CrisisVoiceTone
			return Assessment{
				IsCrisis:  true,
				Severity:  SeverityHigh,
				Escalate:  true,
				Response:  Response,
				VoiceTone: &tone,
			}
		}
	}
	return Assessment{Severity: SeverityNone}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}
