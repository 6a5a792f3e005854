package therapy

import "github.com/PabloGalante/solace/internal/domain"

// CrisisVoiceTone is used for every crisis response.
var CrisisVoiceTone = domain.VoiceTone{Pitch: -0.2, Speed: 0.8, Warmth: 1.0, Energy: 0.4}

// VoiceToneFor derives speech-synthesis parameters from the user's state.
func VoiceToneFor(e domain.Emotion, intensity float64) domain.VoiceTone {
	tone := domain.VoiceTone{Pitch: 0, Speed: 1.0, Warmth: 0.8, Energy: 0.5}

	switch e {
	case domain.EmotionSad, domain.EmotionLonely, domain.EmotionTired:
		tone = domain.VoiceTone{Pitch: -0.1, Speed: 0.85, Warmth: 0.95, Energy: 0.3}
	case domain.EmotionAnxious, domain.EmotionStressed:
		tone = domain.VoiceTone{Pitch: 0, Speed: 0.9, Warmth: 0.9, Energy: 0.4}
	case domain.EmotionAngry:
		tone = domain.VoiceTone{Pitch: -0.2, Speed: 0.8, Warmth: 0.85, Energy: 0.3}
	case domain.EmotionHappy:
		tone = domain.VoiceTone{Pitch: 0.1, Speed: 1.1, Warmth: 1.0, Energy: 0.7}
	}

	if intensity > 0.8 {
		tone.Speed *= 0.9
		tone.Warmth += 0.1
	}

	tone.Pitch = clamp(tone.Pitch, -1, 1)
	tone.Speed = clamp(tone.Speed, 0.5, 2.0)
	tone.Warmth = clamp(tone.Warmth, 0, 1)
	tone.Energy = clamp(tone.Energy, 0, 1)
	return tone
}
