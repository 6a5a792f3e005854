package therapy

import "github.com/PabloGalante/solace/internal/domain"

// SelectMode picks the therapy mode for a turn. Rules are evaluated top to
// bottom and the first match wins. depth and distortions are accepted so the
// table can grow without changing callers; no current rule reads them.
func SelectMode(e domain.Emotion, intensity float64, depth int, found []domain.Distortion) domain.TherapyMode {
	switch {
	case intensity > 0.8:
		return domain.ModeSupportive
	case e == domain.EmotionAnxious || e == domain.EmotionWorried || e == domain.EmotionStressed:
		return domain.ModeCBT
	case e == domain.EmotionAngry || e == domain.EmotionFrustrated || e == domain.EmotionIrritated:
		return domain.ModeDBT
	case e == domain.EmotionTired || e == domain.EmotionUnmotivated || e == domain.EmotionHopeless:
		return domain.ModeMotivational
	default:
		return domain.ModeSupportive
	}
}
