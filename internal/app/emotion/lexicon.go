package emotion

import (
	"strings"
	"unicode"
)

// Scorer estimates the sentiment of a piece of text.
type Scorer interface {
	// Score returns polarity in [-1, 1] and subjectivity in [0, 1].
	Score(text string) (polarity, subjectivity float64, err error)
}

type lexEntry struct {
	polarity     float64
	subjectivity float64
}

// LexiconScorer is a small word-level sentiment scorer. Each known word
// contributes its polarity, scaled by a preceding intensifier and flipped
// by a preceding negation. The result is the mean over matched words.
type LexiconScorer struct {
	words        map[string]lexEntry
	intensifiers map[string]float64
	negations    map[string]struct{}
}

// NewLexiconScorer returns a scorer with the built-in English lexicon.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		words:        defaultLexicon,
		intensifiers: defaultIntensifiers,
		negations:    defaultNegations,
	}
}

func (s *LexiconScorer) Score(text string) (float64, float64, error) {
	tokens := tokenize(text)

	var polSum, subjSum float64
	matched := 0
	for i, tok := range tokens {
		entry, ok := s.words[tok]
		if !ok {
			continue
		}
		pol := entry.polarity
		// Look back up to two tokens: "not very good", "really not bad".
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			prev := tokens[j]
			if mult, ok := s.intensifiers[prev]; ok {
				pol *= mult
				continue
			}
			if _, ok := s.negations[prev]; ok {
				pol *= -0.5
			}
		}
		polSum += pol
		subjSum += entry.subjectivity
		matched++
	}

	if matched == 0 {
		return 0, 0, nil
	}
	return clamp(polSum/float64(matched), -1, 1), clamp(subjSum/float64(matched), 0, 1), nil
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "’", "'")
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
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

var defaultIntensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"so":         1.3,
	"too":        1.2,
	"extremely":  1.5,
	"incredibly": 1.5,
	"super":      1.4,
	"quite":      1.1,
	"pretty":     1.1,
	"slightly":   0.5,
	"somewhat":   0.7,
	"little":     0.6,
}

var defaultNegations = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"don't":   {},
	"dont":    {},
	"isn't":   {},
	"wasn't":  {},
	"aren't":  {},
	"can't":   {},
	"cannot":  {},
	"won't":   {},
	"didn't":  {},
	"doesn't": {},
	"hardly":  {},
}

var defaultLexicon = map[string]lexEntry{
	// positive
	"good":        {0.7, 0.6},
	"great":       {0.8, 0.75},
	"wonderful":   {1.0, 1.0},
	"amazing":     {0.6, 0.9},
	"awesome":     {1.0, 1.0},
	"excellent":   {1.0, 1.0},
	"fantastic":   {0.4, 0.9},
	"happy":       {0.8, 1.0},
	"glad":        {0.5, 1.0},
	"joy":         {0.8, 0.8},
	"love":        {0.5, 0.6},
	"lovely":      {0.5, 0.75},
	"nice":        {0.6, 1.0},
	"better":      {0.5, 0.5},
	"best":        {1.0, 0.3},
	"calm":        {0.3, 0.75},
	"peaceful":    {0.25, 0.5},
	"grateful":    {0.6, 0.8},
	"thankful":    {0.6, 0.8},
	"hopeful":     {0.5, 0.7},
	"excited":     {0.4, 0.75},
	"proud":       {0.8, 1.0},
	"relieved":    {0.4, 0.6},
	"fine":        {0.4, 0.5},
	"okay":        {0.2, 0.5},
	"ok":          {0.2, 0.5},
	"fun":         {0.3, 0.2},
	"beautiful":   {0.85, 1.0},
	"helpful":     {0.5, 0.5},
	"confident":   {0.5, 0.8},
	"safe":        {0.5, 0.5},
	"strong":      {0.4, 0.7},
	"enjoy":       {0.4, 0.5},
	"perfect":     {1.0, 1.0},
	"positive":    {0.2, 0.5},
	"success":     {0.5, 0.5},
	"successful":  {0.75, 0.95},
	"supported":   {0.4, 0.6},
	"cheerful":    {0.7, 0.9},
	"content":     {0.3, 0.6},
	"delighted":   {0.7, 1.0},
	"motivated":   {0.5, 0.7},
	"optimistic":  {0.5, 0.8},
	"satisfied":   {0.5, 0.8},
	"encouraged":  {0.5, 0.7},
	"comfortable": {0.4, 0.6},

	// negative
	"bad":          {-0.7, 0.67},
	"terrible":     {-1.0, 1.0},
	"awful":        {-1.0, 1.0},
	"horrible":     {-1.0, 1.0},
	"worst":        {-1.0, 1.0},
	"worse":        {-0.4, 0.6},
	"sad":          {-0.5, 1.0},
	"unhappy":      {-0.6, 0.9},
	"miserable":    {-1.0, 1.0},
	"depressed":    {-0.6, 0.8},
	"heartbroken":  {-0.8, 1.0},
	"lonely":       {-0.5, 1.0},
	"alone":        {-0.3, 0.6},
	"isolated":     {-0.4, 0.6},
	"empty":        {-0.1, 0.5},
	"angry":        {-0.5, 1.0},
	"mad":          {-0.6, 1.0},
	"furious":      {-0.8, 1.0},
	"upset":        {-0.5, 0.8},
	"frustrated":   {-0.7, 0.9},
	"irritated":    {-0.5, 0.8},
	"anxious":      {-0.3, 0.9},
	"worried":      {-0.4, 0.8},
	"nervous":      {-0.3, 0.9},
	"scared":       {-0.5, 1.0},
	"afraid":       {-0.6, 0.9},
	"stressed":     {-0.5, 0.8},
	"panic":        {-0.6, 0.9},
	"tired":        {-0.4, 0.7},
	"exhausted":    {-0.5, 0.8},
	"drained":      {-0.5, 0.7},
	"weary":        {-0.4, 0.7},
	"hopeless":     {-0.8, 0.9},
	"worthless":    {-0.8, 0.9},
	"useless":      {-0.5, 0.2},
	"pathetic":     {-1.0, 1.0},
	"hate":         {-0.8, 0.9},
	"hurt":         {-0.4, 0.7},
	"pain":         {-0.5, 0.6},
	"painful":      {-0.7, 0.8},
	"cry":          {-0.4, 0.7},
	"crying":       {-0.5, 0.7},
	"difficult":    {-0.5, 1.0},
	"hard":         {-0.3, 0.5},
	"wrong":        {-0.5, 0.9},
	"fail":         {-0.5, 0.6},
	"failed":       {-0.5, 0.6},
	"failure":      {-0.6, 0.7},
	"lost":         {-0.3, 0.5},
	"broken":       {-0.4, 0.6},
	"overwhelmed":  {-0.6, 0.9},
	"disappointed": {-0.75, 0.75},
	"guilty":       {-0.5, 0.8},
	"ashamed":      {-0.6, 0.9},
	"stupid":       {-0.8, 1.0},
	"sick":         {-0.7, 0.9},
	"boring":       {-1.0, 1.0},
	"annoyed":      {-0.5, 0.8},
	"disaster":     {-0.8, 0.8},
	"grief":        {-0.6, 0.8},
	"fear":         {-0.5, 0.8},
	"abandoned":    {-0.6, 0.8},
	"rejected":     {-0.6, 0.8},
	"unloved":      {-0.7, 0.9},
}
