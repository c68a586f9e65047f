// Package sentiment scores plain text into named numeric scores. The core
// pipeline treats it as an optional collaborator: when disabled it degrades
// to a neutral response instead of failing.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// Scores maps named score components to values. Positive, Negative, and
// Neutral are fractions in [0,1]; Compound is a signed aggregate in [-1,1].
type Scores map[string]float64

// Scorer turns a text payload into named scores.
type Scorer interface {
	Analyze(text string) Scores
}

// Disabled is the no-op scorer used when the collaborator is switched off.
// Every payload scores fully neutral.
type Disabled struct{}

// Analyze returns the neutral response.
func (Disabled) Analyze(string) Scores {
	return Scores{"positive": 0, "negative": 0, "neutral": 1, "compound": 0}
}

// LexiconScorer is a small valence-lexicon scorer in the VADER tradition:
// each known token contributes a signed weight, negators flip the following
// token, and the compound score is the normalized signed sum.
type LexiconScorer struct {
	lexicon map[string]float64
}

// NewLexiconScorer builds a scorer over the embedded financial lexicon.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{lexicon: defaultLexicon}
}

// Analyze tokenizes the text and aggregates token valences.
func (s *LexiconScorer) Analyze(text string) Scores {
	tokens := tokenize(text)

	var posSum, negSum float64
	var scored int
	negate := false
	for _, tok := range tokens {
		if negators[tok] {
			negate = true
			continue
		}
		v, ok := s.lexicon[tok]
		if !ok {
			negate = false
			continue
		}
		if negate {
			v = -v
			negate = false
		}
		scored++
		if v > 0 {
			posSum += v
		} else {
			negSum += -v
		}
	}

	total := posSum + negSum
	out := Scores{"positive": 0, "negative": 0, "neutral": 1, "compound": 0}
	if scored == 0 || len(tokens) == 0 {
		return out
	}
	out["positive"] = posSum / total
	out["negative"] = negSum / total
	out["neutral"] = 1 - float64(scored)/float64(len(tokens))
	if out["neutral"] < 0 {
		out["neutral"] = 0
	}
	// Same squashing shape as the classic compound normalization.
	raw := posSum - negSum
	out["compound"] = raw / (raw*sign(raw) + 4)
	return out
}

// AggregateCompound scores each text and averages the compound values whose
// magnitude clears minConfidence. Weak scores are dropped rather than
// diluting the mean. Returns the mean and how many texts contributed;
// nothing clearing the floor yields a neutral 0.
func AggregateCompound(s Scorer, texts []string, minConfidence float64) (float64, int) {
	var sum float64
	var kept int
	for _, text := range texts {
		c := s.Analyze(text)["compound"]
		if math.Abs(c) < minConfidence {
			continue
		}
		sum += c
		kept++
	}
	if kept == 0 {
		return 0, 0
	}
	return sum / float64(kept), kept
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "hardly": true,
}

// defaultLexicon carries market-flavored valences.
var defaultLexicon = map[string]float64{
	"surge": 2.5, "surges": 2.5, "rally": 2.2, "rallies": 2.2, "gain": 1.8,
	"gains": 1.8, "bull": 1.6, "bullish": 2.0, "growth": 1.5, "strong": 1.4,
	"profit": 1.8, "profits": 1.8, "record": 1.2, "demand": 1.0, "buy": 0.8,
	"breakout": 1.2, "upgrade": 1.6, "beat": 1.3, "beats": 1.3, "soar": 2.6,
	"soars": 2.6, "recovery": 1.4, "optimism": 1.7, "adoption": 1.1,

	"crash": -3.0, "crashes": -3.0, "plunge": -2.6, "plunges": -2.6,
	"drop": -1.5, "drops": -1.5, "bear": -1.6, "bearish": -2.0, "loss": -1.8,
	"losses": -1.8, "weak": -1.4, "fear": -2.0, "panic": -2.5, "sell": -0.8,
	"selloff": -2.2, "downgrade": -1.6, "fraud": -3.0, "hack": -2.8,
	"liquidation": -2.2, "default": -2.0, "recession": -2.3, "dump": -2.0,
}
