package rag

import (
	"math"
	"unicode/utf8"

	"kyschat/internal/vectorstore"
)

// ConfidenceLevel buckets a confidence score.
type ConfidenceLevel string

const (
	LevelHigh   ConfidenceLevel = "high"
	LevelMedium ConfidenceLevel = "medium"
	LevelLow    ConfidenceLevel = "low"
)

// Level thresholds, inclusive.
const (
	HighConfidence   = 0.75
	MediumConfidence = 0.50
)

// Length bonus cut-offs, in runes.
const (
	longChunkRunes   = 300
	mediumChunkRunes = 100
)

// Similarity converts a search score to a cosine similarity in [0, 1].
func Similarity(score float32, kind vectorstore.ScoreKind) float64 {
	s := float64(score)
	if kind == vectorstore.ScoreDistance {
		s = 1 - s
	}
	return clamp01(s)
}

// RankBonus favors the top results. rank is 1-based.
func RankBonus(rank int) float64 {
	switch rank {
	case 1:
		return 0.10
	case 2:
		return 0.05
	default:
		return 0
	}
}

// LengthBonus favors chunks with more content.
func LengthBonus(text string) float64 {
	n := utf8.RuneCountInString(text)
	switch {
	case n >= longChunkRunes:
		return 0.05
	case n >= mediumChunkRunes:
		return 0.02
	default:
		return 0
	}
}

// ChunkConfidence scores a single search result.
func ChunkConfidence(similarity float64, rank int, text string) float64 {
	return round4(math.Min(1, similarity+RankBonus(rank)+LengthBonus(text)))
}

// LevelFor buckets a confidence score.
func LevelFor(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= HighConfidence:
		return LevelHigh
	case confidence >= MediumConfidence:
		return LevelMedium
	default:
		return LevelLow
	}
}

// OverallConfidence is the mean chunk confidence, 0 without chunks.
func OverallConfidence(chunks []ChunkResult) float64 {
	if len(chunks) == 0 {
		return 0
	}
	var sum float64
	for _, c := range chunks {
		sum += c.Confidence
	}
	return round4(sum / float64(len(chunks)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
