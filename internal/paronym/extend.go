// internal/paronym/extend.go
package paronym

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/errsynth/internal/interfaces"
)

// Thresholds for candidate pairs.
const (
	MinCandidateLength  = 3
	MinLengthRatio      = 2.0 / 3.0
	MaxLengthRatio      = 3.0 / 2.0
	MaxRelativeDistance = 0.34
)

// Candidate is a pair of similarly spelled words that may be paronyms.
// Similarity is nil until scored, and stays nil when the service cannot score
// the pair.
type Candidate struct {
	Word1            string   `json:"word1"`
	Word2            string   `json:"word2"`
	Distance         int      `json:"levenshtein"`
	RelativeDistance float64  `json:"levenshteinRelative"`
	Similarity       *float64 `json:"similarity,omitempty"`
}

// FindCandidates compares every pair of distinct words (lower-cased, blanks
// dropped) and keeps those of comparable length whose edit distance relative
// to the shorter word is at most MaxRelativeDistance.
func FindCandidates(words []string) []Candidate {
	seen := make(map[string]struct{}, len(words))
	clean := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if utf8.RuneCountInString(w) < MinCandidateLength {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		clean = append(clean, w)
	}

	lengths := make([]int, len(clean))
	for i, w := range clean {
		lengths[i] = utf8.RuneCountInString(w)
	}

	var out []Candidate
	for i := 0; i < len(clean)-1; i++ {
		for j := i + 1; j < len(clean); j++ {
			ratio := float64(lengths[i]) / float64(lengths[j])
			if ratio < MinLengthRatio || ratio > MaxLengthRatio {
				continue
			}
			distance := levenshtein.ComputeDistance(clean[i], clean[j])
			relative := float64(distance) / float64(min(lengths[i], lengths[j]))
			if relative > MaxRelativeDistance {
				continue
			}
			out = append(out, Candidate{
				Word1:            clean[i],
				Word2:            clean[j],
				Distance:         distance,
				RelativeDistance: relative,
			})
		}
	}
	return out
}

// ScoreCandidates fills in the semantic similarity of every candidate using at
// most concurrency parallel requests. A pair the service cannot score is left
// unscored; only context cancellation aborts the run. It returns the number of
// pairs scored.
func ScoreCandidates(ctx context.Context, svc interfaces.MorphologyService, candidates []Candidate, concurrency int, logger *zap.Logger) (int, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var scored atomic.Int64
	for i := range candidates {
		if groupCtx.Err() != nil {
			break
		}
		c := &candidates[i]
		g.Go(func() error {
			res, err := svc.Similarity(groupCtx, c.Word1, c.Word2)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				logger.Debug("Similarity unavailable", zap.String("word1", c.Word1), zap.String("word2", c.Word2), zap.Error(err))
				return nil
			}
			sim := res.Similarity
			c.Similarity = &sim
			scored.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(scored.Load()), fmt.Errorf("scoring interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return int(scored.Load()), fmt.Errorf("scoring interrupted: %w", err)
	}
	return int(scored.Load()), nil
}
