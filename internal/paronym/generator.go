// internal/paronym/generator.go
package paronym

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/interfaces"
	"github.com/xkilldash9x/errsynth/internal/sampler"
	"github.com/xkilldash9x/errsynth/internal/textnorm"
)

// Generator substitutes a word with another member of its paronym group,
// inflected like the original.
type Generator struct {
	svc    interfaces.MorphologyService
	table  *Table
	r      sampler.Rand
	logger *zap.Logger
}

func NewGenerator(svc interfaces.MorphologyService, table *Table, r sampler.Rand, logger *zap.Logger) *Generator {
	return &Generator{
		svc:    svc,
		table:  table,
		r:      r,
		logger: logger.Named("paronym"),
	}
}

func (g *Generator) lemma(ctx context.Context, word string) (string, error) {
	res, err := g.svc.Lemma(ctx, word)
	if err != nil {
		return "", fmt.Errorf("failed to lemmatize %q: %w", word, err)
	}
	return strings.ToLower(res.Lemma), nil
}

// IsParonym reports whether the lemma of word belongs to any paronym group.
func (g *Generator) IsParonym(ctx context.Context, word string) (bool, error) {
	lemma, err := g.lemma(ctx, word)
	if err != nil {
		return false, err
	}
	_, ok, err := g.table.GroupOf(lemma)
	return ok, err
}

// Generate replaces word with a paronym of its lemma. Words without a group,
// and words whose replacement cannot be inflected, are returned unchanged.
func (g *Generator) Generate(ctx context.Context, word string) (string, error) {
	lemma, err := g.lemma(ctx, word)
	if err != nil {
		return word, err
	}
	group, ok, err := g.table.GroupOf(lemma)
	if err != nil {
		return word, err
	}
	if !ok {
		return word, nil
	}
	replacement, ok := sampler.PickDistinct(g.r, lowerAll(group), lemma)
	if !ok {
		return word, nil
	}

	analysis, err := g.svc.Features(ctx, word)
	if err != nil {
		return word, fmt.Errorf("failed to analyse %q: %w", word, err)
	}

	res, err := g.svc.Inflect(ctx, schemas.InflectRequest{Lemma: replacement, Features: analysis.Features})
	if err != nil {
		return word, fmt.Errorf("failed to inflect paronym %q: %w", replacement, err)
	}
	if !res.Success || !textnorm.IsSingleToken(res.Inflected) {
		g.logger.Debug("Paronym could not be inflected",
			zap.String("word", word), zap.String("paronym", replacement))
		return word, nil
	}
	return textnorm.MatchCase(word, res.Inflected), nil
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
