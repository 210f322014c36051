package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/visionops/camsight/internal/core/domain"
	"github.com/visionops/camsight/internal/core/ports"
)

// Resolution is the resolver's decision for one query: which images the job
// operates on and which control-flow path it takes. Direct resolutions carry
// no images; the job is completed from cached verdicts without classifying
// anything.
type Resolution struct {
	Images     []domain.ImageRef
	Prompt     string
	Contextual bool
	Direct     bool
}

// ContextResolver derives the effective image set for a query: the whole
// corpus for fresh queries, the previously matched subset for follow-ups.
type ContextResolver struct {
	source   ports.ImageSource
	followUp ports.FollowUpClassifier
}

func NewContextResolver(source ports.ImageSource, followUp ports.FollowUpClassifier) *ContextResolver {
	return &ContextResolver{source: source, followUp: followUp}
}

func (r *ContextResolver) Resolve(ctx context.Context, query string, prior *domain.AnalysisResult) (Resolution, error) {
	hasPrior := prior != nil && len(prior.DetailedResults) > 0

	switch r.followUp.Classify(query, hasPrior) {
	case domain.QueryDirect:
		return Resolution{Prompt: query, Contextual: true, Direct: true}, nil

	case domain.QueryContextual:
		matched := prior.MatchedVerdicts()
		if len(matched) == 0 {
			return Resolution{}, domain.WrapError(domain.ErrEmptyContext, "resolve contextual query",
				errors.New("previous result has no matches"))
		}
		images := make([]domain.ImageRef, 0, len(matched))
		for _, v := range matched {
			images = append(images, domain.ImageRef{ID: v.ImageID, DisplayName: v.ImageName})
		}
		return Resolution{Images: images, Prompt: query, Contextual: true}, nil

	default:
		images, err := r.source.List(ctx)
		if err != nil {
			return Resolution{}, domain.WrapError(domain.ErrSourceUnavailable, "list image corpus", err)
		}
		if len(images) == 0 {
			return Resolution{}, domain.WrapError(domain.ErrEmptyCorpus, "resolve full query",
				fmt.Errorf("source listed zero images"))
		}
		return Resolution{Images: images, Prompt: query}, nil
	}
}
