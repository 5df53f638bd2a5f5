package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"boostd/internal/domain"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidParameters = errors.New("invalid game parameters")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateParameters checks the fields a session needs before it can start.
func ValidateParameters(p *domain.GameParameters) error {
	if p == nil {
		return fmt.Errorf("%w: missing parameters", ErrInvalidParameters)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	// required_if lets an empty, non-nil list through
	if p.GameType == domain.GameTypeQuiz && len(p.QuestionSnippets) == 0 {
		return fmt.Errorf("%w: quiz has no question snippets", ErrInvalidParameters)
	}
	return nil
}

type Factory struct {
	rng *rand.Rand
}

// NewFactory returns a factory; rng seeds the matching deck and may be nil.
func NewFactory(rng *rand.Rand) *Factory {
	return &Factory{rng: rng}
}

func (f *Factory) CreateVariant(p *domain.GameParameters) (Variant, error) {
	if err := ValidateParameters(p); err != nil {
		return nil, err
	}
	switch p.GameType {
	case domain.GameTypeTapScreen, domain.GameTypeChaseArrow:
		return &tapVariant{gameType: p.GameType, speed: p.ArrowSpeedMultiplier}, nil
	case domain.GameTypeBreakingImage:
		return &breakingVariant{grid: NewBreakingGrid(p.GridRows, p.GridCols, p.TapsPerSquare)}, nil
	case domain.GameTypeMatching:
		return &matchingVariant{NewMatchBoard(ShuffledIcons(p.MatchingPairs, f.rng))}, nil
	case domain.GameTypeQuiz:
		return &quizVariant{NewQuizSheet(p.QuestionSnippets)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown game type: %s", ErrInvalidParameters, p.GameType)
	}
}
