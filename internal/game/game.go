package game

import "boostd/internal/domain"

// Variant adapts one mini-game to the session engine: it owns the
// interaction counter and knows how to report and classify the outcome.
type Variant interface {
	Type() domain.GameType
	// Count is the running interaction counter.
	Count() int
	// Fill adds the variant metric to the submission payload.
	Fill(req *domain.OutcomeRequest)
	// Classify turns the server response into the terminal payload.
	Classify(resp *domain.OutcomeResponse) domain.Outcome
	// SerializeState is the variant view sent to the client.
	SerializeState() map[string]any
}

// Interaction capabilities. A variant implements the ones its game uses.
type (
	Tapper interface {
		Tap() bool
	}
	CellTapper interface {
		TapCell(cell int) bool
	}
	CardFlipper interface {
		Flip(card int) FlipOutcome
		ConcealMismatch() ([2]int, bool)
		MatchInProgress() bool
		Icon(card int) string
	}
	Answerer interface {
		Answer(snippetID, answer string) bool
	}
)

type tapVariant struct {
	gameType domain.GameType
	speed    float64
	counter  TapCounter
}

func (v *tapVariant) Type() domain.GameType { return v.gameType }
func (v *tapVariant) Count() int            { return v.counter.Count() }

func (v *tapVariant) Tap() bool {
	v.counter.Increment()
	return true
}

func (v *tapVariant) Fill(req *domain.OutcomeRequest) {
	n := v.counter.Count()
	req.NumberTaps = &n
}

func (v *tapVariant) Classify(resp *domain.OutcomeResponse) domain.Outcome {
	r := Classify(resp)
	return domain.Outcome{Game: &r}
}

func (v *tapVariant) SerializeState() map[string]any {
	state := map[string]any{"taps": v.counter.Count()}
	if v.gameType == domain.GameTypeChaseArrow && v.speed > 0 {
		state["arrowSpeedMultiplier"] = v.speed
	}
	return state
}

type breakingVariant struct {
	grid *BreakingGrid
}

func (v *breakingVariant) Type() domain.GameType { return domain.GameTypeBreakingImage }
func (v *breakingVariant) Count() int            { return v.grid.Count() }

func (v *breakingVariant) TapCell(cell int) bool { return v.grid.Tap(cell) }

func (v *breakingVariant) Fill(req *domain.OutcomeRequest) {
	p := v.grid.PercentDestroyed()
	req.PercentDestroyed = &p
}

func (v *breakingVariant) Classify(resp *domain.OutcomeResponse) domain.Outcome {
	r := Classify(resp)
	return domain.Outcome{Game: &r}
}

func (v *breakingVariant) SerializeState() map[string]any {
	cellTaps := make([]int, v.grid.Cells())
	for i := range cellTaps {
		cellTaps[i] = v.grid.CellTaps(i)
	}
	return map[string]any{
		"taps":             v.grid.Count(),
		"cells":            v.grid.Cells(),
		"cellTaps":         cellTaps,
		"percentDestroyed": v.grid.PercentDestroyed(),
	}
}

type matchingVariant struct {
	*MatchBoard
}

func (v *matchingVariant) Type() domain.GameType { return domain.GameTypeMatching }

func (v *matchingVariant) Fill(req *domain.OutcomeRequest) {
	n := v.Matches()
	req.NumberTaps = &n
}

func (v *matchingVariant) Classify(resp *domain.OutcomeResponse) domain.Outcome {
	r := Classify(resp)
	return domain.Outcome{Game: &r}
}

func (v *matchingVariant) SerializeState() map[string]any {
	return map[string]any{
		"matches":         v.Matches(),
		"cards":           v.Size(),
		"matchInProgress": v.MatchInProgress(),
		"solved":          v.Solved(),
	}
}

type quizVariant struct {
	*QuizSheet
}

func (v *quizVariant) Type() domain.GameType { return domain.GameTypeQuiz }

func (v *quizVariant) Fill(req *domain.OutcomeRequest) {
	req.UserResponses = v.Responses()
}

func (v *quizVariant) Classify(resp *domain.OutcomeResponse) domain.Outcome {
	r := ClassifyQuiz(resp)
	return domain.Outcome{Quiz: &r}
}

func (v *quizVariant) SerializeState() map[string]any {
	return map[string]any{
		"answered":  v.Count(),
		"questions": len(v.snippets),
	}
}
