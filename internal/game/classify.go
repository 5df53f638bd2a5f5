package game

import (
	"slices"

	"boostd/internal/domain"
)

// Classify maps a tap/arrow/grid/matching response to a result category.
// Rules are checked in order; REDEEMED wins over PENDING when both tags are
// present. Any other shape is FAILED.
func Classify(resp *domain.OutcomeResponse) domain.GameResult {
	if resp == nil {
		return domain.GameResult{Category: domain.ResultFailed}
	}

	triggered := slices.Contains(resp.Result, domain.ServerResultTriggered)
	statusMet := copyTags(resp.StatusMet)

	switch {
	case triggered && slices.Contains(resp.StatusMet, domain.StatusRedeemed):
		return domain.GameResult{
			Category:  domain.ResultRedeemed,
			StatusMet: statusMet,
			AmountWon: resp.AmountAllocated,
		}
	case triggered && slices.Contains(resp.StatusMet, domain.StatusPending):
		return domain.GameResult{
			Category:  domain.ResultPending,
			StatusMet: statusMet,
			EndTime:   resp.EndTime,
		}
	case slices.Contains(resp.Result, domain.ServerResultTournamentEntered):
		// statusMet is deliberately not carried on this path
		return domain.GameResult{
			Category:   domain.ResultPending,
			EndTime:    resp.EndTime,
			Tournament: true,
		}
	default:
		return domain.GameResult{
			Category:  domain.ResultFailed,
			StatusMet: statusMet,
		}
	}
}

// ClassifyQuiz is the quiz contract: only whether the boost was triggered and
// whether it was redeemed.
func ClassifyQuiz(resp *domain.OutcomeResponse) domain.QuizResult {
	if resp == nil {
		return domain.QuizResult{}
	}
	return domain.QuizResult{
		BoostTriggered: slices.Contains(resp.Result, domain.ServerResultTriggered),
		BoostRedeemed:  slices.Contains(resp.StatusMet, domain.StatusRedeemed),
		StatusMet:      copyTags(resp.StatusMet),
		ResultOfQuiz:   resp.ResultOfQuiz,
	}
}

func copyTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	return append([]string{}, tags...)
}
