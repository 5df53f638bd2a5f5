package game

import "boostd/internal/domain"

// ConvertBoostAndLogsToGameDetails builds the display model for a boost whose
// game has been played. Inputs are not modified.
func ConvertBoostAndLogsToGameDetails(boost domain.Boost, logs []domain.GameLog) domain.GameDetails {
	details := domain.GameDetails{
		BoostID:    boost.BoostID,
		Label:      boost.Label,
		GameResult: detailResult(boost.BoostStatus),
		AwardBasis: domain.AwardBasisThreshold,
	}
	if boost.BoostAmount != nil {
		amount := *boost.BoostAmount
		details.BoostAmount = &amount
	}
	if boost.GameParams != nil {
		params := *boost.GameParams
		details.GameParams = &params
		if boost.GameParams.NumberWinners != nil {
			details.AwardBasis = domain.AwardBasisTournament
		}
	}
	if best := highestScoringOutcome(logs); best != nil {
		details.GameLog = best
	}
	return details
}

func detailResult(status string) domain.DetailResult {
	switch status {
	case domain.BoostStatusRedeemed:
		return domain.DetailResultRedeemed
	case domain.BoostStatusConsoled:
		return domain.DetailResultConsoled
	default:
		return domain.DetailResultFailed
	}
}

// highestScoringOutcome returns a copy of the GAME_OUTCOME log with the most
// taps; the earliest one wins a tie.
func highestScoringOutcome(logs []domain.GameLog) *domain.GameLog {
	best := -1
	for i := range logs {
		if logs[i].LogType != domain.GameLogTypeOutcome {
			continue
		}
		if best < 0 || logs[i].LogContext.NumberTaps > logs[best].LogContext.NumberTaps {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	out := logs[best]
	return &out
}
