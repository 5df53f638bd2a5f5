package domain

import "time"

// GameType - вариант мини-игры буста
type GameType string

const (
	GameTypeTapScreen     GameType = "TAP_SCREEN"
	GameTypeChaseArrow    GameType = "CHASE_ARROW"
	GameTypeBreakingImage GameType = "BREAKING_IMAGE"
	GameTypeMatching      GameType = "MATCHING"
	GameTypeQuiz          GameType = "QUIZ"
)

// QuestionSnippet is a quiz question delivered as a content snippet.
type QuestionSnippet struct {
	SnippetID       string   `json:"snippetId" validate:"required"`
	QuestionText    string   `json:"questionText"`
	ResponseOptions []string `json:"responseOptions,omitempty"`
}

// GameParameters are fixed for the lifetime of one session.
type GameParameters struct {
	GameType         GameType `json:"gameType" validate:"required,oneof=TAP_SCREEN CHASE_ARROW BREAKING_IMAGE MATCHING QUIZ"`
	BoostID          string   `json:"boostId" validate:"required"`
	TimeLimitSeconds int      `json:"timeLimitSeconds" validate:"required,gt=0"`

	// variant specific
	TapsPerSquare        int               `json:"tapsPerSquare,omitempty" validate:"required_if=GameType BREAKING_IMAGE,gte=0"`
	GridRows             int               `json:"gridRows,omitempty" validate:"gte=0"`
	GridCols             int               `json:"gridCols,omitempty" validate:"gte=0"`
	ArrowSpeedMultiplier float64           `json:"arrowSpeedMultiplier,omitempty"`
	WinningThreshold     *int              `json:"winningThreshold,omitempty"`
	NumberWinners        *int              `json:"numberWinners,omitempty"`
	MatchingPairs        int               `json:"matchingPairs,omitempty" validate:"gte=0"`
	QuestionSnippets     []QuestionSnippet `json:"questionSnippets,omitempty" validate:"required_if=GameType QUIZ,dive"`
}

// Boost is the boost object returned by the boost detail endpoint.
type Boost struct {
	BoostID       string          `json:"boostId"`
	Label         string          `json:"label,omitempty"`
	BoostType     string          `json:"boostType,omitempty"`
	BoostCategory string          `json:"boostCategory,omitempty"`
	BoostStatus   string          `json:"boostStatus"`
	BoostAmount   *Amount         `json:"boostAmount,omitempty"`
	EndTime       *time.Time      `json:"endTime,omitempty"`
	GameParams    *GameParameters `json:"gameParams,omitempty"`
	GameLogs      []GameLog       `json:"gameLogs,omitempty"`
}

// GameLog is one entry of the boost's game log list.
type GameLog struct {
	LogType      string     `json:"logType"`
	CreationTime *time.Time `json:"creationTime,omitempty"`
	LogContext   LogContext `json:"logContext"`
}

type LogContext struct {
	NumberTaps       int     `json:"numberTaps"`
	PercentDestroyed float64 `json:"percentDestroyed,omitempty"`
	TimeTakenMillis  int64   `json:"timeTakenMillis"`
}

const GameLogTypeOutcome = "GAME_OUTCOME"

// Boost statuses used by the detail transform
const (
	BoostStatusRedeemed = "REDEEMED"
	BoostStatusConsoled = "CONSOLED"
)

// DetailResult - итог уже сыгранной игры
type DetailResult string

const (
	DetailResultRedeemed DetailResult = "REDEEMED"
	DetailResultConsoled DetailResult = "CONSOLED"
	DetailResultFailed   DetailResult = "FAILED"
)

type AwardBasis string

const (
	AwardBasisTournament AwardBasis = "TOURNAMENT"
	AwardBasisThreshold  AwardBasis = "THRESHOLD"
)

// GameDetails is the display model for a boost whose game has been played.
type GameDetails struct {
	BoostID     string          `json:"boostId"`
	Label       string          `json:"label,omitempty"`
	BoostAmount *Amount         `json:"boostAmount,omitempty"`
	GameParams  *GameParameters `json:"gameParams,omitempty"`
	GameResult  DetailResult    `json:"gameResult"`
	AwardBasis  AwardBasis      `json:"awardBasis"`
	GameLog     *GameLog        `json:"gameLog,omitempty"`
}
