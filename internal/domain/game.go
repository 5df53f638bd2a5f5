package domain

import (
	"errors"
	"time"
)

// ErrUnusableResponse marks a completed call whose body could not be read as
// the expected shape.
var ErrUnusableResponse = errors.New("unusable response body")

// SessionState - состояние игровой сессии
type SessionState string

const (
	SessionIdle       SessionState = "IDLE"
	SessionRunning    SessionState = "RUNNING"
	SessionEnded      SessionState = "ENDED"
	SessionSubmitting SessionState = "SUBMITTING"
	SessionResulted   SessionState = "RESULTED"
	SessionFailed     SessionState = "FAILED"
)

// ResultCategory - категория результата, по которой строится экран результата
type ResultCategory string

const (
	ResultRedeemed ResultCategory = "REDEEMED"
	ResultPending  ResultCategory = "PENDING"
	ResultFailed   ResultCategory = "FAILED"
)

// Server result and status tags
const (
	ServerResultTriggered         = "TRIGGERED"
	ServerResultTournamentEntered = "TOURNAMENT_ENTERED"

	StatusRedeemed = "REDEEMED"
	StatusPending  = "PENDING"
)

const EventTypeGameCompletion = "USER_GAME_COMPLETION"

// UserResponse is one quiz answer in a submission.
type UserResponse struct {
	SnippetID      string `json:"snippetId"`
	UserAnswerText string `json:"userAnswerText"`
}

// OutcomeRequest is the body posted to the boost respond endpoint.
type OutcomeRequest struct {
	BoostID          string         `json:"boostId"`
	EventType        string         `json:"eventType"`
	NumberTaps       *int           `json:"numberTaps,omitempty"`
	PercentDestroyed *float64       `json:"percentDestroyed,omitempty"`
	TimeTakenMillis  int64          `json:"timeTakenMillis"`
	UserResponses    []UserResponse `json:"userResponses,omitempty"`
}

// OutcomeResponse covers both the tap-game and the quiz response shapes.
type OutcomeResponse struct {
	Result          []string       `json:"result"`
	StatusMet       []string       `json:"statusMet,omitempty"`
	EndTime         *time.Time     `json:"endTime,omitempty"`
	AmountAllocated *Amount        `json:"amountAllocated,omitempty"`
	ResultOfQuiz    map[string]any `json:"resultOfQuiz,omitempty"`
}

// GameResult is the classified outcome of a tap/arrow/grid/matching submission.
type GameResult struct {
	Category   ResultCategory `json:"gameResult"`
	StatusMet  []string       `json:"statusMet,omitempty"`
	AmountWon  *Amount        `json:"amountWon,omitempty"`
	EndTime    *time.Time     `json:"endTime,omitempty"`
	Tournament bool           `json:"tournament,omitempty"`
}

// QuizResult is the classified outcome of a quiz submission.
type QuizResult struct {
	BoostTriggered bool           `json:"isBoostTriggered"`
	BoostRedeemed  bool           `json:"isBoostRedeemed"`
	StatusMet      []string       `json:"statusMet,omitempty"`
	ResultOfQuiz   map[string]any `json:"resultOfQuiz,omitempty"`
}

// FailureReason explains why a session ended in FAILED.
type FailureReason string

const (
	FailureTransport     FailureReason = "transport"
	FailureEmptyResponse FailureReason = "empty_response"
	FailureCancelled     FailureReason = "cancelled"
)

// Retry affordances offered on a failed session
const (
	RetryContactSupport = "contact_support"
	RetryGoHome         = "go_home"
)

// Failure is the terminal payload of a FAILED session.
type Failure struct {
	Reason       FailureReason `json:"reason"`
	Message      string        `json:"message,omitempty"`
	RetryOptions []string      `json:"retryOptions"`
}

// Outcome is the terminal payload of a session: exactly one field is set.
type Outcome struct {
	Game    *GameResult `json:"game,omitempty"`
	Quiz    *QuizResult `json:"quiz,omitempty"`
	Failure *Failure    `json:"failure,omitempty"`
}

// Category flattens the outcome for metrics and history.
func (o *Outcome) Category() ResultCategory {
	switch {
	case o == nil:
		return ResultFailed
	case o.Game != nil:
		return o.Game.Category
	case o.Quiz != nil:
		if o.Quiz.BoostRedeemed {
			return ResultRedeemed
		}
		if o.Quiz.BoostTriggered {
			return ResultPending
		}
		return ResultFailed
	default:
		return ResultFailed
	}
}

// GameOutcomeRecord - запись сыгранной сессии в истории
type GameOutcomeRecord struct {
	ID               int64          `db:"id" json:"id"`
	SessionID        string         `db:"session_id" json:"session_id"`
	UserID           string         `db:"user_id" json:"user_id"`
	BoostID          string         `db:"boost_id" json:"boost_id"`
	GameType         GameType       `db:"game_type" json:"game_type"`
	State            SessionState   `db:"state" json:"state"`
	Result           ResultCategory `db:"result" json:"result"`
	InteractionCount int            `db:"interaction_count" json:"interaction_count"`
	TimeTakenMillis  int64          `db:"time_taken_millis" json:"time_taken_millis"`
	Details          map[string]any `db:"details" json:"details,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}
