package game

import "boostd/internal/domain"

type EventType string

const (
	EventState   EventType = "state"
	EventTick    EventType = "tick"
	EventFlip    EventType = "flip"
	EventConceal EventType = "conceal"
	EventResult  EventType = "result"
	EventFailed  EventType = "failed"
	EventBalance EventType = "balance"
)

// Event is what observers (the websocket client) receive.
type Event struct {
	Type          EventType           `json:"type"`
	SessionID     string              `json:"sessionId"`
	State         domain.SessionState `json:"state"`
	TimeRemaining int                 `json:"timeRemaining"`
	Count         int                 `json:"count"`

	Card  *int   `json:"card,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Flip  string `json:"flip,omitempty"`
	Cards []int  `json:"cards,omitempty"`

	Outcome *domain.Outcome `json:"outcome,omitempty"`
	Balance *domain.Balance `json:"balance,omitempty"`

	// formatted for the result screen, e.g. "ZAR 20.00"
	AmountWonDisplay string `json:"amountWonDisplay,omitempty"`
	BalanceDisplay   string `json:"balanceDisplay,omitempty"`
}

func balanceEvent(id string, balance *domain.Balance) Event {
	return Event{
		Type:           EventBalance,
		SessionID:      id,
		State:          domain.SessionResulted,
		Balance:        balance,
		BalanceDisplay: balance.CurrentBalance.Display(),
	}
}

// eventLocked must be called with s.mu held.
func (s *Session) eventLocked(t EventType) Event {
	ev := Event{
		Type:          t,
		SessionID:     s.id,
		State:         s.State(),
		TimeRemaining: s.remaining,
	}
	if s.variant != nil {
		ev.Count = s.variant.Count()
	}
	if t == EventResult || t == EventFailed {
		ev.Outcome = s.outcome
		if s.outcome != nil && s.outcome.Game != nil && s.outcome.Game.AmountWon != nil {
			ev.AmountWonDisplay = s.outcome.Game.AmountWon.Display()
		}
	}
	return ev
}
