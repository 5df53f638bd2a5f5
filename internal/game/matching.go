package game

import (
	"math/rand/v2"
	"strconv"
	"time"
)

const (
	DefaultMatchingPairs = 6
	DefaultRevealDelay   = time.Second
)

// FlipOutcome describes what a single card flip did to the board.
type FlipOutcome int

const (
	FlipRejected FlipOutcome = iota
	FlipRevealed             // first card of an attempt is face up
	FlipMatched              // second card matched the first
	FlipMismatch             // second card differed; both conceal after the reveal delay
)

func (o FlipOutcome) String() string {
	switch o {
	case FlipRevealed:
		return "revealed"
	case FlipMatched:
		return "matched"
	case FlipMismatch:
		return "mismatch"
	default:
		return "rejected"
	}
}

// MatchBoard is the memory grid of the matching game.
type MatchBoard struct {
	icons    []string
	matched  []bool
	faceUp   []bool
	first    int // index of the first card of the current attempt, -1 if none
	pair     [2]int
	matches  int
	inFlight bool // matchInProgress: a mismatched pair is still face up
}

func NewMatchBoard(icons []string) *MatchBoard {
	n := len(icons)
	return &MatchBoard{
		icons:   append([]string(nil), icons...),
		matched: make([]bool, n),
		faceUp:  make([]bool, n),
		first:   -1,
		pair:    [2]int{-1, -1},
	}
}

// ShuffledIcons builds a deck of pairs icon identifiers in random order.
func ShuffledIcons(pairs int, rng *rand.Rand) []string {
	if pairs <= 0 {
		pairs = DefaultMatchingPairs
	}
	icons := make([]string, 0, pairs*2)
	for i := 0; i < pairs; i++ {
		id := "icon-" + strconv.Itoa(i)
		icons = append(icons, id, id)
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(icons), func(i, j int) { icons[i], icons[j] = icons[j], icons[i] })
	return icons
}

// Flip turns card face up. While a mismatched pair is showing every flip is
// rejected, as are flips on matched or already face-up cards.
func (b *MatchBoard) Flip(card int) FlipOutcome {
	if b.inFlight {
		return FlipRejected
	}
	if card < 0 || card >= len(b.icons) || b.matched[card] || b.faceUp[card] {
		return FlipRejected
	}

	b.faceUp[card] = true
	if b.first < 0 {
		b.first = card
		return FlipRevealed
	}

	first := b.first
	b.first = -1
	if b.icons[first] == b.icons[card] {
		b.matched[first] = true
		b.matched[card] = true
		b.matches++
		return FlipMatched
	}

	b.inFlight = true
	b.pair = [2]int{first, card}
	return FlipMismatch
}

// ConcealMismatch turns the pending mismatched pair face down and releases
// the flip lock. It reports the concealed cards.
func (b *MatchBoard) ConcealMismatch() ([2]int, bool) {
	if !b.inFlight {
		return [2]int{-1, -1}, false
	}
	pair := b.pair
	b.faceUp[pair[0]] = false
	b.faceUp[pair[1]] = false
	b.pair = [2]int{-1, -1}
	b.inFlight = false
	return pair, true
}

func (b *MatchBoard) MatchInProgress() bool { return b.inFlight }

func (b *MatchBoard) Matches() int { return b.matches }

func (b *MatchBoard) Count() int { return b.matches }

func (b *MatchBoard) Size() int { return len(b.icons) }

func (b *MatchBoard) Icon(card int) string {
	if card < 0 || card >= len(b.icons) {
		return ""
	}
	return b.icons[card]
}

func (b *MatchBoard) Solved() bool {
	return len(b.icons) > 0 && b.matches*2 == len(b.icons)
}
