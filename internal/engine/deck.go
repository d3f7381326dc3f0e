package engine

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewDeck returns two concatenated standard 52-card decks (104 codes),
// unshuffled.
func NewDeck() []string {
	deck := make([]string, 0, 104)
	for i := 0; i < 2; i++ {
		for _, suit := range cardSuits {
			for _, rank := range cardRanks {
				deck = append(deck, string([]byte{rank, suit}))
			}
		}
	}
	return deck
}

// Shuffle performs a Fisher-Yates shuffle driven by crypto/rand.
func Shuffle(cards []string) {
	for i := len(cards) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			continue
		}
		j := n.Int64()
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// dealCards removes exactly n cards from the head of the deck. Asking for
// more cards than remain is a configuration defect, not a runtime condition.
func dealCards(deck []string, n int) (hand []string, rest []string, err error) {
	if n < 0 || n > len(deck) {
		return nil, deck, fmt.Errorf("cannot deal %d cards from a deck of %d", n, len(deck))
	}
	hand = append([]string(nil), deck[:n]...)
	rest = deck[n:]
	return hand, rest, nil
}

// drawFromDeck removes and returns the head card, refilling the draw pile
// from every player's discards first when it is empty. The bool is false
// only when the deck is truly exhausted (every card is in a hand or on the
// board).
func (g *GameState) drawFromDeck() (string, bool) {
	if len(g.Deck) == 0 {
		g.reshuffleDiscards()
	}
	if len(g.Deck) == 0 {
		return "", false
	}
	card := g.Deck[0]
	g.Deck = g.Deck[1:]
	return card, true
}

// reshuffleDiscards collects every player's discard pile, clears them, and
// installs the shuffled result as the new draw pile.
func (g *GameState) reshuffleDiscards() {
	var pile []string
	for _, p := range g.Players {
		pile = append(pile, p.Discards...)
		p.Discards = nil
	}
	Shuffle(pile)
	g.Deck = pile
}
