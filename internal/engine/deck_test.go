package engine

import "testing"

func TestShufflePreservesMultiset(t *testing.T) {
	deck := NewDeck()
	before := make(map[string]int)
	for _, c := range deck {
		before[c]++
	}

	Shuffle(deck)

	after := make(map[string]int)
	for _, c := range deck {
		after[c]++
	}
	if len(before) != len(after) {
		t.Fatalf("shuffle changed code count: %d -> %d", len(before), len(after))
	}
	for code, n := range before {
		if after[code] != n {
			t.Fatalf("card %s count changed: %d -> %d", code, n, after[code])
		}
	}
}

func TestDealCardsShortfall(t *testing.T) {
	deck := NewDeck()
	if _, _, err := dealCards(deck, len(deck)+1); err == nil {
		t.Fatal("expected an error when dealing more cards than remain")
	}

	hand, rest, err := dealCards(deck, 7)
	if err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	if len(hand) != 7 || len(rest) != len(deck)-7 {
		t.Fatalf("deal split %d/%d, want 7/%d", len(hand), len(rest), len(deck)-7)
	}
}

func TestDrawRefillsFromDiscards(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	g.Deck = nil
	g.Players[0].Discards = []string{"2S", "3S"}
	g.Players[1].Discards = []string{"4S"}

	card, ok := g.drawFromDeck()
	if !ok {
		t.Fatal("expected a card after reshuffling discards")
	}
	if card != "2S" && card != "3S" && card != "4S" {
		t.Fatalf("drew unexpected card %s", card)
	}
	if len(g.Deck) != 2 {
		t.Fatalf("expected 2 cards left in the rebuilt pile, got %d", len(g.Deck))
	}
	for i, p := range g.Players {
		if len(p.Discards) != 0 {
			t.Fatalf("player %d discards not cleared", i)
		}
	}
}

func TestDrawOnTrulyExhaustedDeck(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	g.Deck = nil

	if _, ok := g.drawFromDeck(); ok {
		t.Fatal("expected no card with an empty deck and no discards")
	}
}
