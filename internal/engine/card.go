package engine

import "fmt"

// Card codes are two characters: rank (2-9, T, J, Q, K, A) + suit (S, H, D, C).
// e.g. "AS", "T D" -> "TD", "JH". Two physical decks make 104 codes in play.

const BoardSize = 10

// Cell is a board coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Key returns the "row,col" form used by locked-cell sets.
func (c Cell) Key() string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

var (
	cardRanks = []byte{'2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K', 'A'}
	cardSuits = []byte{'S', 'H', 'D', 'C'}
)

// Jack classification follows the printed decks: diamonds and clubs jacks
// have two eyes (wild placement), hearts and spades jacks have one eye
// (chip removal).
const (
	jackTwoEyedDiamonds = "JD"
	jackTwoEyedClubs    = "JC"
	jackOneEyedHearts   = "JH"
	jackOneEyedSpades   = "JS"
)

// boardLayout is the fixed printed board. Empty strings are the four wild
// corners. Every non-jack code appears exactly twice; jacks are not printed.
var boardLayout = [BoardSize][BoardSize]string{
	{"", "2S", "3S", "4S", "5S", "6S", "7S", "8S", "9S", ""},
	{"6C", "5C", "4C", "3C", "2C", "AH", "KH", "QH", "TH", "TS"},
	{"7C", "AS", "2D", "3D", "4D", "5D", "6D", "7D", "9H", "QS"},
	{"8C", "KS", "6C", "5C", "4C", "3C", "2C", "8D", "8H", "KS"},
	{"9C", "QS", "7C", "6H", "5H", "4H", "AH", "9D", "7H", "AS"},
	{"TC", "TS", "8C", "7H", "2H", "3H", "KH", "TD", "6H", "2D"},
	{"QC", "9S", "9C", "8H", "9H", "TH", "QH", "QD", "5H", "3D"},
	{"KC", "8S", "TC", "QC", "KC", "AC", "AD", "KD", "4H", "4D"},
	{"AC", "7S", "6S", "5S", "4S", "3S", "2S", "2H", "3H", "5D"},
	{"", "AD", "KD", "QD", "TD", "9D", "8D", "7D", "6D", ""},
}

var cardPositions map[string][]Cell

func init() {
	cardPositions = make(map[string][]Cell, 48)
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			code := boardLayout[r][c]
			if code == "" {
				continue
			}
			cardPositions[code] = append(cardPositions[code], Cell{Row: r, Col: c})
		}
	}
}

// IsCorner reports whether the cell is one of the four wild corners.
func IsCorner(row, col int) bool {
	return (row == 0 || row == BoardSize-1) && (col == 0 || col == BoardSize-1)
}

// FindCardPositions returns the printed board coordinates for a card code.
// Jacks return nil; they are placed by rule, not by print position.
func FindCardPositions(card string) []Cell {
	positions := cardPositions[card]
	if len(positions) == 0 {
		return nil
	}
	out := make([]Cell, len(positions))
	copy(out, positions)
	return out
}

// BoardCardAt returns the printed card code at a cell, or "" for corners.
func BoardCardAt(row, col int) string {
	return boardLayout[row][col]
}

func IsValidCard(card string) bool {
	if len(card) != 2 {
		return false
	}
	rankOK, suitOK := false, false
	for _, r := range cardRanks {
		if card[0] == r {
			rankOK = true
			break
		}
	}
	for _, s := range cardSuits {
		if card[1] == s {
			suitOK = true
			break
		}
	}
	return rankOK && suitOK
}

func IsJack(card string) bool {
	return len(card) == 2 && card[0] == 'J'
}

// IsTwoEyedJack reports whether the card is a wild-placement jack.
func IsTwoEyedJack(card string) bool {
	return card == jackTwoEyedDiamonds || card == jackTwoEyedClubs
}

// IsOneEyedJack reports whether the card is a chip-removal jack.
func IsOneEyedJack(card string) bool {
	return card == jackOneEyedHearts || card == jackOneEyedSpades
}
