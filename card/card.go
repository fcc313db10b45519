package card

import (
	"fmt"
	"strings"
)

// Card 牌枚举
//
// Encoding:
// - high 4 bits: suit (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - low 4 bits: rank (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

var rankLetters = [...]byte{0, 'A', '2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K'}

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return fmt.Sprintf("%s%c", c.Suit(), rankLetters[c.Rank()])
}

// Valid reports whether c encodes one of the 52 cards.
func (c Card) Valid() bool {
	r := c & 0x0F
	return r >= 1 && r <= 13 && c>>4 <= 3
}

// Rank returns the run rank 1-13 (A=1, K=13).
func (c Card) Rank() byte {
	if !c.Valid() {
		return 0
	}
	return byte(c & 0x0F)
}

// Suit (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

// Value is the counting value: A=1, 2-10 face value, J/Q/K=10.
func (c Card) Value() int {
	r := int(c.Rank())
	if r > 10 {
		return 10
	}
	return r
}

func (c Card) IsJack() bool {
	return c.Rank() == 11
}

// ID returns the stable wire identity, rank letter then suit letter ("5h", "Tc", "As").
func (c Card) ID() string {
	if !c.Valid() {
		return ""
	}
	return string([]byte{rankLetters[c.Rank()], c.Suit().Letter()})
}

// Parse converts a card id ("As", "td", "10h") back into a Card.
func Parse(id string) (Card, error) {
	id = strings.TrimSpace(id)
	if len(id) < 2 {
		return CardInvalid, fmt.Errorf("invalid card id: %q", id)
	}

	var suitBase Card
	switch id[len(id)-1] {
	case 's', 'S':
		suitBase = 0x00
	case 'h', 'H':
		suitBase = 0x10
	case 'c', 'C':
		suitBase = 0x20
	case 'd', 'D':
		suitBase = 0x30
	default:
		return CardInvalid, fmt.Errorf("invalid suit in card id: %q", id)
	}

	var rankVal Card
	switch strings.ToUpper(id[:len(id)-1]) {
	case "A":
		rankVal = 0x01
	case "2":
		rankVal = 0x02
	case "3":
		rankVal = 0x03
	case "4":
		rankVal = 0x04
	case "5":
		rankVal = 0x05
	case "6":
		rankVal = 0x06
	case "7":
		rankVal = 0x07
	case "8":
		rankVal = 0x08
	case "9":
		rankVal = 0x09
	case "T", "10":
		rankVal = 0x0A
	case "J":
		rankVal = 0x0B
	case "Q":
		rankVal = 0x0C
	case "K":
		rankVal = 0x0D
	default:
		return CardInvalid, fmt.Errorf("invalid rank in card id: %q", id)
	}

	return suitBase + rankVal, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(id string) Card {
	c, err := Parse(id)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseList parses every id, failing on the first bad one.
func ParseList(ids []string) ([]Card, error) {
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		c, err := Parse(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
