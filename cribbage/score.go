package cribbage

import (
	"fmt"

	"cribbage-lite/card"
)

const maxPegRun = 7

// PegScore is the award for the card that was just added to the pile.
type PegScore struct {
	Points int
	Labels []string
}

// PegPoints scores the last card of pile against the cards before it in the same sequence.
func PegPoints(pile []card.Card) PegScore {
	var s PegScore
	if len(pile) == 0 {
		return s
	}

	count := 0
	for _, c := range pile {
		count += c.Value()
	}
	switch count {
	case 15:
		s.add(2, "15 for 2")
	case PegLimit:
		s.add(2, "31 for 2")
	}

	switch same := tailSameRank(pile); same {
	case 2:
		s.add(2, "pair for 2")
	case 3:
		s.add(6, "three of a kind for 6")
	case 4:
		s.add(12, "four of a kind for 12")
	}

	if run := tailRun(pile); run > 0 {
		s.add(run, fmt.Sprintf("run of %d for %d", run, run))
	}
	return s
}

func (s *PegScore) add(points int, label string) {
	s.Points += points
	s.Labels = append(s.Labels, label)
}

// tailSameRank counts consecutive cards at the end of pile sharing the last card's rank.
// Any other rank in between closes the group.
func tailSameRank(pile []card.Card) int {
	last := pile[len(pile)-1].Rank()
	n := 0
	for i := len(pile) - 1; i >= 0 && pile[i].Rank() == last; i-- {
		n++
	}
	return n
}

// tailRun returns the longest run length (3..7) formed by the final cards of pile, or 0.
func tailRun(pile []card.Card) int {
	longest := maxPegRun
	if len(pile) < longest {
		longest = len(pile)
	}
	for n := longest; n >= 3; n-- {
		if isRun(pile[len(pile)-n:]) {
			return n
		}
	}
	return 0
}

// isRun: distinct ranks forming a contiguous block, in any order.
func isRun(cards []card.Card) bool {
	var seen [14]bool
	lo, hi := byte(14), byte(0)
	for _, c := range cards {
		r := c.Rank()
		if seen[r] {
			return false
		}
		seen[r] = true
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
	}
	return int(hi-lo) == len(cards)-1
}

// ScoreItem is one non-zero category of a show breakdown.
type ScoreItem struct {
	Category string
	Label    string
	Points   int
}

type Breakdown struct {
	Items []ScoreItem
	Total int
}

func (b *Breakdown) add(category string, points int, label string) {
	if points == 0 {
		return
	}
	b.Items = append(b.Items, ScoreItem{Category: category, Label: label, Points: points})
	b.Total += points
}

// Points returns the points scored in one category (0 when absent).
func (b Breakdown) Points(category string) int {
	for _, it := range b.Items {
		if it.Category == category {
			return it.Points
		}
	}
	return 0
}

const (
	CategoryFifteens = "fifteens"
	CategoryPairs    = "pairs"
	CategoryRuns     = "runs"
	CategoryFlush    = "flush"
	CategoryNobs     = "nobs"
)

// ScoreShow scores a 4-card hand (or crib) with the cut.
func ScoreShow(hand []card.Card, cut card.Card, isCrib bool) Breakdown {
	all := make([]card.Card, 0, len(hand)+1)
	all = append(all, hand...)
	if cut.Valid() {
		all = append(all, cut)
	}

	var b Breakdown
	if n := CountFifteens(all); n > 0 {
		b.add(CategoryFifteens, 2*n, fmt.Sprintf("%s for %d", plural(n, "fifteen"), 2*n))
	}
	if pts, pairs := PairPoints(all); pts > 0 {
		b.add(CategoryPairs, pts, fmt.Sprintf("%s for %d", plural(pairs, "pair"), pts))
	}
	if length, mult := RunCount(all); mult > 0 {
		label := fmt.Sprintf("run of %d for %d", length, length)
		if mult > 1 {
			label = fmt.Sprintf("%d runs of %d for %d", mult, length, length*mult)
		}
		b.add(CategoryRuns, length*mult, label)
	}
	if pts := FlushPoints(hand, cut, isCrib); pts > 0 {
		b.add(CategoryFlush, pts, fmt.Sprintf("flush for %d", pts))
	}
	if HasNobs(hand, cut) {
		b.add(CategoryNobs, 1, "nobs for 1")
	}
	return b
}

// CountFifteens counts subsets of size 2..len(cards) whose values sum to 15.
func CountFifteens(cards []card.Card) int {
	n := 0
	for mask := 1; mask < 1<<len(cards); mask++ {
		size, sum := 0, 0
		for i, c := range cards {
			if mask&(1<<i) != 0 {
				size++
				sum += c.Value()
			}
		}
		if size >= 2 && sum == 15 {
			n++
		}
	}
	return n
}

// PairPoints returns C(n,2)*2 summed over ranks, plus the number of pairings.
func PairPoints(cards []card.Card) (points int, pairs int) {
	var counts [14]int
	for _, c := range cards {
		counts[c.Rank()]++
	}
	for _, n := range counts {
		if n >= 2 {
			pairs += n * (n - 1) / 2
		}
	}
	return pairs * 2, pairs
}

// RunCount returns the longest run length with its multiplicity, checking 5, 4 then 3.
func RunCount(cards []card.Card) (length int, multiplicity int) {
	var counts [15]int
	for _, c := range cards {
		counts[c.Rank()]++
	}
	for length = 5; length >= 3; length-- {
		multiplicity = 0
		for start := 1; start+length-1 <= 13; start++ {
			prod := 1
			for r := start; r < start+length; r++ {
				prod *= counts[r]
				if prod == 0 {
					break
				}
			}
			multiplicity += prod
		}
		if multiplicity > 0 {
			return length, multiplicity
		}
	}
	return 0, 0
}

// FlushPoints: a hand flush is 4, 5 with the cut; a crib flush needs the cut too.
func FlushPoints(hand []card.Card, cut card.Card, isCrib bool) int {
	if len(hand) != KeepSize {
		return 0
	}
	suit := hand[0].Suit()
	for _, c := range hand[1:] {
		if c.Suit() != suit {
			return 0
		}
	}
	cutMatches := cut.Valid() && cut.Suit() == suit
	switch {
	case cutMatches:
		return 5
	case isCrib:
		return 0
	default:
		return 4
	}
}

func HasNobs(hand []card.Card, cut card.Card) bool {
	if !cut.Valid() {
		return false
	}
	for _, c := range hand {
		if c.IsJack() && c.Suit() == cut.Suit() {
			return true
		}
	}
	return false
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
