package card

import (
	"math/rand"
	"sort"
)

type CardList []Card

func (ds *CardList) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

// Shuffle permutes the list in place with the caller's rng so seeded games stay reproducible.
func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

// PopCards takes size cards from the front.
func (ds *CardList) PopCards(size int) ([]Card, bool) {
	if size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	copy(cards, (*ds)[:size])
	*ds = (*ds)[size:]
	return cards, true
}

func (ds CardList) Contains(c Card) bool {
	for _, cc := range ds {
		if cc == c {
			return true
		}
	}
	return false
}

// Remove deletes the first occurrence of c, keeping order.
func (ds *CardList) Remove(c Card) bool {
	for i, cc := range *ds {
		if cc == c {
			*ds = append((*ds)[:i:i], (*ds)[i+1:]...)
			return true
		}
	}
	return false
}

func (ds CardList) Clone() CardList {
	if ds == nil {
		return nil
	}
	out := make(CardList, len(ds))
	copy(out, ds)
	return out
}

func (ds CardList) IDs() []string {
	return IDs(ds)
}

// IDs maps cards to their wire ids.
func IDs(cs []Card) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID())
	}
	return out
}

// SortByValue orders cards by counting value, then rank, then suit.
func SortByValue(cs []Card) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Value() != cs[j].Value() {
			return cs[i].Value() < cs[j].Value()
		}
		if cs[i].Rank() != cs[j].Rank() {
			return cs[i].Rank() < cs[j].Rank()
		}
		return cs[i].Suit() < cs[j].Suit()
	})
}
