package cribbage

import (
	"fmt"
	"time"

	"cribbage-lite/card"
)

type Config struct {
	GameTarget  int
	MatchTarget int

	// Dealer of the first hand of every match.
	StartingDealer Seat

	// Bounded recent-activity log (0 => default).
	ActivityLimit int

	// RNG seed (0 => time-based)
	Seed int64

	// DeckOverride fixes the deal order for every hand: cards are dealt alternately
	// starting with the non-dealer, then the next card is cut.
	DeckOverride []card.Card

	// Clock for forced-pass timestamps (nil => time.Now).
	Now func() time.Time
}

// DefaultConfig is a standard 121-point, best-of-five match.
func DefaultConfig() Config {
	return Config{
		GameTarget:     DefaultGameTarget,
		MatchTarget:    DefaultMatchTarget,
		StartingDealer: P1,
	}
}

func (c Config) validate() error {
	if c.GameTarget <= 0 {
		return fmt.Errorf("GameTarget must be > 0")
	}
	if c.MatchTarget <= 0 {
		return fmt.Errorf("MatchTarget must be > 0")
	}
	if !c.StartingDealer.Valid() {
		return fmt.Errorf("invalid StartingDealer %d", c.StartingDealer)
	}
	if c.ActivityLimit < 0 {
		return fmt.Errorf("ActivityLimit must be >= 0")
	}
	if c.DeckOverride != nil {
		if len(c.DeckOverride) < minDeckSize {
			return fmt.Errorf("DeckOverride needs at least %d cards, got %d", minDeckSize, len(c.DeckOverride))
		}
		seen := make(map[card.Card]bool, len(c.DeckOverride))
		for _, cc := range c.DeckOverride {
			if !cc.Valid() {
				return fmt.Errorf("DeckOverride has invalid card %d", cc)
			}
			if seen[cc] {
				return fmt.Errorf("DeckOverride has duplicate card %s", cc.ID())
			}
			seen[cc] = true
		}
	}
	return nil
}
