package board

import (
	"math/rand"
	"sort"
)

// Strategist makes the decisions the game cannot make for a player. The game
// engine calls these at well-defined decision points; implementations may
// inspect any public game state but must not mutate it.
type Strategist interface {
	// DecideBuy is asked when the player lands on an unowned deed and can
	// afford the list price.
	DecideBuy(g *Game, player, deed int) bool

	// DecideBid is asked during an auction for a declined deed. Zero or a
	// negative value passes; bids above the player's cash are clamped.
	DecideBid(g *Game, player, deed int) int

	// DecideMortgage is asked while the player's balance is negative. It
	// returns the index of an owned, unmortgaged deed to mortgage for half
	// its price, or -1 to give up and go bankrupt.
	DecideMortgage(g *Game, player int) int
}

// mortgageCheapest returns the cheapest owned, unmortgaged deed, or -1.
// Shared by the fixed policies and the network adapter's fallback path.
func mortgageCheapest(g *Game, player int) int {
	best, bestPrice := -1, 0
	for i, o := range g.Owner {
		if o != player || g.Mortgaged[i] {
			continue
		}
		if best == -1 || g.Board.Deeds[i].Price < bestPrice {
			best, bestPrice = i, g.Board.Deeds[i].Price
		}
	}
	return best
}

// ConservativeStrategist is a fixed baseline policy: it buys whenever the
// purchase leaves a cash reserve, bids half price at auctions, and mortgages
// cheapest-first when in debt. It serves as the benchmark opponent for
// evolved controllers.
type ConservativeStrategist struct {
	Reserve int // cash to keep on hand after a purchase
}

// NewConservativeStrategist returns the baseline policy with a 200 reserve.
func NewConservativeStrategist() *ConservativeStrategist {
	return &ConservativeStrategist{Reserve: 200}
}

func (s *ConservativeStrategist) DecideBuy(g *Game, player, deed int) bool {
	return g.Players[player].Cash-g.Board.Deeds[deed].Price >= s.Reserve
}

func (s *ConservativeStrategist) DecideBid(g *Game, player, deed int) int {
	bid := g.Board.Deeds[deed].Price / 2
	if g.Players[player].Cash-bid < s.Reserve {
		return 0
	}
	return bid
}

func (s *ConservativeStrategist) DecideMortgage(g *Game, player int) int {
	return mortgageCheapest(g, player)
}

// RandomStrategist buys and bids by coin flip. Useful as evaluation noise and
// in tests.
type RandomStrategist struct {
	rng *rand.Rand
}

// NewRandomStrategist returns a random policy driven by the given source.
func NewRandomStrategist(rng *rand.Rand) *RandomStrategist {
	return &RandomStrategist{rng: rng}
}

func (s *RandomStrategist) DecideBuy(g *Game, player, deed int) bool {
	return s.rng.Float64() < 0.5
}

func (s *RandomStrategist) DecideBid(g *Game, player, deed int) int {
	if s.rng.Float64() < 0.5 {
		return 0
	}
	return g.Board.Deeds[deed].Price / 2
}

func (s *RandomStrategist) DecideMortgage(g *Game, player int) int {
	owned := ownedUnmortgaged(g, player)
	if len(owned) == 0 {
		return -1
	}
	return owned[s.rng.Intn(len(owned))]
}

// ownedUnmortgaged lists a player's mortgageable deeds in ascending index
// order.
func ownedUnmortgaged(g *Game, player int) []int {
	var owned []int
	for i, o := range g.Owner {
		if o == player && !g.Mortgaged[i] {
			owned = append(owned, i)
		}
	}
	sort.Ints(owned)
	return owned
}
