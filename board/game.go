package board

import (
	"fmt"
	"math/rand"
)

const (
	startSalary = 200
	startCash   = 1500
	taxAmount   = 100
)

// PlayerState is the mutable per-player game state.
type PlayerState struct {
	Cash     int
	Position int
	Bankrupt bool
}

// Result summarizes a finished game. Winner is the index of the player with
// the highest net worth, with solvency breaking ties; NetWorth holds every
// player's final worth, bankrupt players at zero.
type Result struct {
	Winner   int
	Turns    int
	NetWorth []float64
}

// Game is one match in progress. All randomness flows through the rng handed
// to NewGame, so a game is reproducible from its seed and strategist lineup.
type Game struct {
	Board       *Board
	Players     []PlayerState
	Owner       []int  // deed index -> player index, -1 when unowned
	Mortgaged   []bool // deed index -> mortgaged flag
	Turn        int
	strategists []Strategist
	rng         *rand.Rand
}

// NewGame sets up a match between the given strategists on a board. At least
// two players are required.
func NewGame(b *Board, strategists []Strategist, rng *rand.Rand) (*Game, error) {
	if len(strategists) < 2 {
		return nil, fmt.Errorf("a game needs at least 2 players, got %d", len(strategists))
	}
	g := &Game{
		Board:       b,
		Players:     make([]PlayerState, len(strategists)),
		Owner:       make([]int, len(b.Deeds)),
		Mortgaged:   make([]bool, len(b.Deeds)),
		strategists: strategists,
		rng:         rng,
	}
	for i := range g.Players {
		g.Players[i].Cash = startCash
	}
	for i := range g.Owner {
		g.Owner[i] = -1
	}
	return g, nil
}

// Run plays the game to completion: turns rotate over the players until only
// one remains solvent or maxTurns full rounds have been played.
func (g *Game) Run(maxTurns int) Result {
	for turn := 1; turn <= maxTurns; turn++ {
		g.Turn = turn
		for p := range g.Players {
			if g.Players[p].Bankrupt {
				continue
			}
			g.playTurn(p)
		}
		if g.solventCount() <= 1 {
			break
		}
	}
	return g.result()
}

// playTurn rolls, moves and resolves the landing tile for one player.
func (g *Game) playTurn(p int) {
	roll := g.rng.Intn(6) + g.rng.Intn(6) + 2
	pos := g.Players[p].Position + roll
	if pos >= len(g.Board.Tiles) {
		pos -= len(g.Board.Tiles)
		g.Players[p].Cash += startSalary
	}
	g.Players[p].Position = pos

	tile := g.Board.Tiles[pos]
	switch tile.Kind {
	case TaxTile:
		g.Players[p].Cash -= taxAmount
		g.settle(p, -1)
	case DeedTile:
		g.landOnDeed(p, tile.Deed)
	}
}

// landOnDeed handles an unowned deed (purchase or auction) or an owned one
// (rent).
func (g *Game) landOnDeed(p, deed int) {
	owner := g.Owner[deed]
	switch {
	case owner == -1:
		price := g.Board.Deeds[deed].Price
		if g.Players[p].Cash >= price && g.strategists[p].DecideBuy(g, p, deed) {
			g.Players[p].Cash -= price
			g.Owner[deed] = p
			return
		}
		g.auction(deed)
	case owner != p && !g.Mortgaged[deed]:
		rent := g.rent(deed)
		g.Players[p].Cash -= rent
		g.Players[owner].Cash += rent
		g.settle(p, owner)
	}
}

// auction offers a declined deed to every solvent player. Bids are clamped to
// the bidder's cash; the highest positive bid wins, earlier player index
// breaking ties. No positive bid leaves the deed with the bank.
func (g *Game) auction(deed int) {
	winner, best := -1, 0
	for p := range g.Players {
		if g.Players[p].Bankrupt {
			continue
		}
		bid := g.strategists[p].DecideBid(g, p, deed)
		if bid > g.Players[p].Cash {
			bid = g.Players[p].Cash
		}
		if bid > best {
			winner, best = p, bid
		}
	}
	if winner >= 0 {
		g.Players[winner].Cash -= best
		g.Owner[deed] = winner
	}
}

// rent returns the rent due on a deed, doubled when its owner holds the whole
// group.
func (g *Game) rent(deed int) int {
	d := g.Board.Deeds[deed]
	owner := g.Owner[deed]
	owned := 0
	for i, o := range g.Owner {
		if o == owner && g.Board.Deeds[i].Group == d.Group {
			owned++
		}
	}
	if owned == g.Board.GroupSize(d.Group) {
		return d.Rent * 2
	}
	return d.Rent
}

// settle resolves a negative balance after a payment: the debtor mortgages
// deeds of its choosing until solvent or out of options, then goes bankrupt.
// On bankruptcy all of the debtor's deeds return to the bank unmortgaged and
// any remaining cash goes to the creditor (-1 for the bank).
func (g *Game) settle(debtor, creditor int) {
	for g.Players[debtor].Cash < 0 {
		deed := g.strategists[debtor].DecideMortgage(g, debtor)
		if deed < 0 || deed >= len(g.Owner) || g.Owner[deed] != debtor || g.Mortgaged[deed] {
			break
		}
		g.Mortgaged[deed] = true
		g.Players[debtor].Cash += g.Board.Deeds[deed].Price / 2
	}
	if g.Players[debtor].Cash >= 0 {
		return
	}

	g.Players[debtor].Bankrupt = true
	for i, o := range g.Owner {
		if o == debtor {
			g.Owner[i] = -1
			g.Mortgaged[i] = false
		}
	}
	if creditor >= 0 && g.Players[debtor].Cash > 0 {
		g.Players[creditor].Cash += g.Players[debtor].Cash
	}
	g.Players[debtor].Cash = 0
}

// NetWorth returns a player's cash plus deed value: full price for an owned
// deed, half for a mortgaged one. Bankrupt players are worth zero.
func (g *Game) NetWorth(p int) int {
	if g.Players[p].Bankrupt {
		return 0
	}
	worth := g.Players[p].Cash
	for i, o := range g.Owner {
		if o != p {
			continue
		}
		if g.Mortgaged[i] {
			worth += g.Board.Deeds[i].Price / 2
		} else {
			worth += g.Board.Deeds[i].Price
		}
	}
	return worth
}

// solventCount returns the number of players still in the game.
func (g *Game) solventCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.Bankrupt {
			n++
		}
	}
	return n
}

// result computes final standings.
func (g *Game) result() Result {
	res := Result{Winner: -1, Turns: g.Turn, NetWorth: make([]float64, len(g.Players))}
	best := -1
	for p := range g.Players {
		w := g.NetWorth(p)
		res.NetWorth[p] = float64(w)
		if !g.Players[p].Bankrupt && w > best {
			best = w
			res.Winner = p
		}
	}
	return res
}
