package board

import (
	"fmt"

	"github.com/baldhumanity/evoboard/neat"
	"github.com/baldhumanity/evoboard/neat/nn"
)

// The observation vector a network strategist sees, in index order:
//
//	[0..D)   per-deed ownership: +1 owned by me, -1 owned by an opponent
//	         (halved when mortgaged), 0 bank-owned
//	[D+0]    my cash / 1000
//	[D+1]    richest opponent's cash / 1000
//	[D+2]    price of the deed under decision / 500 (0 when none)
//	[D+3]    my board position / tile count
//
// where D is the board's deed count. The layout is fixed for a given board,
// so every genome in a run trains against the same input meaning.
const observationScalars = 4

// ObservationSize returns the input vector length a controller must accept
// for the given board. Configure the genome input count to this value.
func ObservationSize(b *Board) int {
	return len(b.Deeds) + observationScalars
}

// NumDecisionOutputs is the output vector length a controller must produce:
// buy inclination, bid fraction, mortgage inclination.
const NumDecisionOutputs = 3

// NetworkStrategist drives a player with a compiled network. It owns its
// Network instance and is not safe for concurrent use; tournament workers
// construct one per game side.
type NetworkStrategist struct {
	net *nn.Network
}

// NewNetworkStrategist compiles the genome and checks its interface against
// the board's observation layout.
func NewNetworkStrategist(g *neat.Genome, b *Board) (*NetworkStrategist, error) {
	net, err := nn.Compile(g)
	if err != nil {
		return nil, fmt.Errorf("strategist for genome %d: %w", g.Key, err)
	}
	if got, want := net.NumInputs(), ObservationSize(b); got != want {
		return nil, fmt.Errorf("strategist for genome %d: network has %d inputs, board needs %d", g.Key, got, want)
	}
	if got := net.NumOutputs(); got < NumDecisionOutputs {
		return nil, fmt.Errorf("strategist for genome %d: network has %d outputs, need %d", g.Key, got, NumDecisionOutputs)
	}
	return &NetworkStrategist{net: net}, nil
}

// Reset clears the network's recurrent state between games.
func (s *NetworkStrategist) Reset() { s.net.Reset() }

// observe encodes the game from the player's point of view. deed is the deed
// under decision, or -1 when the decision has no focal deed.
func (s *NetworkStrategist) observe(g *Game, player, deed int) []float64 {
	obs := make([]float64, ObservationSize(g.Board))
	for i, o := range g.Owner {
		var v float64
		switch {
		case o == player:
			v = 1
		case o >= 0:
			v = -1
		}
		if g.Mortgaged[i] {
			v /= 2
		}
		obs[i] = v
	}

	d := len(g.Board.Deeds)
	obs[d] = float64(g.Players[player].Cash) / 1000
	richest := 0
	for p := range g.Players {
		if p != player && !g.Players[p].Bankrupt && g.Players[p].Cash > richest {
			richest = g.Players[p].Cash
		}
	}
	obs[d+1] = float64(richest) / 1000
	if deed >= 0 {
		obs[d+2] = float64(g.Board.Deeds[deed].Price) / 500
	}
	obs[d+3] = float64(g.Players[player].Position) / float64(len(g.Board.Tiles))
	return obs
}

// decide runs one forward pass. A propagation error falls back to the zero
// vector, which reads as the most passive decision at every call site.
func (s *NetworkStrategist) decide(g *Game, player, deed int) []float64 {
	out, err := s.net.Propagate(s.observe(g, player, deed))
	if err != nil {
		return make([]float64, NumDecisionOutputs)
	}
	return out
}

func (s *NetworkStrategist) DecideBuy(g *Game, player, deed int) bool {
	return s.decide(g, player, deed)[0] > 0.5
}

func (s *NetworkStrategist) DecideBid(g *Game, player, deed int) int {
	out := s.decide(g, player, deed)
	if out[0] <= 0.5 {
		return 0
	}
	return int(out[1] * float64(g.Players[player].Cash))
}

// DecideMortgage mortgages cheapest-first while the network consents.
// Refusing while in debt means accepting bankruptcy, which is a legal, if
// usually losing, move.
func (s *NetworkStrategist) DecideMortgage(g *Game, player int) int {
	if s.decide(g, player, -1)[2] <= 0.5 {
		return -1
	}
	return mortgageCheapest(g, player)
}
