// Package tournament scores a generation of genomes by playing them against
// each other on the board simulation. Games run on a worker pool; each worker
// compiles its own networks, so no compiled state is ever shared between
// goroutines.
package tournament

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/baldhumanity/evoboard/board"
	"github.com/baldhumanity/evoboard/neat"
)

// Tournament evaluates populations on a fixed board. Evaluate satisfies
// neat.FitnessFunc, so a Tournament plugs straight into Population.RunGeneration.
type Tournament struct {
	Config *neat.TournamentConfig
	Board  *board.Board

	rng *rand.Rand // seeds for individual games, drawn before dispatch
}

// New creates a tournament driver. The seed determines every game seed the
// driver will ever hand out, so a full run replays exactly.
func New(cfg *neat.TournamentConfig, b *board.Board, seed int64) *Tournament {
	return &Tournament{
		Config: cfg,
		Board:  b,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// matchup is one scheduled game between two genomes.
type matchup struct {
	keyA, keyB int
	seed       int64
}

// outcome is the scored result of one game, or the error that prevented it.
type outcome struct {
	keyA, keyB     int
	scoreA, scoreB float64
	err            error
}

// Evaluate plays a round-robin-style schedule and writes each genome's
// Fitness: its mean per-game score, where a game awards the net-worth share
// plus a winner's bonus. Pairings rotate so every genome faces
// GamesPerPairing distinct opponents per generation.
func (t *Tournament) Evaluate(genomes map[int]*neat.Genome) error {
	keys := make([]int, 0, len(genomes))
	for k := range genomes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if len(keys) < 2 {
		for _, k := range keys {
			genomes[k].Fitness = 0
		}
		return nil
	}

	// The schedule and all game seeds are fixed before any worker starts, so
	// scheduling never races the shared rng.
	var schedule []matchup
	rounds := t.Config.GamesPerPairing
	for r := 1; r <= rounds; r++ {
		for i, k := range keys {
			opp := keys[(i+r)%len(keys)]
			if opp == k {
				continue
			}
			schedule = append(schedule, matchup{keyA: k, keyB: opp, seed: t.rng.Int63()})
		}
	}

	jobs := make(chan matchup)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < t.Config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				results <- t.play(m, genomes[m.keyA], genomes[m.keyB])
			}
		}()
	}
	go func() {
		for _, m := range schedule {
			jobs <- m
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	scores := make(map[int]float64, len(keys))
	games := make(map[int]int, len(keys))
	var firstErr error
	for out := range results {
		if out.err != nil {
			if firstErr == nil {
				firstErr = out.err
			}
			continue
		}
		scores[out.keyA] += out.scoreA
		scores[out.keyB] += out.scoreB
		games[out.keyA]++
		games[out.keyB]++
	}
	if firstErr != nil {
		return fmt.Errorf("tournament evaluation: %w", firstErr)
	}

	for _, k := range keys {
		if games[k] > 0 {
			genomes[k].Fitness = scores[k] / float64(games[k])
		} else {
			genomes[k].Fitness = 0
		}
	}
	return nil
}

// play compiles both sides fresh and runs one game.
func (t *Tournament) play(m matchup, ga, gb *neat.Genome) outcome {
	sa, err := board.NewNetworkStrategist(ga, t.Board)
	if err != nil {
		return outcome{keyA: m.keyA, keyB: m.keyB, err: err}
	}
	sb, err := board.NewNetworkStrategist(gb, t.Board)
	if err != nil {
		return outcome{keyA: m.keyA, keyB: m.keyB, err: err}
	}

	game, err := board.NewGame(t.Board, []board.Strategist{sa, sb}, rand.New(rand.NewSource(m.seed)))
	if err != nil {
		return outcome{keyA: m.keyA, keyB: m.keyB, err: err}
	}
	res := game.Run(t.Config.MaxTurns)

	scoreA, scoreB := shares(res)
	return outcome{keyA: m.keyA, keyB: m.keyB, scoreA: scoreA, scoreB: scoreB}
}

// shares converts a two-player result into per-side scores: each side's share
// of the combined final net worth, plus 1.0 for the winner. A washed-out game
// where both sides end worthless scores half each.
func shares(res board.Result) (float64, float64) {
	total := res.NetWorth[0] + res.NetWorth[1]
	a, b := 0.5, 0.5
	if total > 0 {
		a = res.NetWorth[0] / total
		b = res.NetWorth[1] / total
	}
	switch res.Winner {
	case 0:
		a++
	case 1:
		b++
	}
	return a, b
}

// PlayBaseline pits a genome against the conservative baseline policy for the
// given number of games and returns how many the genome won. Used by the CLI
// to sanity-check a trained champion.
func (t *Tournament) PlayBaseline(g *neat.Genome, games int) (int, error) {
	wins := 0
	for i := 0; i < games; i++ {
		s, err := board.NewNetworkStrategist(g, t.Board)
		if err != nil {
			return wins, err
		}
		opp := board.NewConservativeStrategist()
		game, err := board.NewGame(t.Board, []board.Strategist{s, opp}, rand.New(rand.NewSource(t.rng.Int63())))
		if err != nil {
			return wins, err
		}
		if res := game.Run(t.Config.MaxTurns); res.Winner == 0 {
			wins++
		}
	}
	return wins, nil
}
