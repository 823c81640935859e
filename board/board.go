// Package board implements the turn-based property-trading simulation that
// supplies fitness signals for evolved controllers. The observation layout it
// feeds a controller is owned entirely by this package; the evolutionary core
// only ever sees fixed-length numeric vectors.
package board

import "fmt"

// TileKind identifies what happens when a player lands on a tile.
type TileKind int

const (
	StartTile TileKind = iota
	DeedTile
	TaxTile
	FreeTile
)

// Tile is one board position. Deed is an index into Board.Deeds for DeedTile
// tiles and -1 otherwise.
type Tile struct {
	Kind TileKind
	Name string
	Deed int
}

// Deed is a purchasable property. Deeds in the same group double their rent
// when one player owns the whole group.
type Deed struct {
	Name  string
	Price int
	Rent  int
	Group int
	Tile  int // board position of this deed
}

// Board is the static track layout: tiles in movement order plus the deed
// table they reference.
type Board struct {
	Tiles []Tile
	Deeds []Deed

	groupSizes map[int]int
}

// NewBoard assembles a board from a tile list, wiring the deed table and
// group sizes. Tiles of kind DeedTile must carry valid deed indices in
// ascending order; NewStandardBoard is the usual entry point.
func NewBoard(tiles []Tile, deeds []Deed) (*Board, error) {
	b := &Board{
		Tiles:      tiles,
		Deeds:      deeds,
		groupSizes: make(map[int]int),
	}
	for i, t := range tiles {
		if t.Kind != DeedTile {
			continue
		}
		if t.Deed < 0 || t.Deed >= len(deeds) {
			return nil, fmt.Errorf("tile %d references unknown deed %d", i, t.Deed)
		}
	}
	for i := range b.Deeds {
		b.Deeds[i].Tile = -1
		b.groupSizes[b.Deeds[i].Group]++
	}
	for i, t := range tiles {
		if t.Kind == DeedTile {
			b.Deeds[t.Deed].Tile = i
		}
	}
	return b, nil
}

// GroupSize returns the number of deeds in a color group.
func (b *Board) GroupSize(group int) int {
	return b.groupSizes[group]
}

// NewStandardBoard builds the default 24-tile track: a start corner, six
// three-deed groups with rising prices, two tax tiles, and three free
// corners.
func NewStandardBoard() *Board {
	names := [18]string{
		"Old Wharf", "Dock Street", "Harbour Row",
		"Mill Lane", "Foundry Way", "Ironworks",
		"Market Square", "Guild Hall", "Merchant Row",
		"King Street", "Cathedral Close", "Palace Gardens",
		"North Terrace", "Observatory Hill", "Crown Heights",
		"Grand Esplanade", "Regent Parade", "Imperial Plaza",
	}

	var tiles []Tile
	var deeds []Deed
	tiles = append(tiles, Tile{Kind: StartTile, Name: "Start", Deed: -1})

	deed := 0
	for group := 0; group < 6; group++ {
		for j := 0; j < 3; j++ {
			price := 60 + 40*deed
			deeds = append(deeds, Deed{
				Name:  names[deed],
				Price: price,
				Rent:  price / 6,
				Group: group,
			})
			tiles = append(tiles, Tile{Kind: DeedTile, Name: names[deed], Deed: deed})
			deed++
		}
		// A breather tile after every group keeps deed density close to the
		// classic track.
		switch group {
		case 1:
			tiles = append(tiles, Tile{Kind: TaxTile, Name: "Harbour Tax", Deed: -1})
		case 3:
			tiles = append(tiles, Tile{Kind: TaxTile, Name: "Crown Levy", Deed: -1})
		case 0, 2, 4:
			tiles = append(tiles, Tile{Kind: FreeTile, Name: "Rest", Deed: -1})
		}
	}

	b, err := NewBoard(tiles, deeds)
	if err != nil {
		// The standard layout is fixed at compile time; a failure here is a
		// programming error.
		panic(err)
	}
	return b
}
