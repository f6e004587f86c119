package engine

import (
	"math/rand"

	"github.com/wricardo/hexroom/hexgrid"
)

// PropType discriminates the Prop wire union (spec.md §3.1).
type PropType int

const (
	PropNone PropType = iota
	PropSimple
	PropCard
)

// GenericPropInfo carries the presentational fields common to every prop.
type GenericPropInfo struct {
	AssetID         int           `json:"asset_id"`
	PropType        PropType      `json:"prop_type"`
	Position        hexgrid.Coord `json:"position"`
	RotationDegrees float64       `json:"rotation_degrees"`
	BorderRadius    float64       `json:"border_radius"`
	BorderColor     Color         `json:"border_color"`
}

// CardConfig is a card prop's type-specific payload.
type CardConfig struct {
	Color    int  `json:"color"`
	Shape    int  `json:"shape"`
	Count    int  `json:"count"`
	Selected bool `json:"selected"`
}

// SimpleConfig is a non-card prop's type-specific payload.
type SimpleConfig struct {
	AssetID int `json:"asset_id"`
}

// Prop is the wire form of a placed object: a Card (in the DATA MODEL sense)
// is the engine-internal form, and a Prop with CardInit populated is its
// wire form.
type Prop struct {
	ID         int           `json:"id"`
	PropType   PropType      `json:"prop_type"`
	PropInfo   GenericPropInfo `json:"prop_info"`
	CardInit   *CardConfig   `json:"card_init,omitempty"`
	SimpleInit *SimpleConfig `json:"simple_init,omitempty"`
}

// Tile is one cell of the map's tile grid.
type Tile struct {
	AssetID         int           `json:"asset_id"`
	Cell            hexgrid.Coord `json:"cell"`
	RotationDegrees float64       `json:"rotation_degrees"`
}

// MapMetadata carries informational counts forwarded verbatim to clients.
type MapMetadata struct {
	NumCities      int `json:"num_cities"`
	NumLakes       int `json:"num_lakes"`
	NumMountains   int `json:"num_mountains"`
	NumOutposts    int `json:"num_outposts"`
	NumPartitions  int `json:"num_partitions"`
}

// MapUpdate is the full wire snapshot of a room's map.
type MapUpdate struct {
	Rows     int         `json:"rows"`
	Cols     int         `json:"cols"`
	Tiles    []Tile      `json:"tiles"`
	Props    []Prop      `json:"props"`
	Metadata MapMetadata `json:"metadata"`
}

// MapProvider owns the tile grid, prop list, card set, and spawn points for
// a room and exposes card-selection state and set-validity predicates. The
// engine treats it as an opaque spatial store; placement tie-breaks (seeding,
// rejection of occupied cells) are the provider's responsibility.
type MapProvider interface {
	Map() MapUpdate
	SpawnPoints() []hexgrid.Coord
	CardByLocation(h hexgrid.Coord) (Card, bool)
	SetSelected(id int, selected bool)
	RemoveCard(id int)
	AddRandomCards(n int) []Card
	SelectedCards() []Card
	// SelectedCardsCollide is true when >=2 selected cards share any
	// attribute among color/shape/count, or when more than 3 cards are
	// selected.
	SelectedCardsCollide() bool
	// SelectedValidSet is true iff exactly 3 cards are selected and they are
	// pairwise distinct on every attribute.
	SelectedValidSet() bool
	Cards() []Card
	NonCardProps() []Prop
}

// InMemoryMapProvider is the reference MapProvider: a rectangular hex map
// loaded once at room creation, with cards mutated in place as the game
// proceeds.
type InMemoryMapProvider struct {
	rows, cols int
	tiles      []Tile
	nonCards   []Prop
	spawns     []hexgrid.Coord
	metadata   MapMetadata
	cards      map[int]*Card
	ids        *IdAssigner
	rng        *rand.Rand
	shapes     int
	colors     int
	counts     int
}

// NewInMemoryMapProvider builds a provider from a fully-specified grid,
// non-card prop list, and spawn points. initialCards are placed on distinct
// free cells using ids, recording their own IDs in it. rngSeed makes card
// placement reproducible for tests.
func NewInMemoryMapProvider(rows, cols int, tiles []Tile, nonCards []Prop, spawns []hexgrid.Coord, metadata MapMetadata, ids *IdAssigner, rngSeed int64) *InMemoryMapProvider {
	return &InMemoryMapProvider{
		rows:     rows,
		cols:     cols,
		tiles:    tiles,
		nonCards: nonCards,
		spawns:   spawns,
		metadata: metadata,
		cards:    make(map[int]*Card),
		ids:      ids,
		rng:      rand.New(rand.NewSource(rngSeed)),
		shapes:   3,
		colors:   3,
		counts:   3,
	}
}

// Map returns the current full map snapshot, including card props.
func (m *InMemoryMapProvider) Map() MapUpdate {
	props := make([]Prop, 0, len(m.nonCards)+len(m.cards))
	props = append(props, m.nonCards...)
	for _, c := range m.Cards() {
		props = append(props, cardToProp(c))
	}
	return MapUpdate{Rows: m.rows, Cols: m.cols, Tiles: m.tiles, Props: props, Metadata: m.metadata}
}

func cardToProp(c Card) Prop {
	return Prop{
		ID:       c.ID,
		PropType: PropCard,
		PropInfo: GenericPropInfo{PropType: PropCard, Position: c.Location},
		CardInit: &CardConfig{Color: c.Color, Shape: c.Shape, Count: c.Count, Selected: c.Selected},
	}
}

// SpawnPoints returns the room's configured spawn cells.
func (m *InMemoryMapProvider) SpawnPoints() []hexgrid.Coord {
	return m.spawns
}

// CardByLocation returns the card occupying h, if any.
func (m *InMemoryMapProvider) CardByLocation(h hexgrid.Coord) (Card, bool) {
	for _, c := range m.cards {
		if c.Location.Equals(h) {
			return *c, true
		}
	}
	return Card{}, false
}

// SetSelected toggles a card's selection state.
func (m *InMemoryMapProvider) SetSelected(id int, selected bool) {
	if c, ok := m.cards[id]; ok {
		c.Selected = selected
	}
}

// RemoveCard deletes a card and returns its ID to the assigner.
func (m *InMemoryMapProvider) RemoveCard(id int) {
	if _, ok := m.cards[id]; ok {
		delete(m.cards, id)
		m.ids.Free(id)
	}
}

// AddRandomCards places n new cards on free cells with random attributes,
// rejecting cells already occupied by a card.
func (m *InMemoryMapProvider) AddRandomCards(n int) []Card {
	added := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		loc, ok := m.freeCell()
		if !ok {
			break
		}
		id := m.ids.Request()
		c := Card{
			ID:       id,
			Location: loc,
			Color:    m.rng.Intn(m.colors),
			Shape:    m.rng.Intn(m.shapes),
			Count:    1 + m.rng.Intn(m.counts),
		}
		m.cards[id] = &c
		added = append(added, c)
	}
	return added
}

func (m *InMemoryMapProvider) freeCell() (hexgrid.Coord, bool) {
	occupied := make(map[hexgrid.Coord]bool, len(m.cards))
	for _, c := range m.cards {
		occupied[c.Location] = true
	}
	candidates := make([]hexgrid.Coord, 0, len(m.tiles))
	for _, t := range m.tiles {
		if !occupied[t.Cell] {
			candidates = append(candidates, t.Cell)
		}
	}
	if len(candidates) == 0 {
		return hexgrid.Coord{}, false
	}
	return candidates[m.rng.Intn(len(candidates))], true
}

// SelectedCards returns every currently-selected card.
func (m *InMemoryMapProvider) SelectedCards() []Card {
	var out []Card
	for _, c := range m.cards {
		if c.Selected {
			out = append(out, *c)
		}
	}
	return out
}

// Cards returns every card on the map, selected or not.
func (m *InMemoryMapProvider) Cards() []Card {
	out := make([]Card, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, *c)
	}
	return out
}

// NonCardProps returns the fixed, non-card decoration/building props.
func (m *InMemoryMapProvider) NonCardProps() []Prop {
	return m.nonCards
}

// SelectedCardsCollide reports whether the current selection can never
// become a valid set without being changed: either too many cards are
// selected, or two selected cards share an attribute.
func (m *InMemoryMapProvider) SelectedCardsCollide() bool {
	sel := m.SelectedCards()
	if len(sel) > 3 {
		return true
	}
	for i := 0; i < len(sel); i++ {
		for j := i + 1; j < len(sel); j++ {
			if sel[i].Color == sel[j].Color || sel[i].Shape == sel[j].Shape || sel[i].Count == sel[j].Count {
				return true
			}
		}
	}
	return false
}

// SelectedValidSet reports whether exactly 3 cards are selected and they are
// pairwise distinct on every attribute.
func (m *InMemoryMapProvider) SelectedValidSet() bool {
	sel := m.SelectedCards()
	if len(sel) != 3 {
		return false
	}
	for i := 0; i < len(sel); i++ {
		for j := i + 1; j < len(sel); j++ {
			if sel[i].Color == sel[j].Color || sel[i].Shape == sel[j].Shape || sel[i].Count == sel[j].Count {
				return false
			}
		}
	}
	return true
}
