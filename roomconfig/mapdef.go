package roomconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/wricardo/hexroom/game/engine"
	"github.com/wricardo/hexroom/hexgrid"
)

// TileDefinition is one cell of a MapDefinition's tile grid.
type TileDefinition struct {
	AssetID         int           `json:"asset_id"`
	Cell            hexgrid.Coord `json:"cell"`
	RotationDegrees float64       `json:"rotation_degrees"`
}

// PropDefinition is one fixed, non-card prop placed on the map.
type PropDefinition struct {
	AssetID         int           `json:"asset_id"`
	Position        hexgrid.Coord `json:"position"`
	RotationDegrees float64       `json:"rotation_degrees"`
}

// MapDefinition is the on-disk JSON shape a room's map is loaded from
// (spec.md §4.2's reference MapProvider): a rectangular hex grid, a fixed
// prop list, a spawn point list, and how many cards to seed at room start.
type MapDefinition struct {
	Rows             int              `json:"rows"`
	Cols             int              `json:"cols"`
	Tiles            []TileDefinition `json:"tiles"`
	Props            []PropDefinition `json:"props"`
	SpawnPoints      []hexgrid.Coord  `json:"spawn_points"`
	InitialCardCount int              `json:"initial_card_count"`
	Metadata         engine.MapMetadata `json:"metadata"`
}

// LoadMapDefinition reads and validates a MapDefinition from path.
func LoadMapDefinition(path string) (*MapDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roomconfig: read %s: %w", path, err)
	}
	var def MapDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("roomconfig: parse %s: %w", path, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("roomconfig: invalid map %s: %w", path, err)
	}
	return &def, nil
}

// Validate reports every structural defect in def at once, aggregated with
// multierr rather than failing on the first (spec.md §4.2's reference
// MapProvider requirement).
func (def *MapDefinition) Validate() error {
	var err error

	if def.Rows <= 0 {
		err = multierr.Append(err, fmt.Errorf("rows must be positive, got %d", def.Rows))
	}
	if def.Cols <= 0 {
		err = multierr.Append(err, fmt.Errorf("cols must be positive, got %d", def.Cols))
	}
	if len(def.Tiles) == 0 {
		err = multierr.Append(err, fmt.Errorf("map has no tiles"))
	}

	occupied := make(map[hexgrid.Coord]bool, len(def.Tiles))
	for _, t := range def.Tiles {
		if t.Cell.A != 0 && t.Cell.A != 1 {
			err = multierr.Append(err, fmt.Errorf("tile at %+v has invalid parity bit a=%d", t.Cell, t.Cell.A))
		}
		if t.Cell.C < 0 || t.Cell.C >= def.Cols {
			err = multierr.Append(err, fmt.Errorf("tile at %+v is out of bounds for cols=%d", t.Cell, def.Cols))
		}
		if occupied[t.Cell] {
			err = multierr.Append(err, fmt.Errorf("duplicate tile at %+v", t.Cell))
		}
		occupied[t.Cell] = true
	}

	for _, p := range def.Props {
		if !occupied[p.Position] {
			err = multierr.Append(err, fmt.Errorf("prop at %+v is not on any tile", p.Position))
		}
	}

	if len(def.SpawnPoints) < 2 {
		err = multierr.Append(err, fmt.Errorf("need at least 2 spawn points, got %d", len(def.SpawnPoints)))
	}
	spawnSeen := make(map[hexgrid.Coord]bool, len(def.SpawnPoints))
	for _, s := range def.SpawnPoints {
		if !occupied[s] {
			err = multierr.Append(err, fmt.Errorf("spawn point %+v is not on any tile", s))
		}
		if spawnSeen[s] {
			err = multierr.Append(err, fmt.Errorf("duplicate spawn point %+v", s))
		}
		spawnSeen[s] = true
	}

	if def.InitialCardCount < 0 {
		err = multierr.Append(err, fmt.Errorf("initial_card_count must be >= 0, got %d", def.InitialCardCount))
	}
	freeCells := len(occupied) - len(spawnSeen)
	if def.InitialCardCount > freeCells {
		err = multierr.Append(err, fmt.Errorf("initial_card_count %d exceeds %d free cells", def.InitialCardCount, freeCells))
	}

	return err
}

// NewMapProvider builds a ready-to-use InMemoryMapProvider from def, seeding
// it with InitialCardCount random cards.
func (def *MapDefinition) NewMapProvider(ids *engine.IdAssigner, rngSeed int64) *engine.InMemoryMapProvider {
	tiles := make([]engine.Tile, len(def.Tiles))
	for i, t := range def.Tiles {
		tiles[i] = engine.Tile{AssetID: t.AssetID, Cell: t.Cell, RotationDegrees: t.RotationDegrees}
	}
	props := make([]engine.Prop, len(def.Props))
	for i, p := range def.Props {
		props[i] = engine.Prop{
			PropType: engine.PropSimple,
			PropInfo: engine.GenericPropInfo{
				AssetID:         p.AssetID,
				PropType:        engine.PropSimple,
				Position:        p.Position,
				RotationDegrees: p.RotationDegrees,
			},
			SimpleInit: &engine.SimpleConfig{AssetID: p.AssetID},
		}
	}
	provider := engine.NewInMemoryMapProvider(def.Rows, def.Cols, tiles, props, def.SpawnPoints, def.Metadata, ids, rngSeed)
	provider.AddRandomCards(def.InitialCardCount)
	return provider
}

// Manager caches loaded MapDefinitions by name, reading name+".json" from a
// fixed directory on first access (grounded in the teacher's
// cache-then-load-from-JSON Manager idiom).
type Manager struct {
	dir   string
	cache map[string]*MapDefinition
}

// NewManager builds a Manager rooted at dir (typically
// Configuration.AssetsDirectory()).
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, cache: make(map[string]*MapDefinition)}
}

// LoadMapDefinition returns the named map definition, loading and caching it
// on first access.
func (m *Manager) LoadMapDefinition(name string) (*MapDefinition, error) {
	if def, ok := m.cache[name]; ok {
		return def, nil
	}
	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename += ".json"
	}
	def, err := LoadMapDefinition(filepath.Join(m.dir, filename))
	if err != nil {
		return nil, err
	}
	m.cache[name] = def
	return def, nil
}
