// Package roomconfig loads and validates the two configuration surfaces a
// running server needs: the top-level Configuration (data paths, HTTP port),
// and per-room MapDefinition JSON files describing a hex map's tiles, props,
// spawn points, and initial card count.
//
// Usage:
//
//	cfg, err := roomconfig.Load("config.json")
//	mgr := roomconfig.NewManager(cfg.AssetsDirectory())
//	def, err := mgr.LoadMapDefinition("classic")
//	provider := def.NewMapProvider(engine.NewIdAssigner(), 1)
package roomconfig
