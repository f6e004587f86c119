package roomconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Configuration carries a server's data-path and HTTP settings (spec.md
// §6). Path accessors join data_prefix with the relevant suffix and expand
// a leading "~" the way the original's pathlib.expanduser() does.
type Configuration struct {
	DataPrefix             string `json:"data_prefix"`
	RecordDirectorySuffix  string `json:"record_directory_suffix"`
	AssetsDirectorySuffix  string `json:"assets_directory_suffix"`
	DatabasePathSuffix     string `json:"database_path_suffix"`
	HTTPPort               int    `json:"http_port"`
	GUI                    bool   `json:"gui"`
}

// Default returns the configuration the original ships as its zero value.
func Default() Configuration {
	return Configuration{
		DataPrefix:            "./",
		RecordDirectorySuffix: "game_records/",
		AssetsDirectorySuffix: "assets/",
		DatabasePathSuffix:    "game_data.db",
		HTTPPort:              8080,
	}
}

// Load reads and decodes a Configuration from a JSON file, filling in
// Default() for any field the file omits by decoding into a copy of it.
func Load(path string) (Configuration, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("roomconfig: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("roomconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return path
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// RecordDirectory is data_prefix/record_directory_suffix with ~ expanded.
func (c Configuration) RecordDirectory() string {
	return expandHome(filepath.Join(c.DataPrefix, c.RecordDirectorySuffix))
}

// AssetsDirectory is data_prefix/assets_directory_suffix with ~ expanded.
func (c Configuration) AssetsDirectory() string {
	return expandHome(filepath.Join(c.DataPrefix, c.AssetsDirectorySuffix))
}

// DatabasePath is data_prefix/database_path_suffix with ~ expanded.
func (c Configuration) DatabasePath() string {
	return expandHome(filepath.Join(c.DataPrefix, c.DatabasePathSuffix))
}
