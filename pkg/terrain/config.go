package terrain

import (
	"fmt"
	"math/bits"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LevelConfig describes where a level's source files live and how its grid
// is laid out. Sizes and the geo/section granularities come from the game's
// level registry and are all powers of two.
type LevelConfig struct {
	Name string `yaml:"name"`

	// Source files: the flood table, the compressed height/meta grid and
	// the raw palette. Relative paths resolve against the config file.
	FloodPath   string `yaml:"flood"`
	GridPath    string `yaml:"grid"`
	PalettePath string `yaml:"palette"`

	Compressed bool `yaml:"compressed"`

	Size    [2]int32 `yaml:"size"`
	Geo     int32    `yaml:"geo"`
	Section int32    `yaml:"section"`

	// Up to NUM_TERRAINS entries; missing ones stay zero-valued.
	Terrains []TerrainConfig `yaml:"terrains"`
}

func power(name string, v int32) (uint, error) {
	if v <= 0 || v&(v-1) != 0 {
		return 0, fmt.Errorf("%s must be a power of two, got %d", name, v)
	}
	return uint(bits.TrailingZeros32(uint32(v))), nil
}

func (c *LevelConfig) Validate() error {
	for _, p := range []struct {
		name string
		path string
	}{
		{"flood", c.FloodPath},
		{"grid", c.GridPath},
		{"palette", c.PalettePath},
	} {
		if p.path == "" {
			return fmt.Errorf("level config is missing the %s path", p.name)
		}
	}
	if _, err := power("size[0]", c.Size[0]); err != nil {
		return err
	}
	if _, err := power("size[1]", c.Size[1]); err != nil {
		return err
	}
	if _, err := power("geo", c.Geo); err != nil {
		return err
	}
	if _, err := power("section", c.Section); err != nil {
		return err
	}
	if len(c.Terrains) > NUM_TERRAINS {
		return fmt.Errorf("at most %d terrains, got %d", NUM_TERRAINS, len(c.Terrains))
	}
	return nil
}

// LoadConfig reads a level configuration document and resolves its source
// paths relative to the document's directory.
func LoadConfig(path string) (*LevelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := LevelConfig{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&config.FloodPath, &config.GridPath, &config.PalettePath} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return &config, nil
}
