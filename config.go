package infinitycard

import (
	"fmt"
	"path/filepath"

	"github.com/bodgit/infinitycard/layout"
	"github.com/spf13/viper"
)

const (
	// ConfigFilename holds the layout of a project
	ConfigFilename = "card.yaml"

	configType = "yaml"

	cfgKeyName       = "name"
	cfgKeyPreset     = "preset"
	cfgKeyGridOrder  = "grid_order"
	cfgKeyFaceOrder  = "face_order"
	cfgKeyTileWidth  = "tile_width"
	cfgKeyTileHeight = "tile_height"
	cfgKeyFont       = "font"

	defaultTileSize = 300
)

// Config describes how a project is laid out and how a new grid is drawn
type Config struct {
	Name       string
	Layout     layout.Layout
	TileWidth  int
	TileHeight int
	// Font is a TrueType or OpenType file used to label new grids. Empty
	// selects the built-in monospace face.
	Font string
}

// DefaultConfig returns the clockwise card with 300 by 300 pixel tiles
func DefaultConfig() Config {
	return Config{
		Layout:     layout.Clockwise(),
		TileWidth:  defaultTileSize,
		TileHeight: defaultTileSize,
	}
}

// LoadConfig reads card.yaml from dir. Anything the file does not set is
// taken from fallback. A missing card.yaml is not an error, projects made
// before it existed simply use fallback.
func LoadConfig(dir string, fallback Config) (Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyName, fallback.Name)
	v.SetDefault(cfgKeyGridOrder, string(fallback.Layout.Grid))
	v.SetDefault(cfgKeyFaceOrder, fallback.Layout.Strings())
	v.SetDefault(cfgKeyTileWidth, fallback.TileWidth)
	v.SetDefault(cfgKeyTileHeight, fallback.TileHeight)
	v.SetDefault(cfgKeyFont, fallback.Font)
	v.SetConfigFile(filepath.Join(dir, ConfigFilename))
	v.SetConfigType(configType)

	exists, err := fileExists(v.ConfigFileUsed())
	if err != nil {
		return Config{}, err
	}
	if exists {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Name:       v.GetString(cfgKeyName),
		TileWidth:  v.GetInt(cfgKeyTileWidth),
		TileHeight: v.GetInt(cfgKeyTileHeight),
		Font:       v.GetString(cfgKeyFont),
	}

	// A preset fills in whichever of the grid and face order are not
	// given explicitly in the file
	l := layout.New(v.GetString(cfgKeyGridOrder), v.GetStringSlice(cfgKeyFaceOrder)...)
	if v.InConfig(cfgKeyPreset) {
		p, err := layout.Preset(v.GetString(cfgKeyPreset))
		if err != nil {
			return Config{}, err
		}
		if !v.InConfig(cfgKeyGridOrder) {
			l.Grid = p.Grid
		}
		if !v.InConfig(cfgKeyFaceOrder) {
			l.Faces = p.Faces
		}
	}
	cfg.Layout = l

	return cfg, nil
}

// Save writes the configuration to card.yaml in dir
func (c Config) Save(dir string) error {
	v := viper.New()
	v.Set(cfgKeyName, c.Name)
	v.Set(cfgKeyGridOrder, string(c.Layout.Grid))
	v.Set(cfgKeyFaceOrder, c.Layout.Strings())
	v.Set(cfgKeyTileWidth, c.TileWidth)
	v.Set(cfgKeyTileHeight, c.TileHeight)
	if c.Font != "" {
		v.Set(cfgKeyFont, c.Font)
	}
	if err := v.WriteConfigAs(filepath.Join(dir, ConfigFilename)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
