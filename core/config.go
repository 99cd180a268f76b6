package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Window   WindowConfig   `toml:"window" yaml:"window"`
	Graphics GraphicsConfig `toml:"graphics" yaml:"graphics"`
	World    WorldConfig    `toml:"world" yaml:"world"`
	Debug    DebugConfig    `toml:"debug" yaml:"debug"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

type WindowConfig struct {
	Width     int    `toml:"width" yaml:"width"`
	Height    int    `toml:"height" yaml:"height"`
	Title     string `toml:"title" yaml:"title"`
	Resizable bool   `toml:"resizable" yaml:"resizable"`
}

type GraphicsConfig struct {
	Validation bool    `toml:"validation" yaml:"validation"`
	VSync      bool    `toml:"vsync" yaml:"vsync"`
	FOV        float32 `toml:"fov" yaml:"fov"`
	Near       float32 `toml:"near" yaml:"near"`
	Far        float32 `toml:"far" yaml:"far"`
	Shaders    string  `toml:"shaders" yaml:"shaders"`
}

type WorldConfig struct {
	Radius      int     `toml:"radius" yaml:"radius"`
	ShowBorders bool    `toml:"show_borders" yaml:"show_borders"`
	MoveSpeed   float32 `toml:"move_speed" yaml:"move_speed"`
	LookSpeed   float32 `toml:"look_speed" yaml:"look_speed"`
}

type DebugConfig struct {
	Overlay      bool `toml:"overlay" yaml:"overlay"`
	Timers       bool `toml:"timers" yaml:"timers"`
	WatchShaders bool `toml:"watch_shaders" yaml:"watch_shaders"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Width:     1920,
			Height:    1080,
			Title:     "Gameska",
			Resizable: true,
		},
		Graphics: GraphicsConfig{
			Validation: true,
			VSync:      true,
			FOV:        60,
			Near:       0.1,
			Far:        1000,
			Shaders:    "shaders",
		},
		World: WorldConfig{
			Radius:    1,
			MoveSpeed: 20,
			LookSpeed: 2.5,
		},
		Debug: DebugConfig{
			Overlay: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return errors.Errorf("config: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Graphics.FOV <= 0 || c.Graphics.FOV >= 180:
		return errors.Errorf("config: fov %g must be between 0 and 180 degrees", c.Graphics.FOV)
	case c.Graphics.Near <= 0 || c.Graphics.Far <= c.Graphics.Near:
		return errors.Errorf("config: clip planes near %g far %g are invalid", c.Graphics.Near, c.Graphics.Far)
	case c.World.Radius < 0:
		return errors.Errorf("config: chunk radius %d is negative", c.World.Radius)
	}
	return nil
}

// LoadConfig reads a TOML or YAML file, chosen by extension, over the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, errors.Errorf("config: unsupported file type %q", ext)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to parse %s", path)
	}
	return cfg, cfg.Validate()
}

// Flags are the command line options. Flags that are set explicitly
// override the config file.
type Flags struct {
	set *pflag.FlagSet

	configPath string
	modelPath  string
	width      int
	height     int
	validation bool
	vsync      bool
	shaders    string
	logLevel   string
	timers     bool
	radius     int
}

func NewFlags(name string) *Flags {
	d := DefaultConfig()
	f := &Flags{set: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	fs := f.set
	fs.StringVarP(&f.configPath, "config", "c", "", "TOML or YAML config file")
	fs.StringVar(&f.modelPath, "model", "", "OBJ or glTF model to place in the scene")
	fs.IntVar(&f.width, "width", d.Window.Width, "window width")
	fs.IntVar(&f.height, "height", d.Window.Height, "window height")
	fs.BoolVar(&f.validation, "validation", d.Graphics.Validation, "enable Vulkan validation layers")
	fs.BoolVar(&f.vsync, "vsync", d.Graphics.VSync, "wait for vertical sync")
	fs.StringVar(&f.shaders, "shaders", d.Graphics.Shaders, "directory with compiled SPIR-V shaders")
	fs.StringVar(&f.logLevel, "log-level", d.Log.Level, "debug, info, warn or error")
	fs.BoolVar(&f.timers, "timers", d.Debug.Timers, "log section timings")
	fs.IntVar(&f.radius, "radius", d.World.Radius, "chunk load radius")
	return f
}

func (f *Flags) Parse(args []string) error {
	return f.set.Parse(args)
}

func (f *Flags) ModelPath() string {
	return f.modelPath
}

// Config loads the config file if one was given and applies the flags that
// were set on the command line.
func (f *Flags) Config() (Config, error) {
	cfg := DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = LoadConfig(f.configPath); err != nil {
			return cfg, err
		}
	}
	changed := f.set.Changed
	if changed("width") {
		cfg.Window.Width = f.width
	}
	if changed("height") {
		cfg.Window.Height = f.height
	}
	if changed("validation") {
		cfg.Graphics.Validation = f.validation
	}
	if changed("vsync") {
		cfg.Graphics.VSync = f.vsync
	}
	if changed("shaders") {
		cfg.Graphics.Shaders = f.shaders
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("timers") {
		cfg.Debug.Timers = f.timers
	}
	if changed("radius") {
		cfg.World.Radius = f.radius
	}
	return cfg, cfg.Validate()
}
