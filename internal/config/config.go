// Package config loads renderer settings with priority defaults < file < flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"mh-pose-renderer/internal/mesh"
)

// FileName is the config file looked up in the working directory when no
// explicit path is given.
const FileName = "mhrender.yaml"

// Config holds all configurable paths and render settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the base mesh, target tree and rig. Relative paths
// resolve against Dir.
type DataConfig struct {
	Dir      string `yaml:"dir"`
	BaseMesh string `yaml:"base_mesh"`
	Targets  string `yaml:"targets"`
	Rig      string `yaml:"rig"`
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// RenderConfig holds rendering and worker settings.
type RenderConfig struct {
	Supersample int `yaml:"supersample"`
	Workers     int `yaml:"workers"`
	// GenitalThreshold is the gender slider value at which genital helper
	// groups are rendered. 0 never renders them.
	GenitalThreshold float64 `yaml:"genital_threshold"`
	// GenitalGroups are the face groups GenitalThreshold unlocks.
	GenitalGroups []string `yaml:"genital_groups"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			BaseMesh: filepath.Join("3dobjs", "base.obj"),
			Targets:  "targets",
			Rig:      filepath.Join("rigs", "default.mhskel"),
		},
		Output: OutputConfig{
			Dir:    "renders",
			Format: "png",
		},
		Render: RenderConfig{
			Supersample:   1,
			GenitalGroups: []string{mesh.GroupGenitals},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path
// tries FileName in the working directory and silently skips it if absent.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(FileName); err != nil {
			return cfg, nil
		}
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values leave the file setting alone.
type Flags struct {
	DataDir     string
	OutputDir   string
	Format      string
	Workers     int
	Supersample int
	LogLevel    string
}

// Resolve applies flags, auto-detects the data directory when unset and
// makes data paths absolute.
func (c *Config) Resolve(flags Flags) {
	if flags.DataDir != "" {
		c.Data.Dir = flags.DataDir
	}
	if flags.OutputDir != "" {
		c.Output.Dir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Output.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Render.Workers = flags.Workers
	}
	if flags.Supersample > 0 {
		c.Render.Supersample = flags.Supersample
	}
	if flags.LogLevel != "" {
		c.Logging.Level = flags.LogLevel
	}

	if c.Data.Dir == "" {
		c.Data.Dir = detectDataDir(c.Data.BaseMesh)
	}
	if c.Data.Dir != "" {
		c.Data.BaseMesh = under(c.Data.Dir, c.Data.BaseMesh)
		c.Data.Targets = under(c.Data.Dir, c.Data.Targets)
		c.Data.Rig = under(c.Data.Dir, c.Data.Rig)
	}

	if c.Render.Supersample <= 0 {
		c.Render.Supersample = 1
	}
	if c.Render.Workers <= 0 {
		c.Render.Workers = runtime.NumCPU()
	}
	if c.Render.GenitalThreshold < 0 {
		c.Render.GenitalThreshold = 0
	}
	if len(c.Render.GenitalGroups) == 0 {
		c.Render.GenitalGroups = []string{mesh.GroupGenitals}
	}
}

func under(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// detectDataDir looks for a directory holding baseMesh next to the
// executable, in the working directory, or in a "data" child of either.
func detectDataDir(baseMesh string) string {
	var roots []string
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		roots = append(roots, dir, filepath.Dir(dir))
	}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd, filepath.Dir(cwd))
	}
	for _, r := range roots {
		for _, base := range []string{r, filepath.Join(r, "data")} {
			if _, err := os.Stat(filepath.Join(base, baseMesh)); err == nil {
				return base
			}
		}
	}
	return ""
}
