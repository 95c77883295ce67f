// Package config holds the pipeline configuration. Everything the run needs
// is passed in explicitly; there is no ambient endpoint or output directory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// The default Overpass query selects Swiss municipality boundary relations
// carrying the federal register number.
const defaultQuery = `
[out:json][timeout:300];
area["ISO3166-1"="CH"][admin_level=2]->.country;
(
    relation["boundary"="administrative"]["admin_level"="8"]["swisstopo:BFS_NUMMER"](area.country);
);
out geom;
`

// Reference describes the authoritative dataset.
type Reference struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"` // "shapefile" or "geojson"
	IDField   string `yaml:"id_field"`
	NameField string `yaml:"name_field"`
}

// Comparison describes the community dataset. When Path is set the dataset
// is read from a local GeoJSON file instead of the Overpass API.
type Comparison struct {
	Path            string `yaml:"path"`
	OverpassURL     string `yaml:"overpass_url"`
	Query           string `yaml:"query"`
	Retries         int    `yaml:"retries"`
	RetryDelaySec   int    `yaml:"retry_delay_seconds"`
	TimeoutSec      int    `yaml:"timeout_seconds"`
	IDTag           string `yaml:"id_tag"`
	NameTag         string `yaml:"name_tag"`
}

// Config is the full pipeline configuration.
type Config struct {
	Reference  Reference  `yaml:"reference"`
	Comparison Comparison `yaml:"comparison"`
	OutputDir  string     `yaml:"output_dir"`
	HistoryDir string     `yaml:"history_dir"`
	Workers    int        `yaml:"workers"`
}

// Default returns the configuration the tool ships with.
func Default() *Config {
	return &Config{
		Reference: Reference{
			Format:    "shapefile",
			IDField:   "bfs_nummer",
			NameField: "name",
		},
		Comparison: Comparison{
			OverpassURL:   "http://overpass.osm.ch/api/interpreter",
			Query:         defaultQuery,
			Retries:       3,
			RetryDelaySec: 30,
			TimeoutSec:    400,
			IDTag:         "swisstopo:BFS_NUMMER",
			NameTag:       "name",
		},
		OutputDir:  "reports",
		HistoryDir: "history",
	}
}

// Load reads a YAML configuration file over the defaults and then applies
// environment overrides. A missing file is not an error; the defaults plus
// environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OVERPASS_URL"); v != "" {
		c.Comparison.OverpassURL = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("HISTORY_DIR"); v != "" {
		c.HistoryDir = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func (c *Config) validate() error {
	if c.Reference.Path == "" {
		return fmt.Errorf("reference.path is required")
	}
	switch c.Reference.Format {
	case "shapefile", "geojson":
	default:
		return fmt.Errorf("reference.format must be \"shapefile\" or \"geojson\", got %q", c.Reference.Format)
	}
	if c.Reference.IDField == "" {
		return fmt.Errorf("reference.id_field is required")
	}
	if c.Comparison.Path == "" && c.Comparison.IDTag == "" {
		return fmt.Errorf("comparison.id_tag is required for overpass fetches")
	}
	return nil
}

// RetryDelay returns the configured delay between fetch attempts.
func (c *Comparison) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySec) * time.Second
}

// Timeout returns the configured HTTP timeout for the Overpass request.
func (c *Comparison) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
