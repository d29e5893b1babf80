package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/EV-Choropleth/internal/scale"
	"github.com/goccy/go-yaml"
)

// SourceType identifies where observations are read from.
type SourceType string

const (
	SourceCSV      SourceType = "csv"
	SourcePostgres SourceType = "postgres"
)

// DefaultGeoJSONURL is the world boundary collection used when GEOJSON_URL is unset.
const DefaultGeoJSONURL = "https://raw.githubusercontent.com/holtzy/D3-graph-gallery/master/DATA/world.geojson"

// DefaultTitle is drawn at the top of the map.
const DefaultTitle = "Global Food Insecurity Trends (1999–2028): A Population Perspective"

var (
	ErrMissingDatabaseURL = errors.New("config: DATABASE_URL is required for the postgres observation source")
	ErrYearRange          = errors.New("config: YEAR_MIN must not exceed YEAR_MAX")
	ErrDefaultYear        = errors.New("config: DEFAULT_YEAR is outside YEAR_MIN..YEAR_MAX")
	ErrUnknownSource      = errors.New("config: unknown OBSERVATION_SOURCE")
	ErrCanvas             = errors.New("config: canvas width and height must be positive")
	ErrRateLimit          = errors.New("config: RATE_LIMIT_BURST must be positive when RATE_LIMIT_RPS is set")
	ErrUnknownPalette     = errors.New("config: unknown PALETTE")
)

// Config holds everything the server and the CLI tools need.
type Config struct {
	Port string `yaml:"port"`

	// Boundary collection location (http(s) URL or file path)
	GeoJSONURL string `yaml:"geojson_url"`

	// Observation table location and kind
	ObservationSource SourceType `yaml:"observation_source"`
	DataCSV           string     `yaml:"data_csv"`
	DatabaseURL       string     `yaml:"database_url"`

	YearMin     int `yaml:"year_min"`
	YearMax     int `yaml:"year_max"`
	DefaultYear int `yaml:"default_year"`

	Palette     string `yaml:"palette"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Title       string `yaml:"title"`
	LegendTitle string `yaml:"legend_title"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	RedisAddr   string   `yaml:"redis_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:              "5050",
		GeoJSONURL:        DefaultGeoJSONURL,
		ObservationSource: SourceCSV,
		DataCSV:           "data_files/r_cleaned_data.csv",
		YearMin:           1999,
		YearMax:           2028,
		DefaultYear:       1999,
		Palette:           "YlOrRd",
		Width:             960,
		Height:            600,
		Title:             DefaultTitle,
		LegendTitle:       "Population",
		RateLimitRPS:      20,
		RateLimitBurst:    40,
		CORSOrigins: []string{
			"http://localhost:5173",
			"http://localhost:5050",
		},
		LogLevel: "info",
	}
}

// LoadFromEnv loads configuration from environment variables on top of Default.
// When CONFIG_FILE is set, the YAML file is applied first and the environment
// overrides it.
//
// Environment variables:
//   - PORT, GEOJSON_URL, DATA_CSV, OBSERVATION_SOURCE ("csv" or "postgres"), DATABASE_URL
//   - YEAR_MIN, YEAR_MAX, DEFAULT_YEAR
//   - PALETTE, TITLE, LEGEND_TITLE
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
//   - REDIS_ADDR, CORS_ORIGINS (comma separated), LOG_LEVEL
func LoadFromEnv() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	setString(&cfg.Port, "PORT")
	setString(&cfg.GeoJSONURL, "GEOJSON_URL")
	setString(&cfg.DataCSV, "DATA_CSV")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Palette, "PALETTE")
	setString(&cfg.Title, "TITLE")
	setString(&cfg.LegendTitle, "LEGEND_TITLE")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("OBSERVATION_SOURCE"))); v != "" {
		cfg.ObservationSource = SourceType(v)
	}
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	setInt(&cfg.YearMin, "YEAR_MIN")
	setInt(&cfg.YearMax, "YEAR_MAX")
	setInt(&cfg.DefaultYear, "DEFAULT_YEAR")
	setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST")
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}

	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, cfg)
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.ObservationSource {
	case SourceCSV:
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return ErrUnknownSource
	}
	if c.YearMin > c.YearMax {
		return ErrYearRange
	}
	if c.DefaultYear < c.YearMin || c.DefaultYear > c.YearMax {
		return ErrDefaultYear
	}
	if c.Width <= 0 || c.Height <= 0 {
		return ErrCanvas
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return ErrRateLimit
	}
	if _, ok := scale.PaletteByName(c.Palette); !ok {
		return ErrUnknownPalette
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	// ignore parse errors, keep the previous value
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
