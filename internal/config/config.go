package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Game struct {
		MaxPlayers        int    `yaml:"maxPlayers"`
		RoundDuration     string `yaml:"roundDuration"`
		PointsPerCorrect  int    `yaml:"pointsPerCorrect"`
		QuestionCount     int    `yaml:"questionCount"`
		CodeLength        int    `yaml:"codeLength"`
		GenerationTimeout string `yaml:"generationTimeout"`
	} `yaml:"game"`
	Generator struct {
		// Source is "llm" (default), "bank" for the Postgres question bank, or "static".
		Source      string  `yaml:"source"`
		URL         string  `yaml:"url"`
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"apiKey"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"maxTokens"`
		CacheTTL    string  `yaml:"cacheTTL"`
		Fallback    bool    `yaml:"fallback"`
	} `yaml:"generator"`
	Mirror struct {
		Buffer  int    `yaml:"buffer"`
		Timeout string `yaml:"timeout"`
	} `yaml:"mirror"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path. A missing file yields the zero config so the
// service runs on defaults; environment overrides are applied either way.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("GROQ_API_KEY"); key != "" && cfg.Generator.APIKey == "" {
		cfg.Generator.APIKey = key
	}
	if url := os.Getenv("REDIS_ADDR"); url != "" {
		cfg.Redis.Addr = url
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Postgres.URL = url
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// IntOr returns v, or fallback when v is not positive.
func IntOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
