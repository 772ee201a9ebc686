package main

import "github.com/caarlos0/env/v11"

// Config is loaded from the environment. PORT keeps its historical name;
// the rest use the BW_ prefix.
type Config struct {
	Port           string   `env:"PORT" envDefault:"3000"`
	DBPath         string   `env:"BW_DB" envDefault:"bomberworld.db"`
	PublicURL      string   `env:"BW_PUBLIC_URL" envDefault:"http://localhost:3000"`
	AllowedOrigins []string `env:"BW_ORIGINS" envSeparator:","`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
