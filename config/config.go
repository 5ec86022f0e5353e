package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// overlay mirrors the package-level defaults; only fields present in the
// YAML file override them.
type overlay struct {
	Server   *ServerConfig   `yaml:"server"`
	Database *DatabaseConfig `yaml:"database"`
	Upstream *UpstreamConfig `yaml:"upstream"`
	Rating   *RatingConfig   `yaml:"rating"`
}

// Load applies an optional YAML config file on top of the compiled-in
// defaults, then environment overrides. An empty path skips the file.
func Load(path string) error {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
		// Unmarshal over copies of the current values so fields absent
		// from the file keep their defaults.
		server, database, upstream, rating := Server, Database, Upstream, Rating
		o := overlay{
			Server:   &server,
			Database: &database,
			Upstream: &upstream,
			Rating:   &rating,
		}
		if err := yaml.Unmarshal(raw, &o); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
		Server, Database, Upstream, Rating = server, database, upstream, rating
	}

	if dsn := os.Getenv("REGISTRY_DB_DSN"); dsn != "" {
		Database.DSN = dsn
	}
	if secret := os.Getenv("REGISTRY_AUTH_SECRET"); secret != "" {
		Server.AuthSecret = secret
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		Upstream.GitHubToken = token
	}
	return nil
}
