package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential is one GitHub API identity used by the credential pool.
type Credential struct {
	ID    string `yaml:"id"`
	Token string `yaml:"token"`
}

// FileConfig is the on-disk YAML configuration shape for leakwatch. Optional
// scalars are pointers so "unset" is distinguishable from a zero value;
// defaults are applied by the getter methods.
type FileConfig struct {
	GitHub struct {
		Credentials []Credential `yaml:"credentials"`
	} `yaml:"github"`

	Scan struct {
		// Pages is the page budget per query; per-page size is 1000/Pages.
		Pages       *int    `yaml:"pages"`
		Workers     *int    `yaml:"workers"`
		PageTimeout *string `yaml:"page_timeout"`
	} `yaml:"scan"`

	Exclude struct {
		// Repositories holds glob patterns matched against "repo/path".
		Repositories []string `yaml:"repositories"`
		// Contents holds regular expressions matched against extracted text.
		Contents []string `yaml:"contents"`
	} `yaml:"exclude"`

	Mail struct {
		IgnoreHosts  []string `yaml:"ignore_hosts"`
		ProbeTimeout *string  `yaml:"probe_timeout"`
	} `yaml:"mail"`

	Storage struct {
		Dir *string `yaml:"dir"`
	} `yaml:"storage"`

	RulesPath *string `yaml:"rules"`
}

const (
	defaultPages        = 10
	defaultPageTimeout  = 30 * time.Second
	defaultProbeTimeout = 4 * time.Second
)

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Dir returns the leakwatch config directory under XDG base directory or
// ~/.config.
func Dir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "leakwatch")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "leakwatch")
}

// Load reads the config from path when given, otherwise from config.yml in
// the default config directory.
func Load(path string) (FileConfig, error) {
	if path != "" {
		return LoadFile(path)
	}
	dir := Dir()
	if dir == "" {
		return FileConfig{}, errors.New("no config dir")
	}
	for _, name := range []string{"config.yml", "config.yaml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, errors.New("no config file found")
}

// Pages returns the configured page budget, defaulting to 10.
func (c FileConfig) Pages() int {
	if c.Scan.Pages != nil && *c.Scan.Pages > 0 {
		return *c.Scan.Pages
	}
	return defaultPages
}

// Workers returns the configured worker bound; 0 means "decide at runtime".
func (c FileConfig) Workers() int {
	if c.Scan.Workers != nil && *c.Scan.Workers > 0 {
		return *c.Scan.Workers
	}
	return 0
}

// PageTimeout returns the per-page fetch timeout, defaulting to 30s.
func (c FileConfig) PageTimeout() time.Duration {
	return parseDuration(c.Scan.PageTimeout, defaultPageTimeout)
}

// ProbeTimeout returns the mail-host probe timeout, defaulting to 4s.
func (c FileConfig) ProbeTimeout() time.Duration {
	return parseDuration(c.Mail.ProbeTimeout, defaultProbeTimeout)
}

// StateDir returns where the database and run logs live, defaulting to the
// config directory.
func (c FileConfig) StateDir() string {
	if c.Storage.Dir != nil && *c.Storage.Dir != "" {
		return *c.Storage.Dir
	}
	return Dir()
}

// Rules returns the rules file path, defaulting to rules.yml next to the
// config file.
func (c FileConfig) Rules() string {
	if c.RulesPath != nil && *c.RulesPath != "" {
		return *c.RulesPath
	}
	return filepath.Join(Dir(), "rules.yml")
}

func parseDuration(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
