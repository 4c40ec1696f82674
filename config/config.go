/*
Package config loads the configuration of the bot.

Configuration values are layered: built-in defaults, an optional YAML file,
the environment variables of the original deployment (GH_SECRET, GH_AUTH,
PORT, CLOUDINARY_URL) and finally environment variables with prefix
NOTOBOT_, where a double underscore separates key levels:

	NOTOBOT_GITHUB__TOKEN=…     → github.token
	NOTOBOT_CACHE__TTL=72h      → cache.ttl
	NOTOBOT_TRACE__NOTOBOT__WEBHOOK=Debug → trace.notobot.webhook

Values are handed to components as a typed [Config]. The underlying
key-value store is also available as a schuko configuration, which is what
tracing is configured from (see [SetupTracing]).

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/npillmayer/schuko/schukonf/koanfadapter"
)

// EnvPrefix is the prefix of environment variables considered for configuration.
const EnvPrefix = "NOTOBOT_"

// GitHub configures access to the font repository and to the webhook.
type GitHub struct {
	Secret string // webhook secret
	Token  string // API token
	Owner  string
	Repo   string
	Login  string // the bot's own login, comments by it are ignored
}

// Server configures the HTTP endpoint.
type Server struct {
	Port int
}

// Bot configures request recognition.
type Bot struct {
	Mention    string
	DefaultDir string
}

// History configures where font history is read from.
type History struct {
	Backend  string // "github" or "git"
	RepoPath string // local clone for backend "git"
	Limit    int
}

// Cache configures the blob cache.
type Cache struct {
	Backend       string // "file", "sqlite" or "none"
	Dir           string
	TTL           time.Duration
	PruneInterval time.Duration
}

// Upload configures the image host.
type Upload struct {
	Backend       string // "cloudinary", "dir" or "none"
	CloudinaryURL string
	Folder        string
	Dir           string
	BaseURL       string
}

// Raster configures image rendering.
type Raster struct {
	MaxWidth  int
	MaxHeight int
	Scale     float64
}

// Pipeline configures request processing.
type Pipeline struct {
	Concurrency int
	Timeout     time.Duration
	Features    []string
}

// Config is the complete configuration.
type Config struct {
	GitHub   GitHub
	Server   Server
	Bot      Bot
	History  History
	Cache    Cache
	Upload   Upload
	Raster   Raster
	Pipeline Pipeline
}

// Defaults are the built-in configuration values.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"github.owner":          "googlefonts",
		"github.repo":           "noto-fonts",
		"github.login":          "notobot",
		"server.port":           8080,
		"bot.mention":           "@notobot",
		"bot.default_dir":       "unhinted/ttf/",
		"history.backend":       "github",
		"history.limit":         10,
		"cache.backend":         "file",
		"cache.dir":             "/tmp",
		"cache.ttl":             "0s",
		"cache.prune_interval":  "1h",
		"upload.backend":        "cloudinary",
		"upload.folder":         "notobot",
		"raster.max_width":      600,
		"raster.max_height":     400,
		"raster.scale":          1.0,
		"pipeline.concurrency":  2,
		"pipeline.timeout":      "5m",
		"tracing.adapter":       "go",
		"trace.root":            "Info",
		"trace.notobot.webhook": "Info",
	}
}

// legacyEnv maps environment variables of the original deployment to keys.
var legacyEnv = map[string]string{
	"GH_SECRET":      "github.secret",
	"GH_AUTH":        "github.token",
	"PORT":           "server.port",
	"CLOUDINARY_URL": "upload.cloudinary_url",
}

// Load reads the configuration. configFile may be empty.
func Load(configFile string) (*Config, *koanfadapter.KConf, error) {
	ko := koanf.New(".")
	if err := ko.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, nil, fmt.Errorf("loading defaults: %w", err)
	}
	if configFile != "" {
		if err := ko.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, nil, fmt.Errorf("loading configuration file %s: %w", configFile, err)
		}
	}
	legacy := env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	})
	if err := ko.Load(legacy, nil); err != nil {
		return nil, nil, fmt.Errorf("loading environment: %w", err)
	}
	prefixed := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := ko.Load(prefixed, nil); err != nil {
		return nil, nil, fmt.Errorf("loading environment: %w", err)
	}
	conf := FromKoanf(ko)
	if err := conf.Validate(); err != nil {
		return nil, nil, err
	}
	return conf, koanfadapter.New(ko, "", nil), nil
}

// FromKoanf extracts a typed configuration from a koanf store.
func FromKoanf(ko *koanf.Koanf) *Config {
	return &Config{
		GitHub: GitHub{
			Secret: ko.String("github.secret"),
			Token:  ko.String("github.token"),
			Owner:  ko.String("github.owner"),
			Repo:   ko.String("github.repo"),
			Login:  ko.String("github.login"),
		},
		Server: Server{Port: ko.Int("server.port")},
		Bot: Bot{
			Mention:    ko.String("bot.mention"),
			DefaultDir: ko.String("bot.default_dir"),
		},
		History: History{
			Backend:  strings.ToLower(ko.String("history.backend")),
			RepoPath: ko.String("history.repo_path"),
			Limit:    ko.Int("history.limit"),
		},
		Cache: Cache{
			Backend:       strings.ToLower(ko.String("cache.backend")),
			Dir:           ko.String("cache.dir"),
			TTL:           ko.Duration("cache.ttl"),
			PruneInterval: ko.Duration("cache.prune_interval"),
		},
		Upload: Upload{
			Backend:       strings.ToLower(ko.String("upload.backend")),
			CloudinaryURL: ko.String("upload.cloudinary_url"),
			Folder:        ko.String("upload.folder"),
			Dir:           ko.String("upload.dir"),
			BaseURL:       ko.String("upload.base_url"),
		},
		Raster: Raster{
			MaxWidth:  ko.Int("raster.max_width"),
			MaxHeight: ko.Int("raster.max_height"),
			Scale:     ko.Float64("raster.scale"),
		},
		Pipeline: Pipeline{
			Concurrency: ko.Int("pipeline.concurrency"),
			Timeout:     ko.Duration("pipeline.timeout"),
			Features:    stringList(ko, "pipeline.features"),
		},
	}
}

// stringList reads a list value, accepting a comma separated string as well.
func stringList(ko *koanf.Koanf, key string) []string {
	if l := ko.Strings(key); len(l) > 0 {
		return l
	}
	var out []string
	for _, s := range strings.Split(ko.String(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks for inconsistent settings.
func (c *Config) Validate() error {
	switch c.History.Backend {
	case "github":
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return fmt.Errorf("configuration: github.owner and github.repo are required")
		}
	case "git":
		if c.History.RepoPath == "" {
			return fmt.Errorf("configuration: history.repo_path is required for history backend git")
		}
	default:
		return fmt.Errorf("configuration: unknown history backend %q", c.History.Backend)
	}
	switch c.Cache.Backend {
	case "file", "sqlite", "none":
	default:
		return fmt.Errorf("configuration: unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Upload.Backend {
	case "cloudinary", "dir", "none":
	default:
		return fmt.Errorf("configuration: unknown upload backend %q", c.Upload.Backend)
	}
	if c.History.Limit < 0 || c.Pipeline.Concurrency < 0 {
		return fmt.Errorf("configuration: limits must not be negative")
	}
	return nil
}
