package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.config")
	defer teardown()
	//
	conf, kconf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "googlefonts", conf.GitHub.Owner)
	assert.Equal(t, "noto-fonts", conf.GitHub.Repo)
	assert.Equal(t, "@notobot", conf.Bot.Mention)
	assert.Equal(t, "unhinted/ttf/", conf.Bot.DefaultDir)
	assert.Equal(t, 10, conf.History.Limit)
	assert.Equal(t, 600, conf.Raster.MaxWidth)
	assert.Equal(t, 400, conf.Raster.MaxHeight)
	assert.Equal(t, time.Hour, conf.Cache.PruneInterval)
	assert.Equal(t, 5*time.Minute, conf.Pipeline.Timeout)
	assert.Equal(t, "go", kconf.GetString("tracing.adapter"))
}

func TestEnvironment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.config")
	defer teardown()
	//
	t.Setenv("GH_SECRET", "s3cret")
	t.Setenv("GH_AUTH", "token-1")
	t.Setenv("PORT", "9090")
	t.Setenv("NOTOBOT_CACHE__TTL", "72h")
	t.Setenv("NOTOBOT_GITHUB__TOKEN", "token-2")
	t.Setenv("NOTOBOT_PIPELINE__FEATURES", "-liga, +kern")
	conf, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", conf.GitHub.Secret)
	assert.Equal(t, "token-2", conf.GitHub.Token, "prefixed variables override legacy ones")
	assert.Equal(t, 9090, conf.Server.Port)
	assert.Equal(t, 72*time.Hour, conf.Cache.TTL)
	assert.Equal(t, []string{"-liga", "+kern"}, conf.Pipeline.Features)
}

func TestFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.config")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "notobot.yaml")
	yml := `
history:
  backend: git
  repo_path: /srv/noto-fonts
cache:
  backend: sqlite
upload:
  backend: dir
  dir: /srv/images
pipeline:
  features: [ss01, "-liga"]
trace:
  notobot:
    history: Debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	conf, kconf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "git", conf.History.Backend)
	assert.Equal(t, "/srv/noto-fonts", conf.History.RepoPath)
	assert.Equal(t, "sqlite", conf.Cache.Backend)
	assert.Equal(t, "/srv/images", conf.Upload.Dir)
	assert.Equal(t, []string{"ss01", "-liga"}, conf.Pipeline.Features)
	assert.Equal(t, "Debug", kconf.GetString("trace.notobot.history"))
	tracing.Select("notobot.config").Infof("configuration loaded from %s", path)
}

func TestValidate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.config")
	defer teardown()
	//
	t.Setenv("NOTOBOT_HISTORY__BACKEND", "git")
	_, _, err := Load("")
	assert.Error(t, err, "git backend without repo path")
	t.Setenv("NOTOBOT_HISTORY__BACKEND", "svn")
	_, _, err = Load("")
	assert.Error(t, err)
	t.Setenv("NOTOBOT_HISTORY__BACKEND", "github")
	t.Setenv("NOTOBOT_UPLOAD__BACKEND", "ftp")
	_, _, err = Load("")
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
