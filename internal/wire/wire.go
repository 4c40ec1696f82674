/*
Package wire assembles the bot's components from a configuration.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package wire

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/npillmayer/notobot"
	"github.com/npillmayer/notobot/blobcache"
	"github.com/npillmayer/notobot/comment"
	"github.com/npillmayer/notobot/config"
	"github.com/npillmayer/notobot/history"
	"github.com/npillmayer/notobot/raster"
	"github.com/npillmayer/notobot/shaping"
	"github.com/npillmayer/notobot/upload"
)

// SQLiteFile is the name of the cache database within cache.dir.
const SQLiteFile = "notobot-cache.db"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Source creates the history source of conf.History.Backend.
func Source(conf *config.Config) (history.Source, error) {
	switch conf.History.Backend {
	case "git":
		src, err := history.OpenRepo(conf.History.RepoPath)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "github":
		return history.NewGitHubSource(conf.GitHub.Owner, conf.GitHub.Repo, conf.GitHub.Token), nil
	}
	return nil, fmt.Errorf("unknown history backend %q", conf.History.Backend)
}

// Cache creates the blob cache of conf.Cache.Backend. The closer releases
// resources held by the cache.
func Cache(conf *config.Config) (blobcache.Cache, io.Closer, error) {
	switch conf.Cache.Backend {
	case "none":
		return blobcache.Nop{}, nopCloser{}, nil
	case "file":
		fc, err := blobcache.NewFileCache(conf.Cache.Dir, conf.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		return fc, nopCloser{}, nil
	case "sqlite":
		sc, err := blobcache.OpenSQLite(filepath.Join(conf.Cache.Dir, SQLiteFile), conf.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		return sc, sc, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", conf.Cache.Backend)
}

// Uploader creates the image uploader of conf.Upload.Backend.
func Uploader(conf *config.Config) (upload.Uploader, error) {
	switch conf.Upload.Backend {
	case "none":
		return upload.None{}, nil
	case "dir":
		if conf.Upload.Dir == "" {
			return nil, fmt.Errorf("upload.dir not configured")
		}
		return upload.Dir{Path: conf.Upload.Dir, BaseURL: conf.Upload.BaseURL}, nil
	case "cloudinary":
		up, err := upload.NewCloudinary(conf.Upload.CloudinaryURL, conf.Upload.Folder)
		if err != nil {
			return nil, err
		}
		return up, nil
	}
	return nil, fmt.Errorf("unknown upload backend %q", conf.Upload.Backend)
}

// Bot assembles a bot from its collaborators and the settings in conf.
func Bot(conf *config.Config, src history.Source, cache blobcache.Cache, up upload.Uploader) *notobot.Bot {
	return &notobot.Bot{
		Parser: comment.Parser{
			Mention:    conf.Bot.Mention,
			DefaultDir: conf.Bot.DefaultDir,
		},
		Enumerator: &history.Enumerator{
			Source:      src,
			Cache:       cache,
			Limit:       conf.History.Limit,
			Concurrency: conf.Pipeline.Concurrency,
		},
		Shaper: shaping.Shaper{Features: conf.Pipeline.Features},
		Rasterizer: raster.Rasterizer{
			MaxWidth:  conf.Raster.MaxWidth,
			MaxHeight: conf.Raster.MaxHeight,
			Scale:     conf.Raster.Scale,
		},
		Uploader: up,
	}
}
