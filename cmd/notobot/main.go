/*
Command notobot runs the regression-test bot as a GitHub webhook endpoint.

Configuration is read from an optional YAML file (flag -config) and from the
environment, see package config.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/npillmayer/notobot/blobcache"
	"github.com/npillmayer/notobot/config"
	"github.com/npillmayer/notobot/internal/wire"
	"github.com/npillmayer/notobot/webhook"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'notobot.server'
func tracer() tracing.Trace {
	return tracing.Select("notobot.server")
}

func main() {
	configFile := flag.String("config", "", "configuration file (YAML)")
	flag.Parse()
	conf, kconf, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "notobot: %v\n", err)
		os.Exit(1)
	}
	if err := config.SetupTracing(kconf); err != nil {
		fmt.Fprintf(os.Stderr, "notobot: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, conf); err != nil {
		tracer().Errorf(err.Error())
		os.Exit(2)
	}
}

func run(ctx context.Context, conf *config.Config) error {
	if conf.GitHub.Secret == "" {
		tracer().Errorf("no webhook secret configured, accepting unsigned deliveries")
	}
	src, err := wire.Source(conf)
	if err != nil {
		return err
	}
	cache, closer, err := wire.Cache(conf)
	if err != nil {
		return err
	}
	defer closer.Close()
	up, err := wire.Uploader(conf)
	if err != nil {
		return err
	}
	go pruneCache(ctx, cache, conf.Cache.PruneInterval)
	//
	bot := wire.Bot(conf, src, cache, up)
	hook := webhook.NewServer(conf.GitHub.Secret)
	hook.Timeout = conf.Pipeline.Timeout
	comments := &webhook.IssueComments{
		Answerer: bot,
		Poster:   webhook.NewGitHubPoster(conf.GitHub.Token),
		Login:    conf.GitHub.Login,
	}
	comments.Register(&hook.Router)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Server.Port),
		Handler:           hook,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		tracer().Infof("listening on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	tracer().Infof("shutting down")
	shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		tracer().Errorf("stopping HTTP server: %v", err)
	}
	return hook.Shutdown(shutdown)
}

// pruneCache removes expired cache entries now and then every interval.
func pruneCache(ctx context.Context, cache blobcache.Cache, interval time.Duration) {
	prune := func() {
		n, err := cache.Prune()
		if err != nil {
			tracer().Errorf("pruning cache: %v", err)
			return
		}
		if n > 0 {
			tracer().Infof("pruned %d cache entries", n)
		}
	}
	prune()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
