package main

import (
	"fmt"

	"github.com/npillmayer/notobot/fontquery"
	"github.com/npillmayer/notobot/history"
	"github.com/npillmayer/notobot/internal/wire"
	"github.com/npillmayer/notobot/reply"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history REPO PATH",
	Short: "List the versions of a font in a local git repository",
	Long: `Lists the most recent commits of a local clone which touched a font file,
together with the font's version string at each commit. PATH is taken
relative to the repository root; bare file names are looked up in the
configured default directory (bot.default_dir).`,
	Args: cobra.ExactArgs(2),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	enum, closer, err := localEnumerator(args[0])
	if err != nil {
		return err
	}
	defer closer()
	path := parser().NormalizePath(args[1])
	versions, err := enum.Versions(cmd.Context(), path, "")
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		pterm.Info.Printf("no commits touch %s\n", path)
		return nil
	}
	rows := pterm.TableData{{"commit", "version", "size"}}
	for _, v := range versions {
		version, err := fontquery.Version(v.Font)
		if err != nil {
			version = "?"
		}
		rows = append(rows, []string{reply.ShortCommit(v.Commit), version, fmt.Sprint(len(v.Font))})
	}
	pterm.Info.Printf("%d versions of %s\n", len(versions), path)
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// localEnumerator creates an enumerator for a local clone, using the
// configured cache.
func localEnumerator(repo string) (*history.Enumerator, func(), error) {
	src, err := history.OpenRepo(repo)
	if err != nil {
		return nil, nil, err
	}
	cache, closer, err := wire.Cache(conf)
	if err != nil {
		return nil, nil, err
	}
	enum := &history.Enumerator{
		Source:      src,
		Cache:       cache,
		Limit:       conf.History.Limit,
		Concurrency: conf.Pipeline.Concurrency,
	}
	return enum, func() {
		if err := closer.Close(); err != nil {
			tracer().Errorf("closing cache: %v", err)
		}
	}, nil
}
