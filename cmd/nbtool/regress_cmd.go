package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/notobot"
	"github.com/npillmayer/notobot/comment"
	"github.com/npillmayer/notobot/internal/wire"
	"github.com/npillmayer/notobot/upload"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var regressFlags struct {
	shaperFlags
	images string
}

var regressCmd = &cobra.Command{
	Use:   "regress REPO FONTFILE TEXT...",
	Short: "Run a regression test against a local git repository",
	Long: `Runs the complete regression-test pipeline for a font file of a local
clone and prints the reply the bot would post. Images are written to the
directory given by --images, or uploaded as configured if the flag is not
set.`,
	Example: `  nbtool regress ~/noto-fonts NotoSansDevanagari-Regular.ttf क्षि`,
	Args:    cobra.MinimumNArgs(3),
	RunE:    runRegress,
}

func init() {
	regressFlags.register(regressCmd)
	regressCmd.Flags().StringVarP(&regressFlags.images, "images", "i", "", "write images to this directory")
}

func runRegress(cmd *cobra.Command, args []string) error {
	enum, closer, err := localEnumerator(args[0])
	if err != nil {
		return err
	}
	defer closer()
	shaper, err := regressFlags.shaper(conf.Pipeline.Features)
	if err != nil {
		return err
	}
	var up upload.Uploader = upload.Dir{Path: regressFlags.images}
	if regressFlags.images == "" {
		if up, err = wire.Uploader(conf); err != nil {
			return err
		}
	}
	bot := wire.Bot(conf, enum.Source, enum.Cache, up)
	bot.Shaper = shaper
	req := comment.Request{
		Text: strings.Join(args[2:], " "),
		File: parser().NormalizePath(args[1]),
	}
	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("regression test %q with %s", req.Text, req.File))
	results, err := bot.Run(cmd.Context(), req)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("%d versions", len(results)))
	md, ok := notobot.Compose(req, results)
	if !ok {
		pterm.Info.Printf("no commits touch %s\n", req.File)
		return nil
	}
	for _, r := range results {
		if r.ImageErr != nil {
			pterm.Warning.Printf("no image for %s: %v\n", r.Commit, r.ImageErr)
		}
	}
	fmt.Print(md)
	return nil
}

func parser() comment.Parser {
	return comment.Parser{Mention: conf.Bot.Mention, DefaultDir: conf.Bot.DefaultDir}
}
