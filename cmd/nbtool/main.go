/*
Command nbtool is a developer tool for the regression-test bot.

It runs the stages of the bot's pipeline from the command line: shaping
text with a font file, printing font metadata, listing the history of a
font in a local clone of a font repository and running a complete
regression test against such a clone. Command repl starts an interactive
session for shaping text with a font repeatedly.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/npillmayer/notobot/config"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// tracer traces with key 'notobot.tool'
func tracer() tracing.Trace {
	return tracing.Select("notobot.tool")
}

var (
	configFile string
	traceLevel string
	conf       *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "nbtool",
	Short:         "Shape, inspect and regression-test fonts",
	Long:          `Runs the stages of the notobot regression-test pipeline from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, kconf, err := config.Load(configFile)
		if err != nil {
			return err
		}
		conf = c
		if err := config.SetupTracing(kconf); err != nil {
			return err
		}
		level, err := parseTraceLevel(traceLevel)
		if err != nil {
			return err
		}
		for _, key := range tracedPackages {
			tracing.Select(key).SetTraceLevel(level)
		}
		return nil
	},
}

// tracedPackages are the trace keys set by flag --trace.
var tracedPackages = []string{
	"notobot.tool", "notobot.pipeline", "notobot.history", "notobot.shaper",
	"notobot.raster", "notobot.upload", "notobot.cache", "notobot.fonts",
	"notobot.comment",
}

func main() {
	initDisplay()
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "C", "", "configuration file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&traceLevel, "trace", "T", "Error", "trace level [Debug|Info|Error]")
	rootCmd.AddCommand(shapeCmd, fontCmd, historyCmd, regressCmd, replCmd)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func readFont(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read font: %w", err)
	}
	return data, nil
}
