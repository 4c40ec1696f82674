package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/notobot/history"
	"github.com/npillmayer/notobot/reply"
	"github.com/npillmayer/notobot/shaping"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl FONT | repl REPO FONTFILE",
	Short: "Shape text interactively",
	Long: `Starts an interactive session for shaping text with a font. Given a local
clone and a font file instead of a single font, all versions of the font in
the repository's history are loaded and may be compared.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runREPL,
}

func runREPL(cmd *cobra.Command, args []string) error {
	intp := &Intp{out: os.Stdout, shaper: shaping.Shaper{Features: conf.Pipeline.Features}}
	if len(args) == 1 {
		if err := intp.loadFont(args[0]); err != nil {
			return err
		}
	} else {
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
			return fmt.Errorf("no commits touch %s", path)
		}
		intp.versions = versions
		intp.current = 0
		intp.font = versions[0].Font
		intp.name = path
	}
	repl, err := readline.New("nb > ")
	if err != nil {
		return err
	}
	defer repl.Close()
	intp.repl = repl
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	intp.REPL()
	return nil
}

// Intp is our interpreter object
type Intp struct {
	repl     *readline.Instance
	out      io.Writer
	shaper   shaping.Shaper
	font     []byte
	name     string
	versions []history.Version // empty if loaded from a file
	current  int
	last     *shaping.Result
}

func (intp *Intp) String() string {
	if len(intp.versions) > 0 {
		return fmt.Sprintf("( %s @ %s )", intp.name, reply.ShortCommit(intp.versions[intp.current].Commit))
	}
	return fmt.Sprintf("( %s )", intp.name)
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := intp.execute(line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

func (intp *Intp) loadFont(path string) error {
	data, err := readFont(path)
	if err != nil {
		return err
	}
	intp.font, intp.name = data, path
	intp.versions, intp.current = nil, 0
	return nil
}

const (
	QUIT int = iota
	HELP
	SHAPE
	COMPARE
	FEATURES
	DIRECTION
	SCRIPT
	LANG
	FONT
	VERSIONS
	CHECKOUT
	PNG
)

var opMap = map[string]int{
	"quit":      QUIT,
	"help":      HELP,
	"shape":     SHAPE,
	"compare":   COMPARE,
	"features":  FEATURES,
	"direction": DIRECTION,
	"script":    SCRIPT,
	"lang":      LANG,
	"font":      FONT,
	"versions":  VERSIONS,
	"checkout":  CHECKOUT,
	"png":       PNG,
}

const helpText = `shape TEXT       shape TEXT (a line without command is shaped, too)
compare TEXT     shape TEXT with every loaded version
features LIST    set features, e.g. "-liga,+kern"; "-" resets
direction DIR    ltr|rtl|ttb|btt; "-" guesses from text
script TAG       ISO 15924 script; "-" guesses from text
lang TAG         BCP 47 language; "-" guesses from text
font PATH        load a font file
versions         list loaded versions
checkout N       shape with version N (see versions)
png FILE         render the last shaped text to FILE
quit             end the session`

// parseCommand splits a line into op-code and argument. Lines not starting
// with a command are text to shape.
func parseCommand(line string) (int, string) {
	word, arg, _ := strings.Cut(line, " ")
	code, ok := opMap[strings.ToLower(word)]
	if !ok {
		return SHAPE, line
	}
	return code, strings.TrimSpace(arg)
}

func resetArg(arg string) string {
	if arg == "-" {
		return ""
	}
	return arg
}

func (intp *Intp) execute(line string) (bool, error) {
	code, arg := parseCommand(line)
	switch code {
	case QUIT:
		return true, nil
	case HELP:
		fmt.Fprintln(intp.out, helpText)
	case SHAPE:
		res, err := intp.shaper.Shape(intp.font, arg)
		if err != nil {
			return false, err
		}
		intp.last = res
		fmt.Fprintln(intp.out, res.Log())
	case COMPARE:
		return false, intp.compare(arg)
	case FEATURES:
		features := splitCSVSpace(resetArg(arg))
		if _, err := shaping.ParseFeatures(features); err != nil {
			return false, err
		}
		intp.shaper.Features = features
	case DIRECTION:
		intp.shaper.Direction = resetArg(arg)
	case SCRIPT:
		intp.shaper.Script = resetArg(arg)
	case LANG:
		intp.shaper.Language = resetArg(arg)
	case FONT:
		return false, intp.loadFont(arg)
	case VERSIONS:
		for i, v := range intp.versions {
			fmt.Fprintf(intp.out, "%2d %s %d bytes\n", i, reply.ShortCommit(v.Commit), len(v.Font))
		}
	case CHECKOUT:
		var n int
		if _, err := fmt.Sscan(arg, &n); err != nil || n < 0 || n >= len(intp.versions) {
			return false, fmt.Errorf("no version %q", arg)
		}
		intp.current, intp.font = n, intp.versions[n].Font
	case PNG:
		if intp.last == nil {
			return false, errors.New("nothing shaped yet")
		}
		if arg == "" {
			return false, errors.New("missing file name")
		}
		return false, writePNG(intp.last, arg, 0)
	}
	return false, nil
}

// compare shapes text with every loaded version and marks logs differing
// from the one of the most recent version.
func (intp *Intp) compare(text string) error {
	if len(intp.versions) == 0 {
		return errors.New("no versions loaded")
	}
	var first string
	for i, v := range intp.versions {
		res, err := intp.shaper.Shape(v.Font, text)
		if err != nil {
			fmt.Fprintf(intp.out, "  %s shaping failed: %v\n", reply.ShortCommit(v.Commit), err)
			continue
		}
		mark := " "
		if i == 0 {
			first = res.Log()
		} else if res.Log() != first {
			mark = "*"
		}
		fmt.Fprintf(intp.out, "%s %s %s\n", mark, reply.ShortCommit(v.Commit), res.Log())
	}
	return nil
}
