package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/notobot/shaping"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"
)

func parseTraceLevel(s string) (tracing.TraceLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return tracing.LevelDebug, nil
	case "info":
		return tracing.LevelInfo, nil
	case "error", "":
		return tracing.LevelError, nil
	}
	return tracing.LevelError, fmt.Errorf("invalid trace level: %s", s)
}

// shaperFlags are the shaping parameters shared by several commands.
type shaperFlags struct {
	features  string
	direction string
	script    string
	lang      string
}

func (f *shaperFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.features, "features", "f", "", "feature list (e.g. liga=1,kern=0,+rlig,-calt)")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "direction: ltr|rtl|ttb|btt (guessed if empty)")
	cmd.Flags().StringVarP(&f.script, "script", "s", "", "script (ISO 15924, e.g. Latn, Arab, Deva)")
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "language tag (BCP 47, e.g. en, ar, hi)")
}

// shaper returns a shaper for the flags, falling back to the configured
// features if flag --features is not set.
func (f *shaperFlags) shaper(defaults []string) (shaping.Shaper, error) {
	features := defaults
	if f.features != "" {
		features = splitCSVSpace(f.features)
	}
	if _, err := shaping.ParseFeatures(features); err != nil {
		return shaping.Shaper{}, err
	}
	return shaping.Shaper{
		Features:  features,
		Direction: f.direction,
		Script:    f.script,
		Language:  f.lang,
	}, nil
}

// shapeInput returns the text to shape: either the text arguments, joined
// by spaces, or the runes listed in cp.
func shapeInput(args []string, cp string) (string, error) {
	if cp = strings.TrimSpace(cp); cp != "" {
		runes, err := parseCodepoints(cp)
		if err != nil {
			return "", err
		}
		return string(runes), nil
	}
	text := strings.Join(args, " ")
	if text == "" {
		return "", errors.New("no text to shape")
	}
	return text, nil
}

func parseCodepoints(spec string) ([]rune, error) {
	parts := splitCSVSpace(spec)
	out := make([]rune, 0, len(parts))
	for _, p := range parts {
		r, err := parseCodepointToken(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func parseCodepointToken(token string) (rune, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, errors.New("empty codepoint token")
	}
	hex := token
	switch {
	case strings.HasPrefix(hex, "U+"), strings.HasPrefix(hex, "u+"):
		hex = hex[2:]
	case strings.HasPrefix(hex, "0x"), strings.HasPrefix(hex, "0X"):
		hex = hex[2:]
	}
	u, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid codepoint %q: %w", token, err)
	}
	if u > 0x10ffff || (u >= 0xd800 && u <= 0xdfff) {
		return 0, fmt.Errorf("codepoint %q out of range", token)
	}
	return rune(u), nil
}

func splitCSVSpace(spec string) []string {
	return strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
