package main

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"github.com/npillmayer/notobot/raster"
	"github.com/npillmayer/notobot/shaping"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var shapeFlags struct {
	shaperFlags
	codepoints string
	png        string
	svg        string
	ppem       int
	glyphs     bool
}

var shapeCmd = &cobra.Command{
	Use:   "shape FONT [TEXT...]",
	Short: "Shape text with a font and print the glyph log",
	Long: `Shapes text with an OpenType font and prints the glyph run in hb-shape
notation. Optionally the glyph run is rendered to a PNG image, either the way
the bot does (SVG rendering, trimmed, on white) or, with --ppem, by
rasterizing the glyph outlines directly at the given size.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShape,
}

func init() {
	shapeFlags.register(shapeCmd)
	shapeCmd.Flags().StringVarP(&shapeFlags.codepoints, "codepoints", "c", "", "codepoints instead of text (e.g. U+0915,U+094D)")
	shapeCmd.Flags().StringVarP(&shapeFlags.png, "png", "o", "", "write rendered glyph run to PNG file")
	shapeCmd.Flags().StringVar(&shapeFlags.svg, "svg", "", "write SVG rendering to file")
	shapeCmd.Flags().IntVarP(&shapeFlags.ppem, "ppem", "p", 0, "rasterize outlines at pixels-per-em instead of rendering the SVG")
	shapeCmd.Flags().BoolVarP(&shapeFlags.glyphs, "glyphs", "g", false, "print a table of shaped glyphs")
}

func runShape(cmd *cobra.Command, args []string) error {
	data, err := readFont(args[0])
	if err != nil {
		return err
	}
	text, err := shapeInput(args[1:], shapeFlags.codepoints)
	if err != nil {
		return err
	}
	shaper, err := shapeFlags.shaper(conf.Pipeline.Features)
	if err != nil {
		return err
	}
	res, err := shaper.Shape(data, text)
	if err != nil {
		return err
	}
	fmt.Println(res.Log())
	if shapeFlags.glyphs {
		printGlyphTable(res)
	}
	if shapeFlags.svg != "" {
		if err := os.WriteFile(shapeFlags.svg, []byte(res.SVG()), 0o644); err != nil {
			return fmt.Errorf("cannot write SVG: %w", err)
		}
	}
	if shapeFlags.png != "" {
		if err := writePNG(res, shapeFlags.png, shapeFlags.ppem); err != nil {
			return err
		}
		pterm.Info.Printf("image written to %s\n", shapeFlags.png)
	}
	return nil
}

func writePNG(res *shaping.Result, path string, ppem int) error {
	if ppem > 0 {
		img := res.Rasterize(ppem)
		if img == nil {
			return fmt.Errorf("nothing to rasterize")
		}
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("cannot write image: %w", err)
		}
		return nil
	}
	r := raster.Rasterizer{
		MaxWidth:  conf.Raster.MaxWidth,
		MaxHeight: conf.Raster.MaxHeight,
		Scale:     conf.Raster.Scale,
	}
	png, err := r.RenderPNG(res.SVG())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("cannot write image: %w", err)
	}
	return nil
}

func printGlyphTable(res *shaping.Result) {
	rows := pterm.TableData{{"#", "glyph", "gid", "cluster", "x-adv", "y-adv", "x-off", "y-off"}}
	for i, g := range res.Glyphs {
		rows = append(rows, []string{
			fmt.Sprint(i), g.Label(), fmt.Sprint(g.GID), fmt.Sprint(g.Cluster),
			fmt.Sprint(g.XAdvance), fmt.Sprint(g.YAdvance), fmt.Sprint(g.XOffset), fmt.Sprint(g.YOffset),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
