package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/notobot/fontquery"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var fontNames bool

var fontCmd = &cobra.Command{
	Use:   "font FONT",
	Short: "Print metadata of a font",
	Args:  cobra.ExactArgs(1),
	RunE:  runFont,
}

func init() {
	fontCmd.Flags().BoolVarP(&fontNames, "names", "n", false, "print all entries of the name table")
}

func runFont(cmd *cobra.Command, args []string) error {
	data, err := readFont(args[0])
	if err != nil {
		return err
	}
	tables, err := fontquery.ReadTables(data)
	if err != nil {
		return err
	}
	names, err := fontquery.NameInfo(data)
	if err != nil {
		return err
	}
	version, err := fontquery.Version(data)
	if err != nil {
		return err
	}
	fmt.Printf("Path: %s\n", args[0])
	for _, key := range []string{"family", "subfamily", "fullname"} {
		if v := names[key]; v != "" {
			fmt.Printf("%s: %s\n", strings.ToUpper(key[:1])+key[1:], v)
		}
	}
	fmt.Printf("Version: %s (%s)\n", version, names["version"])
	if head, ok := tables.HeadInfo(); ok {
		fmt.Printf("Revision: %.3f\n", head.Revision())
		fmt.Printf("Units per em: %d\n", head.UnitsPerEm)
		fmt.Printf("Created: %s\n", head.Created.Format("2006-01-02"))
		fmt.Printf("Modified: %s\n", head.Modified.Format("2006-01-02"))
	}
	tags := tables.Tags()
	fmt.Printf("Tables (%d): %s\n", len(tags), strings.Join(tags, " "))
	if fontNames {
		rows := pterm.TableData{{"ID", "name"}}
		for id, s := range tables.Names() {
			rows = append(rows, []string{fmt.Sprint(uint16(id)), s})
		}
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}
	return nil
}
