package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/lexiqai/pdf-narrator/cmd/narrator/ui"
	"github.com/lexiqai/pdf-narrator/internal/document"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <input.pdf>",
	Short: "Show page count and metadata of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	extractor := document.NewExtractor(cfg.PageSeparator)

	info, err := extractor.Inspect(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	ui.Section(info.Path)
	ui.KeyValue("Pages", info.Pages)
	if info.Title != "" {
		ui.KeyValue("Title", info.Title)
	}
	if info.Author != "" {
		ui.KeyValue("Author", info.Author)
	}
	if info.Format != "" {
		ui.KeyValue("Format", info.Format)
	}

	if ui.Verbose() {
		keys := make([]string, 0, len(info.Meta))
		for k := range info.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if info.Meta[k] != "" {
				ui.KeyValue(k, info.Meta[k])
			}
		}
	}
	return nil
}
