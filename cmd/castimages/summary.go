package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/shpitdev/cast-image-enricher/internal/app"
)

func renderSummary(output string, s app.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(output)
	tw.AppendHeader(table.Row{"Names", "Found", "Not found", "Failed", "Duration"})
	tw.AppendRow(table.Row{
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Found),
		strconv.Itoa(s.NotFound),
		strconv.Itoa(s.Failed),
		s.Duration.String(),
	})

	configs := make([]table.ColumnConfig, 0, 5)
	for i := 1; i <= 5; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
