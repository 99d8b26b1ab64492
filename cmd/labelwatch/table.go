package main

import (
	"fmt"

	"labelwatch/internal/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// configRow is one key of the configuration as shown by "config show"
type configRow struct {
	section string
	key     string
	value   string
	invalid bool
}

func configRows(cfg *config.Configuration) []configRow {
	var rows []configRow
	for _, section := range cfg.Sections() {
		for _, key := range cfg.Keys(section) {
			value, _ := cfg.Get(section, key)
			rows = append(rows, configRow{
				section: section,
				key:     key,
				value:   value,
				invalid: config.ValidateValue(key, value) != nil,
			})
		}
	}
	return rows
}

// renderConfigTable lists every key grouped by section. Keys whose value
// fails validation are flagged, since the built-in default applies to them.
func renderConfigTable(title string, cfg *config.Configuration) string {
	rows := configRows(cfg)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Section", "Key", "Value", ""})

	invalid := 0
	for _, r := range rows {
		flag := ""
		if r.invalid {
			flag = "default used"
			invalid++
		}
		tw.AppendRow(table.Row{r.section, r.key, r.value, flag})
	}

	footer := fmt.Sprintf("%d key(s)", len(rows))
	if invalid > 0 {
		footer = fmt.Sprintf("%d key(s), %d invalid", len(rows), invalid)
	}
	tw.AppendFooter(table.Row{"", "", footer, ""})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, VAlign: text.VAlignTop},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignLeft},
	})
	return tw.Render()
}
