package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	stemstrings "github.com/saturn597/stem/pkg/strings"
)

// KeyValueSource is anything with sorted keys and string values. *config.Store satisfies it.
type KeyValueSource interface {
	Keys() []string
	Get(key, def string) string
}

// ConfigTable renders the effective configuration as a table.
func (f Formatter) ConfigTable(src KeyValueSource) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		f.Format("KEY", text.Colors{text.FgHiCyan}),
		f.Format("VALUE", text.Colors{text.FgHiCyan}),
	})
	for _, key := range src.Keys() {
		t.AppendRow(table.Row{
			f.Format(key, text.Colors{text.FgHiCyan}),
			stemstrings.Truncate(src.Get(key, ""), stemstrings.DefaultValueMaxLen),
		})
	}
	return t.Render() + "\n"
}
