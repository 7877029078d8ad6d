package output

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	stemstrings "github.com/saturn597/stem/pkg/strings"
)

// DividerWidth is the width of section dividers.
const DividerWidth = 70

var divider = strings.Repeat("=", DividerWidth)

// Color sets used by the report.
var (
	HeaderColors   = text.Colors{text.FgCyan, text.Bold}
	CategoryColors = text.Colors{text.FgGreen, text.Bold}
	StatusColors   = text.Colors{text.FgBlue, text.Bold}
	LogColors      = text.Colors{text.FgMagenta}
	FailureColors  = text.Colors{text.FgRed, text.Bold}
	SuccessColors  = text.Colors{text.FgGreen, text.Bold}
	WarningColors  = text.Colors{text.FgYellow, text.Bold}
)

var lineColors = map[LineKind]text.Colors{
	LinePass: {text.FgGreen},
	LineFail: {text.FgRed, text.Bold},
	LineSkip: {text.FgBlue},
}

// Formatter applies terminal colors unless disabled.
type Formatter struct {
	enabled bool
}

// NewFormatter returns a formatter. With color false every method returns its input.
func NewFormatter(color bool) Formatter {
	return Formatter{enabled: color}
}

// Enabled reports whether colors are applied.
func (f Formatter) Enabled() bool {
	return f.enabled
}

// Format wraps msg in the given colors.
func (f Formatter) Format(msg string, colors text.Colors) string {
	if !f.enabled || len(colors) == 0 || msg == "" {
		return msg
	}
	return colors.Sprint(msg)
}

// Divider renders msg centered between two rules. Headers are cyan, group
// dividers green.
func (f Formatter) Divider(msg string, header bool) string {
	colors := CategoryColors
	if header {
		colors = HeaderColors
	}
	block := divider + "\n" + stemstrings.Center(msg, DividerWidth) + "\n" + divider
	return f.Format(block, colors) + "\n"
}
