// Package render prints pipeline output for a terminal.
package render

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Print writes text as a single-column bordered table headed by title.
// Line breaks in text are kept.
func Print(w io.Writer, title, text string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(false)
	table.SetHeader([]string{title})
	table.Append([]string{strings.TrimRight(text, "\n")})
	table.Render()
}
