package store

import (
	"html"
	"strings"
)

// DataPlaceholder is replaced by the rendered table in page templates
const DataPlaceholder = "{data}"

// DefaultTemplate is used when no template file is available
const DefaultTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Table</title></head>
<body>
{data}
</body>
</html>
`

// HTML renders the table with one <th> per column and one <tr> per row
func (t *Table) HTML() string {
	var sb strings.Builder
	sb.WriteString(`<table style="width:100%" border=1px>`)
	for _, column := range t.Columns {
		sb.WriteString("<th>")
		sb.WriteString(html.EscapeString(column))
		sb.WriteString("</th>")
	}
	for _, row := range t.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>")
			sb.WriteString(html.EscapeString(cell))
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
	return sb.String()
}

// RenderPage substitutes the rendered table into every placeholder of template
func RenderPage(template string, t *Table) string {
	return strings.ReplaceAll(template, DataPlaceholder, t.HTML())
}
