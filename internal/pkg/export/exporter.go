// Package export renders analysed rows as CSV files and plain-text summaries.
package export

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/pkg/format"
)

// FileName is the download name of a mode's CSV export.
func FileName(m analysis.Mode) string {
	return "easepick-" + string(m) + "-mode.csv"
}

// TableRows renders rows under the mode's headers for display. Absent values show as "—".
func TableRows(m analysis.Mode, rows []analysis.Row, tz string) [][]string {
	fm := analysis.Formatter{Timezone: tz, Missing: format.Missing}
	headers := analysis.Headers(m)
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Values(headers, fm))
	}
	return out
}

// WriteCSV writes the header row and one line per row. Every value is quoted, embedded
// quotes are doubled and lines end with "\n". Nothing is written when rows is empty.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	writeLine := func(values []string) {
		for i, v := range values {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(v, `"`, `""`))
			bw.WriteByte('"')
		}
	}

	writeLine(headers)
	for _, row := range rows {
		bw.WriteByte('\n')
		writeLine(row)
	}
	return bw.Flush()
}

// CSV renders a mode's rows as a CSV document, or nil when there are no rows.
// Absent values are left empty.
func CSV(m analysis.Mode, rows []analysis.Row, tz string) ([]byte, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	fm := analysis.Formatter{Timezone: tz, Missing: ""}
	headers := analysis.Headers(m)
	values := make([][]string, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.Values(headers, fm))
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, headers, values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Summary renders one line per row as "Header: value" pairs joined by " | ".
// It returns "" when there are no rows.
func Summary(m analysis.Mode, rows []analysis.Row, tz string) string {
	headers := analysis.Headers(m)
	fm := analysis.Formatter{Timezone: tz, Missing: format.Missing}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		parts := make([]string, len(headers))
		for i, h := range headers {
			v, ok := r.Field(h, fm)
			if !ok {
				v = format.Missing
			}
			parts[i] = h + ": " + v
		}
		lines = append(lines, strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}
