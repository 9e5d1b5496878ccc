package storage

import (
	"strings"

	"github.com/IshaanNene/qlcatalog/internal/types"
)

// CSVHeader is the fixed header row of the catalog export.
const CSVHeader = "ID,Type,Name,Duration,Level,Credits,Link"

// EncodeCSV renders records as CSV: header first, one row per record,
// rows separated by "\n" with no trailing newline. Only Name is quoted,
// with embedded quotes doubled; the other fields are written verbatim.
func EncodeCSV(records []types.Record) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteByte('\n')

	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.ID)
		b.WriteByte(',')
		b.WriteString(r.Type)
		b.WriteString(`,"`)
		b.WriteString(strings.ReplaceAll(r.Name, `"`, `""`))
		b.WriteString(`",`)
		b.WriteString(r.Duration)
		b.WriteByte(',')
		b.WriteString(r.Level)
		b.WriteByte(',')
		b.WriteString(r.Credits)
		b.WriteByte(',')
		b.WriteString(r.Link)
	}
	return b.String()
}
