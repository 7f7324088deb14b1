package formats

import (
	"fmt"
	"strings"
)

type TSVGenerator struct {
	rows []Row
}

func NewTSVGenerator(rows []Row) *TSVGenerator {
	return &TSVGenerator{rows: rows}
}

// Generate emits one line per bound name, plus one per failed or removed file.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tFile\tName\tDetail\n")
	for _, row := range t.rows {
		switch {
		case row.Removed:
			buf.WriteString(fmt.Sprintf("removed\t%s\t\t\n", tsvField(row.Path)))
		case row.Error != "":
			buf.WriteString(fmt.Sprintf("error\t%s\t\t%s\n", tsvField(row.Path), tsvField(row.Error)))
		default:
			detail := ""
			if row.Cached {
				detail = "cached"
			}
			for _, name := range row.Names {
				buf.WriteString(fmt.Sprintf("name\t%s\t%s\t%s\n", tsvField(row.Path), name, detail))
			}
		}
	}

	return buf.String(), nil
}

func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
}
