// Package formats renders collected names in the supported output formats.
package formats

// Row is one file's outcome, flattened for rendering.
type Row struct {
	Path    string   `json:"path"`
	Names   []string `json:"names"`
	Hash    string   `json:"hash,omitempty"`
	Cached  bool     `json:"cached"`
	Removed bool     `json:"removed,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type Summary struct {
	Files   int `json:"files"`
	Names   int `json:"names"`
	Failed  int `json:"failed"`
	Cached  int `json:"cached"`
	Removed int `json:"removed"`
}

func Summarize(rows []Row) Summary {
	var s Summary
	for _, row := range rows {
		s.Files++
		s.Names += len(row.Names)
		if row.Error != "" {
			s.Failed++
		}
		if row.Cached {
			s.Cached++
		}
		if row.Removed {
			s.Removed++
		}
	}
	return s
}
