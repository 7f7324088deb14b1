package formats

import (
	"encoding/json"
)

type JSONGenerator struct {
	rows  []Row
	runID string
}

func NewJSONGenerator(rows []Row, runID string) *JSONGenerator {
	return &JSONGenerator{rows: rows, runID: runID}
}

type jsonDocument struct {
	RunID   string  `json:"run_id,omitempty"`
	Files   []Row   `json:"files"`
	Summary Summary `json:"summary"`
}

func (j *JSONGenerator) Generate() (string, error) {
	rows := make([]Row, len(j.rows))
	for i, row := range j.rows {
		if row.Names == nil {
			row.Names = []string{}
		}
		rows[i] = row
	}

	data, err := json.MarshalIndent(jsonDocument{
		RunID:   j.runID,
		Files:   rows,
		Summary: Summarize(j.rows),
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
