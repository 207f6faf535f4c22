package importer

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
)

// readCSV reads a CSV file and returns the header row and data rows.
func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "importer: open csv %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrapf(err, "importer: read csv %s", path)
	}
	if len(records) == 0 {
		return nil, nil, eris.Errorf("importer: csv %s is empty", path)
	}

	return records[0], records[1:], nil
}
