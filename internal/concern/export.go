package concern

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// csvHeader is the fixed export column set.
var csvHeader = []string{
	"Group Number",
	"Project Title",
	"Student Names",
	"Mentor Name",
	"Concern Description",
	"Preferred Mentor",
	"Submission Date",
}

// ExportCSV renders the given rows as CSV with the fixed 7-column header.
// Embedded quotes are escaped per RFC 4180.
func ExportCSV(rows []Concern) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, c := range rows {
		record := []string{
			c.GroupNumber,
			c.ProjectTitle,
			c.StudentNames,
			c.MentorName,
			c.ConcernDescription,
			c.PreferredMentor,
			c.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportFilename names the download with the current date.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("project_concerns_%s.csv", now.Format("2006-01-02"))
}
