// Package export writes resolved plans in formats other tools can read.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/kilianp07/dayplan/core/cell"
	"github.com/kilianp07/dayplan/core/model"
)

// CSVHeader lists the columns written by WriteCSV.
var CSVHeader = []string{"id", "name", "length", "start", "fixed", "rigid", "actual", "stop"}

// WriteJSON writes the resolved rows to w as a JSON array.
func WriteJSON(w io.Writer, recs []model.ActivityRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteCSV writes the resolved rows to w in CSV format. The stop column is
// derived from start and actual length.
func WriteCSV(w io.Writer, recs []model.ActivityRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.ID,
			r.Name,
			r.DeclaredLength,
			r.Start,
			r.IsFixed,
			r.IsRigid,
			r.ActualLength,
			Stop(r),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Stop returns the clock time at which a resolved row ends.
func Stop(r model.ActivityRecord) string {
	return cell.FormatMinuteToTime(cell.ParseTimeToMinute(r.Start) + cell.ParseLength(r.ActualLength))
}
