package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/banshee-data/camreach/internal/batch"
	"github.com/banshee-data/camreach/internal/units"
)

// CSVHeader is the column set written by WriteCSV.
var CSVHeader = []string{"zoom", "focal_length_mm", "distance", "lines", "tilt_deg", "tilt_rad", "error"}

func checkUnit(unit string) error {
	if !units.IsValid(unit) {
		return fmt.Errorf("invalid distance unit %q, must be one of: %s", unit, units.GetValidUnitsString())
	}
	return nil
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// WriteCSV writes one record per row with distances converted to unit.
func WriteCSV(w io.Writer, rows []batch.Row, unit string) error {
	if err := checkUnit(unit); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		a := r.Analysis
		rec := []string{
			formatFloat(r.Zoom, -1),
			formatFloat(a.FocalLengthMM, 3),
			formatFloat(units.ConvertDistance(a.DistanceMeters, unit), 3),
			strconv.Itoa(a.LineCount),
			formatFloat(a.Tilt.Degrees(), 6),
			formatFloat(a.Tilt.Radians(), 8),
			errText(r.Err),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes rows as an aligned, human-readable table.
func WriteTable(w io.Writer, rows []batch.Row, unit string) error {
	if err := checkUnit(unit); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "zoom\tfocal (mm)\tdistance (%s)\tlines\ttilt (deg)\t\n", unit)
	for _, r := range rows {
		a := r.Analysis
		if r.Err != nil && a.LineCount == 0 {
			fmt.Fprintf(tw, "%g\t%.1f\t-\t-\t-\t %v\n", r.Zoom, a.FocalLengthMM, r.Err)
			continue
		}
		note := ""
		if !a.TiltConverged {
			note = " tilt clamped"
		}
		fmt.Fprintf(tw, "%g\t%.1f\t%.1f\t%d\t%.3f\t%s\n",
			r.Zoom, a.FocalLengthMM, units.ConvertDistance(a.DistanceMeters, unit), a.LineCount, a.Tilt.Degrees(), note)
	}
	return tw.Flush()
}
