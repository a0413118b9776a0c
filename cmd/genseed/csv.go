package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/open-data-gateway/internal/domain"
)

// dateLayouts are tried in order for date columns.
var dateLayouts = []string{time.RFC3339, "2006-01-02", "1/2/2006", "01/02/2006 15:04:05"}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return rows, nil
}

// row gives typed access to one CSV line by header name.
type row struct {
	cols  map[string]int
	cells []string
	line  int
	err   error
}

func (r *row) str(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r *row) optStr(col string) *string {
	if s := r.str(col); s != "" {
		return &s
	}
	return nil
}

// integer reads a required integer column.
func (r *row) integer(col string) int64 {
	n, ok := r.optInteger(col)
	if !ok && r.err == nil {
		r.fail(col, errors.New("missing value"))
	}
	return n
}

func (r *row) optInteger(col string) (int64, bool) {
	s := r.str(col)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		r.fail(col, err)
		return 0, false
	}
	return n, true
}

func (r *row) number(col string) float64 {
	f := r.optNumber(col)
	if f == nil {
		return 0
	}
	return *f
}

func (r *row) optNumber(col string) *float64 {
	s := r.str(col)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(col, err)
		return nil
	}
	return &f
}

func (r *row) date(col string) *time.Time {
	s := r.str(col)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	r.fail(col, fmt.Errorf("unrecognized date %q", s))
	return nil
}

func (r *row) fail(col string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("line %d column %s: %w", r.line, col, err)
	}
}

func eachRow(rows [][]string, fn func(*row)) error {
	if len(rows) < 2 {
		return fmt.Errorf("no data rows")
	}
	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}
	for i, cells := range rows[1:] {
		r := &row{cols: cols, cells: cells, line: i + 2}
		fn(r)
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

func parseInspections(rows [][]string) ([]domain.InspectionRecord, error) {
	out := make([]domain.InspectionRecord, 0, len(rows))
	err := eachRow(rows, func(r *row) {
		out = append(out, domain.InspectionRecord{
			ScoreRecent:             r.number("ScoreRecent"),
			GradeRecent:             r.str("GradeRecent"),
			DateRecent:              r.date("DateRecent"),
			Score2:                  r.optNumber("Score2"),
			Grade2:                  r.optStr("Grade2"),
			Date2:                   r.date("Date2"),
			Score3:                  r.optNumber("Score3"),
			Grade3:                  r.optStr("Grade3"),
			Date3:                   r.date("Date3"),
			PermitNumber:            r.integer("permit_number"),
			FacilityType:            r.integer("facility_type"),
			FacilityTypeDescription: r.str("facility_type_description"),
			Subtype:                 r.integer("subtype"),
			SubtypeDescription:      r.str("subtype_description"),
			PremiseName:             r.str("premise_name"),
			PremiseAddress:          r.str("premise_address"),
			PremiseCity:             r.str("premise_city"),
			PremiseState:            r.str("premise_state"),
			PremiseZip:              r.integer("premise_zip"),
			OpeningDate:             r.date("opening_date"),
		})
	})
	return out, err
}

// parsePlaces reads place rows. Rows without an Id are numbered from 1 in
// file order.
func parsePlaces(rows [][]string) ([]domain.PlaceRecord, error) {
	out := make([]domain.PlaceRecord, 0, len(rows))
	err := eachRow(rows, func(r *row) {
		id, ok := r.optInteger("Id")
		if !ok {
			id = int64(len(out) + 1)
		}
		out = append(out, domain.PlaceRecord{
			ID:    id,
			LatD:  r.number("LatD"),
			LatM:  r.number("LatM"),
			LatS:  r.number("LatS"),
			NS:    r.str("NS"),
			LonD:  r.number("LonD"),
			LonM:  r.number("LonM"),
			LonS:  r.number("LonS"),
			EW:    r.str("EW"),
			City:  r.str("City"),
			State: r.str("State"),
		})
	})
	return out, err
}
