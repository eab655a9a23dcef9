// Package export flattens reports into tables and renders them as CSV,
// XLSX or PDF.
package export

import (
	"fmt"
	"strings"

	"sitelabor/internal/domain/reports"
	"sitelabor/internal/domain/shift"
)

const dateLayout = "2006-01-02"

type Table struct {
	Title    string
	Subtitle []string
	Headers  []string
	Rows     [][]string
}

func remarks(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func periodLine(p reports.Period) string {
	return fmt.Sprintf("Period: %s to %s", p.From.Format(dateLayout), p.To.Format(dateLayout))
}

// ContractorTable has one row per attendance record, grouped by worker.
func ContractorTable(r reports.ContractorReport) Table {
	t := Table{
		Title: "Contractor Attendance Report",
		Subtitle: []string{
			fmt.Sprintf("Contractor: %s (%s)", r.Contractor.Name, r.Contractor.Code),
			fmt.Sprintf("Site: %s", r.Site.Name),
			periodLine(r.Period),
		},
		Headers: []string{"Date", "Worker Name", "Worker ID", "Shift", "Remarks"},
		Rows:    [][]string{},
	}
	for _, w := range r.Workers {
		for _, rec := range w.Records {
			t.Rows = append(t.Rows, []string{
				rec.Date.Format(dateLayout),
				w.Worker.Name,
				w.Worker.Code,
				shift.Label(rec.ShiftKind),
				remarks(rec.Remarks),
			})
		}
	}
	return t
}

func WorkerTable(r reports.WorkerReport) Table {
	t := Table{
		Title: "Worker Attendance Report",
		Subtitle: []string{
			fmt.Sprintf("Worker: %s (%s)", r.Worker.Name, r.Worker.Code),
			periodLine(r.Period),
			fmt.Sprintf("Total equivalent days: %s", r.Summary.TotalEquivalentDays.String()),
		},
		Headers: []string{"Date", "Contractor", "Site", "Address", "Shift", "Remarks"},
		Rows:    [][]string{},
	}
	for _, rec := range r.Records {
		contractor, site, address := "-", "-", "-"
		if rec.Contractor != nil {
			contractor = rec.Contractor.Name
		}
		if rec.Site != nil {
			site = rec.Site.Name
			address = remarks(rec.Site.Address)
		}
		t.Rows = append(t.Rows, []string{
			rec.Date.Format(dateLayout),
			contractor,
			site,
			address,
			shift.Label(rec.ShiftKind),
			remarks(rec.Remarks),
		})
	}
	return t
}
