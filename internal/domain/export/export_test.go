package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/payroll"
	"sitelabor/internal/domain/reports"
	"sitelabor/internal/domain/shift"
)

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleContractorReport() reports.ContractorReport {
	return reports.ContractorReport{
		Contractor: reports.ContractorInfo{Name: "Apex", Code: "CON240001"},
		Site:       reports.SiteInfo{Name: "Tower A"},
		Period:     reports.Period{From: jan1, To: jan1.AddDate(0, 0, 6)},
		Workers: []reports.WorkerEntry{
			{
				Worker: reports.WorkerInfo{Name: "Ravi", Code: "EMP240001"},
				Records: []attendance.Record{
					{Date: jan1, ShiftKind: shift.Full, Remarks: "on time"},
					{Date: jan1.AddDate(0, 0, 1), ShiftKind: shift.Double},
				},
			},
		},
	}
}

func TestContractorTableRows(t *testing.T) {
	table := ContractorTable(sampleContractorReport())
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	want := []string{"2024-01-02", "Ravi", "EMP240001", "Double Shift", "-"}
	for i, v := range want {
		if table.Rows[1][i] != v {
			t.Fatalf("column %d: expected %q, got %q", i, v, table.Rows[1][i])
		}
	}
}

func TestWorkerTableMissingDescriptors(t *testing.T) {
	table := WorkerTable(reports.WorkerReport{
		Worker:  reports.WorkerInfo{Name: "Ravi"},
		Summary: attendance.NewSummary(),
		Records: []reports.RecordDetail{{Record: attendance.Record{Date: jan1, ShiftKind: shift.Half}}},
	})
	row := table.Rows[0]
	if row[1] != "-" || row[2] != "-" || row[3] != "-" || row[4] != "Half Day" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestCSVEmptyIsHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, CSV, ContractorTable(reports.ContractorReport{})); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("csv read failed: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "Date" {
		t.Fatalf("expected header only, got %v", rows)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, XLSX, ContractorTable(sampleContractorReport())); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	if len(rows) != 3 || rows[0][1] != "Worker Name" || rows[1][3] != "Full Day" {
		t.Fatalf("unexpected sheet: %v", rows)
	}
}

func TestPDFOutputs(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, PDF, ContractorTable(sampleContractorReport())); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected pdf header")
	}

	summary, _ := attendance.Summarize([]attendance.Record{{ID: "r1", ShiftKind: shift.Full}})
	res, err := payroll.Derive(summary, payroll.Settings{Rates: payroll.DefaultSettings().Rates, Deductions: payroll.Deductions{PF: decimal.NewFromInt(10)}})
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	buf.Reset()
	err = WritePayrollStatement(&buf, reports.WorkerInfo{Name: "Ravi", Code: "EMP240001"}, payroll.WorkerPayroll{
		Period:  payroll.Period{From: jan1, To: jan1},
		Payroll: res,
	})
	if err != nil {
		t.Fatalf("statement failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected pdf header")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"csv": CSV, " XLSX ": XLSX, "excel": XLSX, "pdf": PDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if XLSX.ContentType() == CSV.ContentType() || FileName("report", PDF) != "report.pdf" {
		t.Fatal("unexpected format metadata")
	}
}
