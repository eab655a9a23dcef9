package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"sitelabor/internal/domain/payroll"
	"sitelabor/internal/domain/reports"
)

func newDocument(title string, subtitle []string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range subtitle {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(3)
	return pdf
}

func WritePDF(w io.Writer, t Table) error {
	pdf := newDocument(t.Title, t.Subtitle)
	if len(t.Headers) > 0 {
		width := 190.0 / float64(len(t.Headers))
		pdf.SetFont("Helvetica", "B", 10)
		for _, h := range t.Headers {
			pdf.CellFormat(width, 8, h, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, row := range t.Rows {
			for _, v := range row {
				pdf.CellFormat(width, 7, v, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	return pdf.Output(w)
}

// WritePayrollStatement renders one worker's payroll for a period.
func WritePayrollStatement(w io.Writer, worker reports.WorkerInfo, p payroll.WorkerPayroll) error {
	pdf := newDocument("Payroll Statement", []string{
		fmt.Sprintf("Worker: %s (%s)", worker.Name, worker.Code),
		fmt.Sprintf("Period: %s to %s", p.Period.From.Format(dateLayout), p.Period.To.Format(dateLayout)),
		fmt.Sprintf("Total equivalent days: %s", p.Payroll.Breakdown.TotalEquivalentDays.String()),
	})

	pdf.SetFont("Helvetica", "B", 10)
	for _, h := range []string{"Shift", "Count", "Rate", "Amount"} {
		pdf.CellFormat(47.5, 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, e := range p.Payroll.Earnings {
		rate := "-"
		if e.Rate != nil {
			rate = e.Rate.StringFixed(2)
		}
		pdf.CellFormat(47.5, 7, e.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(47.5, 7, fmt.Sprint(e.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(47.5, 7, rate, "1", 0, "R", false, 0, "")
		pdf.CellFormat(47.5, 7, e.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	line := func(label, value string) {
		pdf.CellFormat(142.5, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(47.5, 7, value, "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	line("Gross", p.Payroll.Gross.StringFixed(2))
	for _, d := range p.Payroll.Deductions {
		line("Deduction: "+d.Name, d.Amount.StringFixed(2))
	}
	line("Total deductions", p.Payroll.TotalDeductions.StringFixed(2))
	pdf.SetFont("Helvetica", "B", 11)
	line("Net", p.Payroll.Net.StringFixed(2))

	return pdf.Output(w)
}
