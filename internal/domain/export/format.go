package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("format must be one of csv, xlsx, pdf")

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case CSV, XLSX, PDF:
		return f, nil
	case "excel":
		return XLSX, nil
	}
	return "", ErrUnsupportedFormat
}

func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	}
	return "text/csv"
}

func FileName(base string, f Format) string {
	return fmt.Sprintf("%s.%s", base, f)
}

// Render writes t in format f.
func Render(w io.Writer, f Format, t Table) error {
	switch f {
	case CSV:
		return WriteCSV(w, t)
	case XLSX:
		return WriteXLSX(w, t)
	case PDF:
		return WritePDF(w, t)
	}
	return ErrUnsupportedFormat
}
