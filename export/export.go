/*
Package export renders a commission.Report as a downloadable document.

PURPOSE:
  Produces the CSV, PDF and XLSX downloads offered on the admin reports
  page. Every format renders the same Document, so the three downloads
  always agree on rows, columns and ordering.

DOCUMENT MODEL:
  Document
    ├── ID, Title, GeneratedAt, Filter  (header block / metadata)
    └── Tables
          ├── Summary   (metric, value)
          ├── Agencies  (ranked by total commission)
          ├── Agents
          ├── Suburbs
          └── Streets   (adds the suburb column)

  Cells carry both the display text (CSV, PDF) and the raw value (XLSX,
  where numbers stay numeric).

PAGINATION:
  Exports ignore the on-screen page. The full filtered bucket lists are
  written.

SEE ALSO:
  - csv.go, pdf.go, xlsx.go: the writers
  - currency.go: money display
*/
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/generic"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format is a download format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatPDF, FormatXLSX}

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", &generic.ValidationError{Field: "format", Value: s, Reason: "expected csv, pdf or xlsx", Err: generic.ErrUnsupportedFormat}
}

// ContentType is the MIME type served with the download.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename builds "commission-report-20250630-1504.csv".
func Filename(f Format, generatedAt time.Time) string {
	return fmt.Sprintf("commission-report-%s.%s", generatedAt.UTC().Format("20060102-1504"), f)
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Options controls rendering.
type Options struct {
	Title    string
	Currency CurrencyFormatter // nil means DefaultCurrency
	ExportID string            // empty means a new UUID
}

// Cell is one table value.
type Cell struct {
	Text  string
	Value any // string, int or float64
}

// Table is one section of the export.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]Cell
}

// Document is a report laid out for export.
type Document struct {
	ID          string
	Title       string
	GeneratedAt time.Time
	Filter      string
	Tables      []Table
}

// NewDocument lays out r. Bucket tables are ranked by total commission.
func NewDocument(r commission.Report, opts Options) Document {
	money := opts.Currency
	if money == nil {
		money = DefaultCurrency
	}
	doc := Document{
		ID:          opts.ExportID,
		Title:       opts.Title,
		GeneratedAt: r.GeneratedAt,
		Filter:      r.Filter.String(),
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Title == "" {
		doc.Title = "Commission Report"
	}

	doc.Tables = append(doc.Tables, summaryTable(r.Summary, money))
	for _, d := range commission.Dimensions {
		buckets, _ := r.Buckets(d)
		doc.Tables = append(doc.Tables, bucketTable(d, commission.RankBuckets(buckets, commission.SortByCommission), money))
	}
	return doc
}

// Write renders r in format f.
func Write(w io.Writer, f Format, r commission.Report, opts Options) error {
	doc := NewDocument(r, opts)
	switch f {
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatPDF:
		return WritePDF(w, doc)
	case FormatXLSX:
		return WriteXLSX(w, doc)
	}
	return &generic.ValidationError{Field: "format", Value: string(f), Reason: "unsupported", Err: generic.ErrUnsupportedFormat}
}

// CSV writes r as CSV.
func CSV(w io.Writer, r commission.Report, opts Options) error { return Write(w, FormatCSV, r, opts) }

// PDF writes r as PDF.
func PDF(w io.Writer, r commission.Report, opts Options) error { return Write(w, FormatPDF, r, opts) }

// XLSX writes r as an Excel workbook.
func XLSX(w io.Writer, r commission.Report, opts Options) error { return Write(w, FormatXLSX, r, opts) }

// =============================================================================
// TABLE LAYOUT
// =============================================================================

func summaryTable(s commission.Summary, money CurrencyFormatter) Table {
	top := func(name string, amount generic.Money) Cell {
		if name == "" {
			return textCell("-")
		}
		return textCell(fmt.Sprintf("%s (%s)", name, money(amount)))
	}
	return Table{
		Name:    "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]Cell{
			{textCell("Total Commission"), moneyCell(s.TotalCommission, money)},
			{textCell("Listed Commission"), moneyCell(s.ListedCommission, money)},
			{textCell("Sold Commission"), moneyCell(s.SoldCommission, money)},
			{textCell("Total Properties"), countCell(s.TotalProperties)},
			{textCell("Listed Properties"), countCell(s.ListedProperties)},
			{textCell("Sold Properties"), countCell(s.SoldProperties)},
			{textCell("Total Activities"), countCell(s.TotalActivities)},
			{textCell("Completed Activities"), countCell(s.CompletedActivities)},
			{textCell("Total Appraisals"), countCell(s.TotalAppraisals)},
			{textCell("Conversion Rate"), percentCell(s.ConversionRate)},
			{textCell("Top Agency"), top(s.TopAgency, s.TopAgencyCommission)},
			{textCell("Top Agent"), top(s.TopAgent, s.TopAgentCommission)},
		},
	}
}

var tableNames = map[commission.Dimension]string{
	commission.DimensionAgency: "Agencies",
	commission.DimensionAgent:  "Agents",
	commission.DimensionSuburb: "Suburbs",
	commission.DimensionStreet: "Streets",
}

var keyHeaders = map[commission.Dimension]string{
	commission.DimensionAgency: "Agency",
	commission.DimensionAgent:  "Agent",
	commission.DimensionSuburb: "Suburb",
	commission.DimensionStreet: "Street",
}

func bucketTable(d commission.Dimension, buckets []commission.Bucket, money CurrencyFormatter) Table {
	street := d == commission.DimensionStreet

	headers := []string{keyHeaders[d]}
	if street {
		headers = append(headers, "Suburb")
	}
	headers = append(headers,
		"Properties", "Listed", "Sold",
		"Total Commission", "Listed Commission", "Sold Commission", "Avg Rate",
		"Activities", "Knocks", "Calls", "Connects", "Appraisals", "Progress",
	)

	rows := make([][]Cell, 0, len(buckets))
	for _, b := range buckets {
		row := []Cell{textCell(b.Key)}
		if street {
			row = append(row, textCell(b.Suburb))
		}
		row = append(row,
			countCell(b.PropertyCount),
			countCell(b.ListedCount),
			countCell(b.SoldCount),
			moneyCell(b.TotalCommission, money),
			moneyCell(b.ListedCommission, money),
			moneyCell(b.SoldCommission, money),
			percentCell(b.AverageCommissionRate),
			countCell(b.ActivityCount),
			ofCell(b.KnocksMade, b.TargetKnocks),
			ofCell(b.CallsMade, b.TargetCalls),
			ofCell(b.CallsConnected, b.TargetConnects),
			ofCell(b.Appraisals(), b.TargetAppraisals),
			percentCell(b.Progress),
		)
		rows = append(rows, row)
	}
	return Table{Name: tableNames[d], Headers: headers, Rows: rows}
}

func textCell(s string) Cell { return Cell{Text: s, Value: s} }

func countCell(n int) Cell { return Cell{Text: fmt.Sprint(n), Value: n} }

func moneyCell(m generic.Money, money CurrencyFormatter) Cell {
	return Cell{Text: money(m), Value: m.Float64()}
}

func percentCell(p float64) Cell {
	return Cell{Text: fmt.Sprintf("%.1f%%", p), Value: p}
}

// ofCell renders "40 / 100", or just the count without a target.
func ofCell(actual, target int) Cell {
	if target == 0 {
		return countCell(actual)
	}
	return Cell{Text: fmt.Sprintf("%d / %d", actual, target), Value: actual}
}
