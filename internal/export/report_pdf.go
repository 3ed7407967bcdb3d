package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"auctionbook/internal/listing"
	"auctionbook/internal/models"
)

type column struct {
	title string
	width float64
	align string
}

var reportColumns = []column{
	{"#", 12, "C"},
	{"Person Name", 38, "L"},
	{"Mobile", 28, "L"},
	{"Date", 28, "L"},
	{"Items", 15, "C"},
	{"Amount (Rs.)", 32, "R"},
	{"Status", 22, "C"},
}

const (
	reportMargin    = 14.0
	reportRowHeight = 7.0
)

// ReportRow is one line of the auction report table.
func ReportRow(index int, a models.Auction) []string {
	return []string{
		strconv.Itoa(index + 1),
		a.PersonName,
		a.MobileNumber,
		a.AuctionDate.Format(DisplayDateLayout),
		strconv.Itoa(len(a.Items)),
		FormatINR(a.TotalAmount),
		PaymentLabel(a.IsPaid),
	}
}

// SummaryLine is the money line printed under the report header.
func SummaryLine(s listing.Summary) string {
	return fmt.Sprintf("Total: %s | Paid: %s | Unpaid: %s",
		FormatINR(s.Total), FormatINR(s.Paid), FormatINR(s.Unpaid))
}

// ReportPDF writes an A4 auction report for auctions, which must already be
// filtered and ordered for display.
func ReportPDF(w io.Writer, auctions []models.Auction, filterDesc string, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(reportMargin, reportMargin, reportMargin)
	pdf.SetAutoPageBreak(false, reportMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(reportMargin, 20, "Auction Report")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Text(reportMargin, 28, tr("Filters: "+filterDesc))
	pdf.Text(reportMargin, 34, "Exported on: "+now.Format(TimestampLayout))
	pdf.Text(reportMargin, 40, fmt.Sprintf("Total Records: %d", len(auctions)))
	pdf.Text(reportMargin, 46, SummaryLine(listing.Summarize(auctions)))
	pdf.SetTextColor(0, 0, 0)

	pdf.SetY(52)
	writeReportHeader(pdf)

	_, pageHeight := pdf.GetPageSize()
	for i, a := range auctions {
		if pdf.GetY()+reportRowHeight > pageHeight-reportMargin {
			pdf.AddPage()
			writeReportHeader(pdf)
		}
		fill := i%2 == 1
		pdf.SetFillColor(245, 247, 250)
		pdf.SetFont("Helvetica", "", 9)
		for c, cell := range ReportRow(i, a) {
			pdf.CellFormat(reportColumns[c].width, reportRowHeight, tr(cell), "B", 0, reportColumns[c].align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("export: render report pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write report pdf: %w", err)
	}
	return nil
}

func writeReportHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(59, 130, 246)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, reportRowHeight, col.title, "", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
}
