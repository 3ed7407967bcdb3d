package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"auctionbook/internal/models"
)

const (
	receiptWidth     = 80.0
	receiptHeight    = 150.0
	receiptMargin    = 5.0
	receiptRowHeight = 5.0
	// receiptFooterHeight is the space the total and footer lines take below
	// the item table.
	receiptFooterHeight = 26.0
	receiptTitle     = "ST.JOHN'S CHURCH"
)

var receiptColumns = []column{
	{"#", 6, "C"},
	{"Item", 24, "L"},
	{"Qty", 10, "C"},
	{"Price", 15, "R"},
	{"Total", 15, "R"},
}

// ReceiptRow is one item line of a bill. The line total is quantity times
// unit price.
func ReceiptRow(index int, item models.AuctionItem) []string {
	return []string{
		strconv.Itoa(index + 1),
		truncate(item.ItemName, receiptNameLimit),
		strconv.Itoa(item.Quantity),
		FormatINR(item.Price),
		FormatINR(item.LineTotal()),
	}
}

// ReceiptPDF writes an 80x150mm bill for a single auction.
func ReceiptPDF(w io.Writer, a models.Auction, now time.Time) error {
	pdf := renderReceipt(a, now)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("export: render receipt pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write receipt pdf: %w", err)
	}
	return nil
}

func renderReceipt(a models.Auction, now time.Time) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: receiptWidth, Ht: receiptHeight},
	})
	pdf.SetMargins(receiptMargin, receiptMargin, receiptMargin)
	pdf.SetAutoPageBreak(true, receiptMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	center := func(y float64, text string) {
		pdf.SetXY(receiptMargin, y-3)
		pdf.CellFormat(receiptWidth-2*receiptMargin, 4, tr(text), "", 0, "C", false, 0, "")
	}
	rule := func(y float64) {
		pdf.SetLineWidth(0.5)
		pdf.Line(receiptMargin, y, receiptWidth-receiptMargin, y)
	}

	y := 10.0
	pdf.SetFont("Helvetica", "B", 14)
	center(y, receiptTitle)
	y += 6
	pdf.SetFont("Helvetica", "B", 10)
	center(y, "AUCTION BILL")
	y += 6
	pdf.SetFont("Helvetica", "", 8)
	center(y, "Invoice / Bill of Sale")
	y += 8

	rule(y)
	y += 5

	pdf.SetFont("Helvetica", "", 9)
	status := "UNPAID"
	if a.IsPaid {
		status = "PAID"
	}
	for _, line := range []string{
		"Customer: " + a.PersonName,
		"Mobile: " + a.MobileNumber,
		"Date: " + a.AuctionDate.Format(DisplayDateLayout),
		"Status: " + status,
	} {
		pdf.Text(receiptMargin, y, tr(line))
		y += 5
	}
	y += 3

	pdf.SetXY(receiptMargin, y)
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(50, 50, 50)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range receiptColumns {
		pdf.CellFormat(col.width, receiptRowHeight, col.title, "", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 7)
	for i, item := range a.Items {
		pdf.SetX(receiptMargin)
		for c, cell := range ReceiptRow(i, item) {
			pdf.CellFormat(receiptColumns[c].width, receiptRowHeight, tr(cell), "B", 0, receiptColumns[c].align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	y = pdf.GetY() + 5
	if y+receiptFooterHeight > receiptHeight-receiptMargin {
		pdf.AddPage()
		y = receiptMargin + 5
	}
	rule(y)
	y += 5

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(receiptMargin, y, "TOTAL:")
	total := FormatINR(a.TotalAmount)
	pdf.Text(receiptWidth-receiptMargin-pdf.GetStringWidth(total), y, total)
	y += 8

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(100, 100, 100)
	center(y, "May God Bless You!")
	y += 4
	center(y, "Generated: "+now.Format(TimestampLayout))
	return pdf
}
