package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"auctionbook/internal/listing"
	"auctionbook/internal/models"
)

const (
	SheetAuctions = "Auctions"
	SheetItems    = "Items Detail"
)

var (
	auctionSheetHeader = []any{"#", "Person Name", "Mobile Number", "Auction Date", "Items Count", "Total Amount", "Payment Status"}
	auctionSheetWidths = []float64{5, 25, 15, 15, 12, 15, 15}
	itemSheetHeader    = []any{"Auction ID", "Person Name", "Item Name", "Quantity", "Price", "Item Total"}
	itemSheetWidths    = []float64{12, 20, 25, 10, 12, 12}
)

// ItemDetailRow is one line of the items sheet.
func ItemDetailRow(a models.Auction, item models.AuctionItem) []any {
	return []any{
		ShortID(a.ID),
		a.PersonName,
		item.ItemName,
		item.Quantity,
		item.Price.InexactFloat64(),
		item.LineTotal().InexactFloat64(),
	}
}

// ReportXLSX writes a workbook with an Auctions sheet (header block plus one
// row per auction) and an Items Detail sheet (one row per item).
func ReportXLSX(w io.Writer, auctions []models.Auction, filterDesc string, now time.Time) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("export: close workbook: %w", cerr)
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: create style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetAuctions); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := writeAuctionSheet(f, auctions, filterDesc, now, bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetItems); err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}
	if err := writeItemSheet(f, auctions, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func writeAuctionSheet(f *excelize.File, auctions []models.Auction, filterDesc string, now time.Time, bold int) error {
	s := listing.Summarize(auctions)
	rows := [][]any{
		{"AUCTION REPORT"},
		{},
		{"Filters Applied:", filterDesc},
		{"Exported On:", now.Format(TimestampLayout)},
		{"Total Records:", len(auctions)},
		{"Total Amount:", FormatINR(s.Total), "Paid:", FormatINR(s.Paid), "Unpaid:", FormatINR(s.Unpaid)},
		{},
		auctionSheetHeader,
	}
	headerRow := len(rows)
	for i, a := range auctions {
		rows = append(rows, []any{
			i + 1,
			a.PersonName,
			a.MobileNumber,
			a.AuctionDate.Format(DisplayDateLayout),
			len(a.Items),
			a.TotalAmount.InexactFloat64(),
			PaymentLabel(a.IsPaid),
		})
	}

	if err := writeRows(f, SheetAuctions, rows); err != nil {
		return err
	}
	if err := setWidths(f, SheetAuctions, auctionSheetWidths); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetAuctions, "A1", "A1", bold); err != nil {
		return fmt.Errorf("export: style title: %w", err)
	}
	return styleRow(f, SheetAuctions, headerRow, len(auctionSheetHeader), bold)
}

func writeItemSheet(f *excelize.File, auctions []models.Auction, bold int) error {
	rows := [][]any{
		{"AUCTION ITEMS DETAIL"},
		{},
		itemSheetHeader,
	}
	headerRow := len(rows)
	for _, a := range auctions {
		for _, item := range a.Items {
			rows = append(rows, ItemDetailRow(a, item))
		}
	}

	if err := writeRows(f, SheetItems, rows); err != nil {
		return err
	}
	if err := setWidths(f, SheetItems, itemSheetWidths); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetItems, "A1", "A1", bold); err != nil {
		return fmt.Errorf("export: style title: %w", err)
	}
	return styleRow(f, SheetItems, headerRow, len(itemSheetHeader), bold)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("export: write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func setWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("export: column name: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("export: set %s width: %w", sheet, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	from, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	to, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		return fmt.Errorf("export: style %s header: %w", sheet, err)
	}
	return nil
}
