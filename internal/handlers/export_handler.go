package handlers

import (
	"bytes"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/export"
	"auctionbook/internal/listing"
	"auctionbook/internal/models"
	"auctionbook/internal/services"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type reportWriter func(w io.Writer, auctions []models.Auction, filterDesc string, now time.Time) error

// HandleExportPDF renders the filtered auction list as a PDF report.
func (h *AuctionHandler) HandleExportPDF(c *fiber.Ctx) error {
	return h.exportReport(c, "pdf", contentTypePDF, export.ReportPDF)
}

// HandleExportXLSX renders the filtered auction list as an Excel workbook.
func (h *AuctionHandler) HandleExportXLSX(c *fiber.Ctx) error {
	return h.exportReport(c, "xlsx", contentTypeXLSX, export.ReportXLSX)
}

// HandleReceipt renders the bill of one auction.
func (h *AuctionHandler) HandleReceipt(c *fiber.Ctx) error {
	auction, err := h.service.GetAuction(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	now := h.clock()
	var buf bytes.Buffer
	err = export.ReceiptPDF(&buf, *auction, now)
	h.metrics.ObserveOperation("receipt", err)
	if err != nil {
		return writeError(c, apperrors.Internal(err, "render receipt"))
	}
	return sendAttachment(c, contentTypePDF, export.ReceiptFilename(*auction, now), buf.Bytes())
}

func (h *AuctionHandler) exportReport(c *fiber.Ctx, ext, contentType string, write reportWriter) error {
	state, err := listing.ParseFilterState(c.Query("search"), c.Query("payment"), c.Query("filter"), c.Query("month"), c.Query("date"))
	if err != nil {
		return writeError(c, err)
	}

	var monthFilter *services.MonthFilter
	if state.Date == listing.DateMonth {
		monthFilter = &services.MonthFilter{Month: int(state.Ref.Month()), Year: state.Ref.Year()}
	}
	auctions, err := h.service.ListAuctions(c.UserContext(), monthFilter)
	if err != nil {
		return writeError(c, err)
	}

	_, _, flat := listing.View(auctions, state)
	now := h.clock()
	var buf bytes.Buffer
	err = write(&buf, flat, listing.Describe(state), now)
	h.metrics.ObserveOperation("export_"+ext, err)
	if err != nil {
		return writeError(c, apperrors.Internal(err, "render %s report", ext))
	}
	return sendAttachment(c, contentType, export.ReportFilename(now, ext), buf.Bytes())
}

func sendAttachment(c *fiber.Ctx, contentType, filename string, body []byte) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(body)
}
