package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"auctionbook/internal/metrics"
	"auctionbook/internal/services"
)

// AuctionHandler handles HTTP requests for auctions.
type AuctionHandler struct {
	service  *services.AuctionService
	validate *validator.Validate
	metrics  *metrics.Metrics
	clock    func() time.Time
}

// NewAuctionHandler creates a new AuctionHandler. m may be nil.
func NewAuctionHandler(service *services.AuctionService, m *metrics.Metrics) *AuctionHandler {
	return &AuctionHandler{
		service:  service,
		validate: newValidator(),
		metrics:  m,
		clock:    time.Now,
	}
}

// RegisterRoutes registers the auction routes on router.
func (h *AuctionHandler) RegisterRoutes(router fiber.Router) {
	auctionRoutes := router.Group("/auctions")
	auctionRoutes.Get("/", h.HandleListAuctions)
	auctionRoutes.Post("/", h.HandleCreateAuction)
	auctionRoutes.Get("/export.pdf", h.HandleExportPDF)
	auctionRoutes.Get("/export.xlsx", h.HandleExportXLSX)
	auctionRoutes.Get("/:id", h.HandleGetAuction)
	auctionRoutes.Get("/:id/receipt.pdf", h.HandleReceipt)
	auctionRoutes.Patch("/:id/pay", h.HandleMarkPaid)
	auctionRoutes.Put("/:id", h.HandleUpdateAuction)
	auctionRoutes.Delete("/:id", h.HandleDeleteAuction)
}

// HandleListAuctions returns all auctions, or one month's when both month
// and year are given.
func (h *AuctionHandler) HandleListAuctions(c *fiber.Ctx) error {
	filter, err := services.ParseMonthFilter(c.Query("month"), c.Query("year"))
	if err != nil {
		return writeError(c, err)
	}
	auctions, err := h.service.ListAuctions(c.UserContext(), filter)
	h.metrics.ObserveOperation("list", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(auctions)
}

// HandleGetAuction returns one auction with its items.
func (h *AuctionHandler) HandleGetAuction(c *fiber.Ctx) error {
	auction, err := h.service.GetAuction(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(auction)
}

// HandleCreateAuction creates an auction with its items.
func (h *AuctionHandler) HandleCreateAuction(c *fiber.Ctx) error {
	var req AuctionRequest
	if err := h.parseBody(c, &req); err != nil {
		h.metrics.ObserveOperation("create", err)
		return writeError(c, err)
	}

	auction, err := h.service.CreateAuction(c.UserContext(), req.ToInput())
	h.metrics.ObserveOperation("create", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(auction)
}

// HandleMarkPaid flags an auction as paid.
func (h *AuctionHandler) HandleMarkPaid(c *fiber.Ctx) error {
	auction, err := h.service.MarkPaid(c.UserContext(), c.Params("id"))
	h.metrics.ObserveOperation("mark_paid", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(auction)
}

// HandleUpdateAuction replaces an auction and its whole item set.
func (h *AuctionHandler) HandleUpdateAuction(c *fiber.Ctx) error {
	var req AuctionRequest
	if err := h.parseBody(c, &req); err != nil {
		h.metrics.ObserveOperation("update", err)
		return writeError(c, err)
	}

	auction, err := h.service.UpdateAuction(c.UserContext(), c.Params("id"), req.ToInput())
	h.metrics.ObserveOperation("update", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(auction)
}

// HandleDeleteAuction removes an auction and its items.
func (h *AuctionHandler) HandleDeleteAuction(c *fiber.Ctx) error {
	err := h.service.DeleteAuction(c.UserContext(), c.Params("id"))
	h.metrics.ObserveOperation("delete", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(DeleteResponse{Success: true, Message: "Auction deleted successfully"})
}
