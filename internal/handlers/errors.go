package handlers

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/logger"
)

// writeError maps err onto a status code and the JSON error body.
func writeError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	body := ErrorResponse{
		Error:   apperrors.PublicMessage(err),
		Message: apperrors.PublicMessage(err),
	}
	if e := apperrors.As(err); e != nil {
		body.Message = e.Message
		body.Fields = e.Fields
	}

	fields := map[string]any{
		"method": c.Method(),
		"path":   c.Path(),
		"status": status,
		"error":  err.Error(),
	}
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", fields)
	} else {
		logger.Warn("request rejected", fields)
	}
	return c.Status(status).JSON(body)
}

// parseBody decodes and validates the JSON body into dst. Unknown fields are
// rejected.
func (h *AuctionHandler) parseBody(c *fiber.Ctx, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation("invalid request body: %v", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.ValidationFields("invalid auction: personName, mobileNumber, auctionDate and at least one valid item are required", validationFields(verrs))
		}
		return apperrors.Validation("invalid request body: %v", err)
	}
	return nil
}

// ErrorHandler is the app-wide fiber error handler. Routing errors keep
// their status; everything else goes through writeError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message, Message: fe.Message})
	}
	return writeError(c, err)
}
