package handlers

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"auctionbook/internal/models"
	"auctionbook/internal/services"
)

// ItemRequest is one line item of a create or update body. Price is the unit
// price and may be sent as a JSON number or a numeric string.
type ItemRequest struct {
	ItemName string          `json:"itemName" validate:"required,max=255"`
	Quantity int             `json:"quantity" validate:"gt=0"`
	Price    decimal.Decimal `json:"price" validate:"gt=0"`
}

// AuctionRequest is the body of POST /auctions and PUT /auctions/:id.
type AuctionRequest struct {
	PersonName   string        `json:"personName" validate:"required,max=255"`
	MobileNumber string        `json:"mobileNumber" validate:"required,max=20"`
	AuctionDate  models.Date   `json:"auctionDate" validate:"required"`
	Items        []ItemRequest `json:"items" validate:"required,min=1,dive"`
	IsPaid       bool          `json:"isPaid"`
}

// ToInput converts the request into service input.
func (r AuctionRequest) ToInput() services.AuctionInput {
	items := make([]services.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, services.ItemInput{
			ItemName: it.ItemName,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return services.AuctionInput{
		PersonName:   r.PersonName,
		MobileNumber: r.MobileNumber,
		AuctionDate:  r.AuctionDate,
		Items:        items,
		IsPaid:       r.IsPaid,
	}
}

// DeleteResponse is the body returned after a successful delete.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string `json:"status"`
	HasDBConnection bool   `json:"hasDbConnection"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// newValidator returns a validator that reports fields by their JSON names
// and understands decimal and date values. Decimals are checked at the
// two-place precision they are stored with.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.Round(2).InexactFloat64()
	}, decimal.Decimal{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(models.Date)
		if !ok || d.IsZero() {
			return ""
		}
		return d.String()
	}, models.Date{})
	return v
}

// validationFields flattens validator errors into field -> message, keyed
// like "items[0].price".
func validationFields(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		key := e.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		fields[key] = fieldMessage(e)
	}
	return fields
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must contain at least " + e.Param() + " entry"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	default:
		return e.Field() + " failed on the '" + e.Tag() + "' rule"
	}
}
