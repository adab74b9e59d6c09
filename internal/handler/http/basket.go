// Package http exposes the basket mutator API over REST.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ecomkit/basket/internal/basket"
	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
	"github.com/ecomkit/basket/pkg/logger"
	"github.com/ecomkit/basket/pkg/validator"
)

// BasketHandler serves the basket routes. Each request gets its own
// controller built from the session headers.
type BasketHandler struct {
	factory *basket.Factory
	logger  *slog.Logger
}

// NewBasketHandler creates the basket HTTP handler.
func NewBasketHandler(factory *basket.Factory, log *slog.Logger) *BasketHandler {
	return &BasketHandler{factory: factory, logger: log}
}

func (h *BasketHandler) controller(r *http.Request) basket.Controller {
	ctrl := h.factory.Controller(sessionFromContext(r.Context()))
	if basketType := r.URL.Query().Get("type"); basketType != "" {
		ctrl.SetType(basketType)
	}
	return ctrl
}

// Get handles GET /api/v1/basket.
func (h *BasketHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.controller(r).Get(r.Context())
	h.respond(w, r, result, err, http.StatusOK)
}

// Clear handles DELETE /api/v1/basket.
func (h *BasketHandler) Clear(w http.ResponseWriter, r *http.Request) {
	result, err := h.controller(r).Clear(r.Context())
	h.respond(w, r, result, err, http.StatusOK)
}

type metaRequest struct {
	CustomerRef string `json:"customer_ref" validate:"max=255"`
	Comment     string `json:"comment" validate:"max=1000"`
}

// SetMeta handles PUT /api/v1/basket/meta.
func (h *BasketHandler) SetMeta(w http.ResponseWriter, r *http.Request) {
	var req metaRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		h.respondValidation(w, r, err)
		return
	}

	result, err := h.controller(r).SetMeta(r.Context(), basket.Meta{
		CustomerRef: req.CustomerRef,
		Comment:     req.Comment,
	})
	h.respond(w, r, result, err, http.StatusOK)
}

type addProductRequest struct {
	ProductID         string             `json:"product_id" validate:"required"`
	Quantity          float64            `json:"quantity" validate:"gt=0"`
	VariantAttrIDs    []string           `json:"variant_attribute_ids"`
	ConfigAttrIDs     []string           `json:"config_attribute_ids"`
	ConfigQuantities  map[string]float64 `json:"config_quantities"`
	CustomAttrValues  map[string]string  `json:"custom_attribute_values"`
	StockType         string             `json:"stock_type"`
	SiteID            string             `json:"site_id"`
	DisableStockCheck bool               `json:"disable_stock_check"`
}

// AddProduct handles POST /api/v1/basket/products.
func (h *BasketHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		h.respondValidation(w, r, err)
		return
	}

	result, err := h.controller(r).AddProduct(r.Context(), basket.AddProductInput{
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		VariantAttrIDs:    req.VariantAttrIDs,
		ConfigAttrIDs:     req.ConfigAttrIDs,
		ConfigQuantities:  req.ConfigQuantities,
		CustomAttrValues:  req.CustomAttrValues,
		StockType:         req.StockType,
		SiteID:            req.SiteID,
		DisableStockCheck: req.DisableStockCheck,
	})
	h.respond(w, r, result, err, http.StatusCreated)
}

type updateProductRequest struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

// UpdateProduct handles PATCH /api/v1/basket/products/{position}.
func (h *BasketHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	position, err := positionParam(r)
	if err != nil {
		h.respond(w, r, nil, err, http.StatusOK)
		return
	}

	var req updateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		h.respondValidation(w, r, err)
		return
	}

	result, err := h.controller(r).UpdateProduct(r.Context(), position, req.Quantity)
	h.respond(w, r, result, err, http.StatusOK)
}

// DeleteProduct handles DELETE /api/v1/basket/products/{position}.
func (h *BasketHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	position, err := positionParam(r)
	if err != nil {
		h.respond(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := h.controller(r).DeleteProduct(r.Context(), position)
	h.respond(w, r, result, err, http.StatusOK)
}

type addAddressRequest struct {
	Type       string `json:"type" validate:"required,oneof=payment delivery"`
	Position   int    `json:"position" validate:"gte=0"`
	Salutation string `json:"salutation"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
	CountryID  string `json:"country_id"`
	Email      string `json:"email" validate:"omitempty,email"`
	Telephone  string `json:"telephone"`
}

// AddAddress handles POST /api/v1/basket/addresses.
func (h *BasketHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req addAddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		h.respondValidation(w, r, err)
		return
	}

	result, err := h.controller(r).AddAddress(r.Context(), domain.Address{
		Type:       req.Type,
		Position:   req.Position,
		Salutation: req.Salutation,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Address1:   req.Address1,
		Address2:   req.Address2,
		City:       req.City,
		PostalCode: req.PostalCode,
		State:      req.State,
		CountryID:  req.CountryID,
		Email:      req.Email,
		Telephone:  req.Telephone,
	})
	h.respond(w, r, result, err, http.StatusCreated)
}

// DeleteAddress handles DELETE /api/v1/basket/addresses/{type}/{position}.
func (h *BasketHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	position, err := positionParam(r)
	if err != nil {
		h.respond(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := h.controller(r).DeleteAddress(r.Context(), chi.URLParam(r, "type"), position)
	h.respond(w, r, result, err, http.StatusOK)
}

type addServiceRequest struct {
	ServiceID string            `json:"service_id" validate:"required"`
	Config    map[string]string `json:"config"`
	Position  int               `json:"position" validate:"gte=0"`
}

// AddService handles POST /api/v1/basket/services.
func (h *BasketHandler) AddService(w http.ResponseWriter, r *http.Request) {
	var req addServiceRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		h.respondValidation(w, r, err)
		return
	}

	result, err := h.controller(r).AddService(r.Context(), req.ServiceID, req.Config, req.Position)
	h.respond(w, r, result, err, http.StatusCreated)
}

// DeleteService handles DELETE /api/v1/basket/services/{type}/{position}.
func (h *BasketHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	position, err := positionParam(r)
	if err != nil {
		h.respond(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := h.controller(r).DeleteService(r.Context(), chi.URLParam(r, "type"), position)
	h.respond(w, r, result, err, http.StatusOK)
}

type addCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// AddCoupon handles POST /api/v1/basket/coupons.
func (h *BasketHandler) AddCoupon(w http.ResponseWriter, r *http.Request) {
	var req addCouponRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		h.respondValidation(w, r, err)
		return
	}

	result, err := h.controller(r).AddCoupon(r.Context(), req.Code)
	h.respond(w, r, result, err, http.StatusCreated)
}

// DeleteCoupon handles DELETE /api/v1/basket/coupons/{code}.
func (h *BasketHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	result, err := h.controller(r).DeleteCoupon(r.Context(), chi.URLParam(r, "code"))
	h.respond(w, r, result, err, http.StatusOK)
}

// Checkout handles POST /api/v1/basket/checkout and finalizes the basket
// into an order.
func (h *BasketHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	order, err := h.controller(r).Store(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Data: order})
}

// LoadOrder handles POST /api/v1/basket/load/{orderID}: it re-hydrates a
// stored order into the caller's basket.
func (h *BasketHandler) LoadOrder(w http.ResponseWriter, r *http.Request) {
	requireOwnership := r.URL.Query().Get("any_owner") != "true"
	result, err := h.controller(r).LoadOrder(r.Context(), chi.URLParam(r, "orderID"), requireOwnership)
	h.respond(w, r, result, err, http.StatusOK)
}

// envelope is the standard response wrapper.
type envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respond writes the mutation result. A non-nil basket alongside an error
// means the mutation partially succeeded (stock clamp): both are returned
// under the error's status.
func (h *BasketHandler) respond(w http.ResponseWriter, r *http.Request, result *domain.Basket, err error, okStatus int) {
	if err == nil {
		writeJSON(w, okStatus, envelope{Data: result})
		return
	}

	if result != nil {
		status, body := errorParts(err)
		writeJSON(w, status, envelope{Data: result, Error: body})
		return
	}

	h.respondError(w, r, err)
}

func (h *BasketHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorParts(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", slog.String("error", err.Error()))
		body = &errorBody{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
	}
	writeJSON(w, status, envelope{Error: body})
}

func (h *BasketHandler) respondValidation(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		fields := make(map[string]any, len(validationErr.Fields()))
		for field, msg := range validationErr.Fields() {
			fields[field] = msg
		}
		writeJSON(w, http.StatusBadRequest, envelope{Error: &errorBody{
			Code:    "VALIDATION_FAILED",
			Message: validationErr.Error(),
			Details: fields,
		}})
		return
	}
	writeJSON(w, http.StatusBadRequest, envelope{Error: &errorBody{
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	}})
}

func errorParts(err error) (int, *errorBody) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, &errorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}
	return apperrors.HTTPStatus(err), &errorBody{Code: "ERROR", Message: err.Error()}
}

func positionParam(r *http.Request) (int, error) {
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || position < 0 {
		return 0, apperrors.InvalidInput("position must be a non-negative integer")
	}
	return position, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message, Details: details}})
}
