package controllers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/documents"
	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/middleware"
	"github.com/sweetdelights/bakery-api/pricing"
	"github.com/sweetdelights/bakery-api/repository"
)

// CartItemRequest is one line of a submitted cart. Name and price are the
// snapshot the client priced the cart with.
type CartItemRequest struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// PlaceOrderRequest represents the request body for placing an order
type PlaceOrderRequest struct {
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   string            `json:"customer_phone"`
	PaymentMethod   string            `json:"payment_method"`
	Items           []CartItemRequest `json:"items"`
	DiscountApplied bool              `json:"discount_applied"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	SubtotalAmount  *decimal.Decimal  `json:"subtotal_amount"`
}

type orderItemResponse struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
}

type orderResponse struct {
	ID              uint                `json:"id"`
	OrderID         string              `json:"order_id"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone"`
	SubtotalAmount  string              `json:"subtotal_amount"`
	DiscountApplied bool                `json:"discount_applied"`
	DiscountAmount  string              `json:"discount_amount"`
	TotalAmount     string              `json:"total_amount"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentLabel    string              `json:"payment_label"`
	OrderDate       time.Time           `json:"order_date"`
	CreatedBy       *uint               `json:"created_by,omitempty"`
	Items           []orderItemResponse `json:"items,omitempty"`
}

func newOrderResponse(v *repository.OrderView) orderResponse {
	resp := orderResponse{
		ID:              v.ID,
		OrderID:         v.OrderID,
		CustomerName:    v.CustomerName,
		CustomerEmail:   v.CustomerEmail,
		CustomerPhone:   v.CustomerPhone,
		SubtotalAmount:  money(v.Subtotal),
		DiscountApplied: v.DiscountApplied,
		DiscountAmount:  money(v.DiscountAmount),
		TotalAmount:     money(v.FinalTotal),
		PaymentMethod:   v.PaymentMethod,
		PaymentLabel:    v.PaymentLabel,
		OrderDate:       v.OrderDate,
		CreatedBy:       v.CreatedBy,
	}
	for _, item := range v.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   money(item.UnitPrice),
			TotalPrice:  money(item.LineTotal),
		})
	}
	return resp
}

// CreateOrder handles POST /api/v1/orders - prices the cart and records the order
func CreateOrder(c *gin.Context) {
	ctx := requestContext(c)

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}

	lines := make([]pricing.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, pricing.LineItem{
			ProductID:   item.ID,
			ProductName: item.Name,
			UnitPrice:   item.Price,
			Quantity:    item.Quantity,
		})
	}

	quote, err := pricing.PriceCart(lines, pricing.Claim{
		DiscountApplied: req.DiscountApplied,
		DiscountAmount:  req.DiscountAmount,
		Subtotal:        req.SubtotalAmount,
	})
	if err != nil {
		var pricingErr *pricing.PricingError
		if errors.As(err, &pricingErr) {
			logger.Info(ctx, "order rejected", "code", pricingErr.Code, "reason", pricingErr.Message)
			respondError(c, http.StatusBadRequest, pricingErr.Code, pricingErr.Message)
			return
		}
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	var createdBy *uint
	if userID, err := middleware.GetUserID(c); err == nil {
		createdBy = &userID
	}

	repo, err := orderRepository()
	if err != nil {
		logger.Error(ctx, "failed to detect order schema", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order")
		return
	}

	order, err := repo.CreateOrder(ctx, repository.CreateOrderInput{
		Customer: repository.CustomerInfo{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		PaymentMethod: req.PaymentMethod,
		Lines:         quote.Lines,
		Breakdown:     quote.Breakdown,
		CreatedBy:     createdBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMissingCustomerName):
			respondError(c, http.StatusBadRequest, "MISSING_CUSTOMER_NAME", "Customer name is required")
		case errors.Is(err, repository.ErrOrderIDExhausted):
			respondError(c, http.StatusInternalServerError, "ORDER_ID_EXHAUSTED", "Could not allocate an order number, please retry")
		case errors.Is(err, repository.ErrOrderCreationFailed):
			respondError(c, http.StatusInternalServerError, "ORDER_CREATION_FAILED", "Failed to create order")
		default:
			logger.Error(ctx, "order placement failed", "error", err)
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order")
		}
		return
	}

	logger.Info(ctx, "order placed", "order_id", order.OrderID, "total", money(order.FinalTotal))
	respondData(c, http.StatusCreated, newOrderResponse(order))
}

// GetOrders handles GET /api/v1/orders - order history, newest first
func GetOrders(c *gin.Context) {
	ctx := requestContext(c)

	repo, err := orderRepository()
	if err != nil {
		logger.Error(ctx, "failed to detect order schema", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve orders")
		return
	}

	orders, err := repo.ListOrders(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list orders", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve orders")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}
	respondData(c, http.StatusOK, resp)
}

// loadOrder fetches the order named in the path and writes the error
// response itself when that fails.
func loadOrder(c *gin.Context) (*repository.OrderView, bool) {
	ctx := requestContext(c)
	orderID := c.Param("order_id")

	repo, err := orderRepository()
	if err != nil {
		logger.Error(ctx, "failed to detect order schema", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve order")
		return nil, false
	}

	order, err := repo.GetCanonicalOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return nil, false
		}
		logger.Error(ctx, "failed to load order", "order_id", orderID, "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve order")
		return nil, false
	}
	return order, true
}

// GetOrder handles GET /api/v1/orders/:order_id
func GetOrder(c *gin.Context) {
	order, ok := loadOrder(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, newOrderResponse(order))
}

// GetOrderInvoice handles GET /api/v1/orders/:order_id/invoice
func GetOrderInvoice(c *gin.Context) {
	renderOrderDocument(c, "invoice", (*documents.Renderer).RenderInvoice)
}

// GetOrderReceipt handles GET /api/v1/orders/:order_id/receipt
func GetOrderReceipt(c *gin.Context) {
	renderOrderDocument(c, "receipt", (*documents.Renderer).RenderReceipt)
}

func renderOrderDocument(c *gin.Context, kind string, render func(*documents.Renderer, io.Writer, *repository.OrderView) error) {
	order, ok := loadOrder(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render(newRenderer(), &buf, order); err != nil {
		logger.Error(requestContext(c), "failed to render document", "kind", kind, "order_id", order.OrderID, "error", err)
		respondError(c, http.StatusInternalServerError, "DOCUMENT_ERROR", "Failed to generate "+kind)
		return
	}

	sendPDF(c, documents.Filename(kind, order.OrderID), &buf)
}

func newRenderer() *documents.Renderer {
	name := ""
	if cfg := config.GetConfig(); cfg != nil {
		name = cfg.BusinessName
	}
	return documents.NewRenderer(name)
}

func sendPDF(c *gin.Context, filename string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
