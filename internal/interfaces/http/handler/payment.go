package handler

import (
	"time"

	paymentapp "github.com/finops/backend/internal/application/payment"
	"github.com/finops/backend/internal/domain/payment"
	"github.com/finops/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.GET("/:id", h.Get)
		payments.PATCH("/:id/status", h.UpdateStatus)
	}
}

// Create handles POST /api/v1/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid or missing tenant")
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	in := paymentapp.CreateInput{
		TenantID:        tenantID,
		BranchID:        branchID,
		Direction:       payment.Direction(req.Direction),
		Amount:          decimal.NewFromFloat(req.Amount),
		Method:          payment.Method(req.Method),
		ReferenceNumber: req.ReferenceNumber,
		TransactionID:   req.TransactionID,
		Status:          payment.Status(req.Status),
		Remarks:         req.Remarks,
		CreatedBy:       getUserID(c),
	}

	if req.PaymentDate != nil {
		date, err := parseDate(*req.PaymentDate)
		if err != nil {
			h.BadRequest(c, "Invalid payment date")
			return
		}
		in.PaymentDate = date
	} else {
		in.PaymentDate = time.Now()
	}

	if in.CustomerID, err = parseOptionalUUID(req.CustomerID); err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}
	if in.SupplierID, err = parseOptionalUUID(req.SupplierID); err != nil {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}
	if in.InvoiceID, err = parseOptionalUUID(req.InvoiceID); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	if in.PurchaseID, err = parseOptionalUUID(req.PurchaseID); err != nil {
		h.BadRequest(c, "Invalid purchase ID")
		return
	}

	result, err := h.paymentService.Create(c.Request.Context(), in)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	resp := dto.ToPaymentResponse(result.Payment, result.Duplicate)
	if result.Duplicate {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// UpdateStatus handles PATCH /api/v1/payments/:id/status
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid or missing tenant")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	in := paymentapp.UpdateInput{
		TenantID:  tenantID,
		PaymentID: paymentID,
		Status:    payment.Status(req.Status),
	}
	if req.Amount != nil {
		amount := decimal.NewFromFloat(*req.Amount)
		in.Amount = &amount
	}

	updated, err := h.paymentService.UpdateStatus(c.Request.Context(), in)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, dto.ToPaymentResponse(updated, false))
}

// Get handles GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid or missing tenant")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	p, err := h.paymentService.Get(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, dto.ToPaymentResponse(p, false))
}

// parseOptionalUUID parses a nullable UUID string
func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
