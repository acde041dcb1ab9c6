package handler

import (
	emiapp "github.com/finops/backend/internal/application/emi"
	"github.com/finops/backend/internal/domain/payment"
	"github.com/finops/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmiHandler handles EMI plan API endpoints
type EmiHandler struct {
	BaseHandler
	emiService *emiapp.Service
}

// NewEmiHandler creates a new EmiHandler
func NewEmiHandler(emiService *emiapp.Service) *EmiHandler {
	return &EmiHandler{emiService: emiService}
}

// RegisterRoutes registers EMI plan routes
func (h *EmiHandler) RegisterRoutes(rg *gin.RouterGroup) {
	plans := rg.Group("/emi-plans")
	{
		plans.POST("", h.CreatePlan)
		plans.GET("/:id", h.Get)
		plans.POST("/:id/installments/pay", h.PayInstallment)
	}
}

// CreatePlan handles POST /api/v1/emi-plans
func (h *EmiHandler) CreatePlan(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid or missing tenant")
		return
	}

	var req dto.CreateEmiPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		h.BadRequest(c, "Invalid start date")
		return
	}

	plan, err := h.emiService.CreatePlan(c.Request.Context(), emiapp.CreatePlanInput{
		TenantID:             tenantID,
		InvoiceID:            invoiceID,
		DownPayment:          decimal.NewFromFloat(req.DownPayment),
		NumberOfInstallments: req.NumberOfInstallments,
		InterestRate:         decimal.NewFromFloat(req.InterestRate),
		StartDate:            startDate,
		CreatedBy:            getUserID(c),
	})
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, dto.ToEmiPlanResponse(plan))
}

// Get handles GET /api/v1/emi-plans/:id
func (h *EmiHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid or missing tenant")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	plan, err := h.emiService.Get(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, dto.ToEmiPlanResponse(plan))
}

// PayInstallment handles POST /api/v1/emi-plans/:id/installments/pay
func (h *EmiHandler) PayInstallment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid or missing tenant")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	var req dto.PayInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.emiService.PayInstallment(c.Request.Context(), emiapp.PayInstallmentInput{
		TenantID:          tenantID,
		PlanID:            planID,
		InstallmentNumber: req.InstallmentNumber,
		Amount:            decimal.NewFromFloat(req.Amount),
		Method:            payment.Method(req.Method),
		ReferenceNumber:   req.ReferenceNumber,
		Remarks:           req.Remarks,
		CreatedBy:         getUserID(c),
	})
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, gin.H{
		"plan":    dto.ToEmiPlanResponse(result.Plan),
		"payment": dto.ToPaymentResponse(result.Payment, false),
	})
}
