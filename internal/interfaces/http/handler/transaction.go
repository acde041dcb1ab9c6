package handler

import (
	reportapp "github.com/finops/backend/internal/application/report"
	"github.com/finops/backend/internal/domain/report"
	"github.com/finops/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler serves the unified transaction feed
type TransactionHandler struct {
	BaseHandler
	feedService *reportapp.FeedService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(feedService *reportapp.FeedService) *TransactionHandler {
	return &TransactionHandler{feedService: feedService}
}

// RegisterRoutes registers transaction feed routes
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/transactions", h.Feed)
}

// Feed handles GET /api/v1/transactions
func (h *TransactionHandler) Feed(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid or missing tenant")
		return
	}

	var req dto.TransactionFeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	filter := report.FeedFilter{
		TenantID: tenantID,
		BranchID: branchID,
		Search:   req.Search,
		SortDesc: req.Sort != "asc",
		Page:     req.Page,
		Limit:    req.Limit,
	}

	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			h.BadRequest(c, "Invalid start date")
			return
		}
		filter.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			h.BadRequest(c, "Invalid end date")
			return
		}
		filter.EndDate = &end
	}
	for _, t := range req.Types {
		filter.Types = append(filter.Types, report.TransactionType(t))
	}
	if req.Effect != nil {
		effect := report.Effect(*req.Effect)
		filter.Effect = &effect
	}
	if filter.PartyID, err = parseOptionalUUID(req.PartyID); err != nil {
		h.BadRequest(c, "Invalid party ID")
		return
	}

	page, err := h.feedService.Query(c.Request.Context(), filter)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.ToTransactionRecordResponses(page.Results), page.Total, page.Page, page.Limit)
}
