package dto

import (
	"time"

	"github.com/finops/backend/internal/domain/report"
)

// TransactionFeedRequest carries the query parameters of a feed request
// @Description Transaction feed query
type TransactionFeedRequest struct {
	BranchID  string   `form:"branch_id" binding:"required,uuid"`
	StartDate *string  `form:"start_date" binding:"omitempty,date"`
	EndDate   *string  `form:"end_date" binding:"omitempty,date"`
	Types     []string `form:"type" binding:"omitempty,dive,oneof=invoice payment purchase ledger_entry"`
	Effect    *string  `form:"effect" binding:"omitempty,oneof=debit credit"`
	PartyID   *string  `form:"party_id" binding:"omitempty,uuid"`
	Search    string   `form:"search" binding:"max=100"`
	Sort      string   `form:"sort" binding:"omitempty,oneof=asc desc"`
	Page      int      `form:"page" binding:"omitempty,min=1"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=200"`
}

// TransactionRecordResponse represents one unified feed row
// @Description Transaction feed row
type TransactionRecordResponse struct {
	Type        string    `json:"type" example:"payment"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount" example:"500.00"`
	Effect      string    `json:"effect" example:"credit"`
	RefID       string    `json:"ref_id"`
	RefNumber   string    `json:"ref_number,omitempty"`
	PartyID     *string   `json:"party_id,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ToTransactionRecordResponses maps domain feed rows to their API shape
func ToTransactionRecordResponses(records []report.TransactionRecord) []TransactionRecordResponse {
	out := make([]TransactionRecordResponse, len(records))
	for i, rec := range records {
		out[i] = TransactionRecordResponse{
			Type:        string(rec.Type),
			Date:        rec.Date,
			Amount:      rec.Amount.InexactFloat64(),
			Effect:      string(rec.Effect),
			RefID:       rec.RefID.String(),
			RefNumber:   rec.RefNumber,
			Description: rec.Description,
		}
		if rec.PartyID != nil {
			s := rec.PartyID.String()
			out[i].PartyID = &s
		}
	}
	return out
}
