package server

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"mprs/internal/domain"
	"mprs/internal/engine"
)

// Request payloads

type LineItemRequest struct {
	ItemName      string `json:"item_name"`
	Specification string `json:"specification,omitempty"`
	Quantity      string `json:"quantity"`
	Unit          string `json:"unit,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	LeadTime      string `json:"lead_time,omitempty"`
	ItemCode      string `json:"item_code,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
}

type SubmitRequisitionRequest struct {
	MPRSNo     string            `json:"mprs_no,omitempty"`
	MPRSDate   string            `json:"mprs_date,omitempty"`
	Title      string            `json:"title,omitempty"`
	Department string            `json:"department,omitempty"`
	Items      []LineItemRequest `json:"items"`
}

type SuggestSpecificationRequest struct {
	ItemName string `json:"item_name"`
}

// Response payloads

type LineItemResponse struct {
	ID            string `json:"id"`
	ItemName      string `json:"item_name"`
	Specification string `json:"specification,omitempty"`
	Quantity      string `json:"quantity"`
	Unit          string `json:"unit"`
	Purpose       string `json:"purpose,omitempty"`
	LeadTime      string `json:"lead_time,omitempty"`
	ItemCode      string `json:"item_code,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
	Status        string `json:"status" enum:"Pending,Approved,Ordered"`
}

type RequisitionResponse struct {
	MPRSNo     string             `json:"mprs_no"`
	MPRSDate   string             `json:"mprs_date"`
	Title      string             `json:"title"`
	Department string             `json:"department"`
	Status     string             `json:"status" enum:"Pending,Approved,Ordered"`
	Items      []LineItemResponse `json:"items"`
}

type SuggestionResponse struct {
	Date     string `json:"date"`
	Quantity string `json:"quantity"`
	Purpose  string `json:"purpose"`
}

func (r SubmitRequisitionRequest) draft(now time.Time) engine.Draft {
	d := engine.Draft{
		MPRSNo:     r.MPRSNo,
		MPRSDate:   r.MPRSDate,
		Title:      r.Title,
		Department: r.Department,
	}
	date := strings.TrimSpace(r.MPRSDate)
	if date == "" {
		date = now.Format("2006-01-02")
	}
	for _, item := range r.Items {
		unit := item.Unit
		if unit == "" {
			unit = "Pcs"
		}
		d.Items = append(d.Items, domain.LineItem{
			ID:            uuid.NewString(),
			MPRSDate:      date,
			ItemName:      item.ItemName,
			Specification: item.Specification,
			Quantity:      item.Quantity,
			Unit:          unit,
			Purpose:       item.Purpose,
			LeadTime:      item.LeadTime,
			ItemCode:      item.ItemCode,
			Remarks:       item.Remarks,
			Status:        domain.StatusPending,
			CreatedAt:     now.UTC().Format(time.RFC3339),
		})
	}
	return d
}

// requisition builds an unfiltered draft requisition for PDF preview;
// only rows with an item name are carried, matching the form's preview.
func (r SubmitRequisitionRequest) requisition(now time.Time) domain.Requisition {
	d := r.draft(now)
	req := domain.Requisition{
		MPRSNo:     strings.TrimSpace(r.MPRSNo),
		MPRSDate:   r.MPRSDate,
		Title:      r.Title,
		Department: r.Department,
		Status:     domain.StatusPending,
	}
	for _, item := range d.Items {
		if strings.TrimSpace(item.ItemName) == "" {
			continue
		}
		req.Items = append(req.Items, item)
	}
	return req
}

func requisitionResponse(req domain.Requisition) RequisitionResponse {
	out := RequisitionResponse{
		MPRSNo:     req.MPRSNo,
		MPRSDate:   req.MPRSDate,
		Title:      req.Title,
		Department: req.Department,
		Status:     req.Status,
		Items:      []LineItemResponse{},
	}
	for _, item := range req.Items {
		out.Items = append(out.Items, LineItemResponse{
			ID:            item.ID,
			ItemName:      item.ItemName,
			Specification: item.Specification,
			Quantity:      item.Quantity,
			Unit:          item.Unit,
			Purpose:       item.Purpose,
			LeadTime:      item.LeadTime,
			ItemCode:      item.ItemCode,
			Remarks:       item.Remarks,
			Status:        item.Status,
		})
	}
	return out
}

func mapRequisitions(items []domain.Requisition) []RequisitionResponse {
	out := make([]RequisitionResponse, 0, len(items))
	for _, req := range items {
		out = append(out, requisitionResponse(req))
	}
	return out
}

func mapSuggestions(items []domain.HistorySuggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, SuggestionResponse{Date: s.Date, Quantity: s.Quantity, Purpose: s.Purpose})
	}
	return out
}
