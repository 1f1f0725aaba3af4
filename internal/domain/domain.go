package domain

// Requisition status vocabulary.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusOrdered  = "Ordered"
)

// LineItem is one row of a requisition: one requested material.
// Quantity and LeadTime stay editable text while drafting; submission
// requires them to parse as numbers.
type LineItem struct {
	ID            string `json:"id"`
	MPRSNo        string `json:"mprs_no"`
	MPRSDate      string `json:"mprs_date"`
	ItemName      string `json:"item_name"`
	Specification string `json:"specification"`
	Quantity      string `json:"quantity"`
	Unit          string `json:"unit"`
	Purpose       string `json:"purpose"`
	LeadTime      string `json:"lead_time"`
	ItemCode      string `json:"item_code"`
	Remarks       string `json:"remarks"`
	Status        string `json:"status" enum:"Pending,Approved,Ordered"`
	CreatedAt     string `json:"created_at" format:"date-time"`
}

// Requisition is a submitted batch of line items.
type Requisition struct {
	MPRSNo     string     `json:"mprs_no"`
	MPRSDate   string     `json:"mprs_date"`
	Title      string     `json:"title"`
	Department string     `json:"department"`
	Status     string     `json:"status" enum:"Pending,Approved,Ordered"`
	Items      []LineItem `json:"items"`
}

// HistorySuggestion is a transient projection of a past line item,
// shown as precedent while the operator types an item name.
type HistorySuggestion struct {
	Date     string `json:"date"`
	Quantity string `json:"quantity"`
	Purpose  string `json:"purpose"`
}
