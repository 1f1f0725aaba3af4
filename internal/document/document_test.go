package document

import (
	"bytes"
	"fmt"
	"testing"

	"mprs/internal/domain"
)

var testLayout = Layout{
	Company:  "Samuda Construction Ltd (Unit-1)",
	Location: []string{"Zone - 16, National Special Economic Zone", "Mirsarai , Chattogram."},
	Title:    "Material Purchase Requisition Slip ( MPRS )",
}

func TestFilename(t *testing.T) {
	if got := Filename(domain.Requisition{MPRSNo: "MPRS-0042"}); got != "MPRS-0042.pdf" {
		t.Fatalf("filename %q", got)
	}
	if got := Filename(domain.Requisition{MPRSNo: "  "}); got != "MPRS_Slip.pdf" {
		t.Fatalf("fallback filename %q", got)
	}
}

func TestRenderEmptyRequisition(t *testing.T) {
	data, err := Render(testLayout, domain.Requisition{Title: "Requisition for Materials"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	doc, err := render(testLayout, domain.Requisition{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Fatalf("empty requisition should fit one page, got %d", doc.PageCount())
	}
}

func TestRenderPaginatesLongTables(t *testing.T) {
	req := domain.Requisition{MPRSNo: "MPRS-1", MPRSDate: "2024-05-01", Title: "Bulk"}
	for i := 0; i < 80; i++ {
		req.Items = append(req.Items, domain.LineItem{
			ItemName:      fmt.Sprintf("Item %02d", i+1),
			Specification: "A longer specification string that wraps across multiple lines inside its column",
			Quantity:      "12",
			Unit:          "Pcs",
			Purpose:       "General maintenance of the production line",
			LeadTime:      "7",
		})
	}
	doc, err := render(testLayout, req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if doc.PageCount() < 2 {
		t.Fatalf("expected pagination, got %d page(s)", doc.PageCount())
	}
}

func TestRenderFooterPushedToFreshPage(t *testing.T) {
	// enough rows that the table still fits its page but the footer
	// cannot clear the bottom reserve
	req := domain.Requisition{MPRSNo: "MPRS-2"}
	for i := 0; i < 28; i++ {
		req.Items = append(req.Items, domain.LineItem{ItemName: "Rod", Quantity: "1", Unit: "Pcs"})
	}
	short, err := render(testLayout, domain.Requisition{MPRSNo: "MPRS-2",
		Items: []domain.LineItem{{ItemName: "Rod", Quantity: "1", Unit: "Pcs"}}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	long, err := render(testLayout, req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if long.PageCount() <= short.PageCount() {
		t.Fatalf("footer overflow did not add a page: %d vs %d", long.PageCount(), short.PageCount())
	}
}
