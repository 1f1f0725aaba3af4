package history

import (
	"testing"

	"mprs/internal/domain"
)

func req(no, date string, names ...string) domain.Requisition {
	r := domain.Requisition{MPRSNo: no, MPRSDate: date, Status: domain.StatusPending}
	for _, n := range names {
		r.Items = append(r.Items, domain.LineItem{
			ItemName: n,
			MPRSDate: date,
			Quantity: "5",
			Purpose:  "maintenance " + no,
		})
	}
	return r
}

func TestLookupNoMatch(t *testing.T) {
	hist := []domain.Requisition{req("R-1", "2024-05-01", "Cement", "Sand")}
	if got := Lookup(hist, "Gravel"); got != nil {
		t.Fatalf("expected no suggestions, got %v", got)
	}
	if got := Lookup(nil, "Cement"); got != nil {
		t.Fatalf("expected nil on empty history, got %v", got)
	}
}

func TestLookupBlankName(t *testing.T) {
	hist := []domain.Requisition{req("R-1", "2024-05-01", "Cement")}
	if got := Lookup(hist, "   "); got != nil {
		t.Fatalf("blank name should yield nothing, got %v", got)
	}
}

func TestLookupCaseInsensitiveExact(t *testing.T) {
	hist := []domain.Requisition{req("R-1", "2024-05-01", "Cement")}
	if got := Lookup(hist, "cEmEnT"); len(got) != 1 {
		t.Fatalf("case-insensitive match failed: %v", got)
	}
	// substring is not a match
	if got := Lookup(hist, "Cem"); got != nil {
		t.Fatalf("substring should not match: %v", got)
	}
}

func TestLookupLimitAndOrder(t *testing.T) {
	hist := []domain.Requisition{
		req("R-4", "2024-05-04", "Cement"),
		req("R-3", "2024-05-03", "Cement", "Cement"),
		req("R-2", "2024-05-02", "Cement"),
		req("R-1", "2024-05-01", "Cement"),
	}
	got := Lookup(hist, "Cement")
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(got))
	}
	if got[0].Date != "2024-05-04" || got[1].Date != "2024-05-03" || got[2].Date != "2024-05-03" {
		t.Fatalf("suggestions out of store order: %v", got)
	}
}
