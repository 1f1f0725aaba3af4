package history

import (
	"strings"

	"mprs/internal/domain"
)

// maxSuggestions caps how much precedent is surfaced per item name.
const maxSuggestions = 3

// Lookup scans the full stored history for line items whose name is a
// case-insensitive exact match and returns up to three suggestions in
// encounter order. The history is prepend-ordered, so the most recently
// stored requisitions come first. No match is nil, not an error.
func Lookup(hist []domain.Requisition, itemName string) []domain.HistorySuggestion {
	name := strings.TrimSpace(itemName)
	if name == "" {
		return nil
	}
	var out []domain.HistorySuggestion
	for _, req := range hist {
		for _, item := range req.Items {
			if item.ItemName == "" || !strings.EqualFold(item.ItemName, name) {
				continue
			}
			out = append(out, domain.HistorySuggestion{
				Date:     item.MPRSDate,
				Quantity: item.Quantity,
				Purpose:  item.Purpose,
			})
			if len(out) == maxSuggestions {
				return out
			}
		}
	}
	return out
}
