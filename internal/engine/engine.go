package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mprs/internal/assist"
	"mprs/internal/config"
	"mprs/internal/dashboard"
	"mprs/internal/document"
	"mprs/internal/domain"
	"mprs/internal/events"
	"mprs/internal/grid"
	"mprs/internal/history"
	"mprs/internal/store"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNoValidRows = errors.New("at least one row needs an item name and a numeric quantity")
)

// Engine wires the store, event log, config and assist service behind
// the submit/export/lookup workflows.
type Engine struct {
	DB     *sql.DB
	Store  store.Store
	Events events.Writer
	Config *config.Config
	Assist assist.Suggester
	Log    *zap.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config, log *zap.Logger) Engine {
	return Engine{
		DB:     db,
		Store:  store.New(db, log),
		Events: events.Writer{DB: db},
		Config: cfg,
		Log:    log,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop()
}

// Draft is an in-memory requisition being edited: form metadata plus the
// grid rows.
type Draft struct {
	MPRSNo     string
	MPRSDate   string
	Title      string
	Department string
	Items      []domain.LineItem
}

// rowSubmittable applies the submission filter: item name and quantity
// non-blank, quantity and lead time numeric-parseable.
func rowSubmittable(item domain.LineItem) bool {
	if strings.TrimSpace(item.ItemName) == "" {
		return false
	}
	qty := strings.TrimSpace(item.Quantity)
	if qty == "" {
		return false
	}
	if _, err := strconv.ParseFloat(qty, 64); err != nil {
		return false
	}
	if lead := strings.TrimSpace(item.LeadTime); lead != "" {
		if _, err := strconv.ParseFloat(lead, 64); err != nil {
			return false
		}
	}
	return true
}

// Submit filters the draft down to submittable rows, rejects the whole
// submission when none qualify, and prepends the resulting requisition
// to the stored history. The draft itself is never mutated, so a failed
// save leaves the operator free to retry.
func (e Engine) Submit(ctx context.Context, d Draft) (domain.Requisition, error) {
	var valid []domain.LineItem
	for _, item := range d.Items {
		if rowSubmittable(item) {
			valid = append(valid, item)
		}
	}
	if len(valid) == 0 {
		return domain.Requisition{}, ErrNoValidRows
	}

	no := strings.TrimSpace(d.MPRSNo)
	date := strings.TrimSpace(d.MPRSDate)
	if date == "" {
		date = e.now().Format("2006-01-02")
	}
	dept := d.Department
	if dept == "" {
		dept = e.Config.DefaultDepartment()
	}
	for i := range valid {
		valid[i].MPRSNo = no
		valid[i].MPRSDate = date
	}
	req := domain.Requisition{
		MPRSNo:     no,
		MPRSDate:   date,
		Title:      d.Title,
		Department: dept,
		Status:     domain.StatusPending,
		Items:      valid,
	}

	hist, err := e.Store.Load(ctx)
	if err != nil {
		return domain.Requisition{}, fmt.Errorf("load history: %w", err)
	}
	updated := append([]domain.Requisition{req}, hist...)
	if err := e.Store.Save(ctx, updated); err != nil {
		return domain.Requisition{}, fmt.Errorf("save requisition: %w", err)
	}
	if err := e.Events.Append(ctx, "requisition.submit", "requisition", no, events.EventPayload{
		"items":      len(valid),
		"department": dept,
	}); err != nil {
		e.logger().Warn("append submit event", zap.Error(err))
	}
	return req, nil
}

// History returns the stored history, most recently submitted first.
func (e Engine) History(ctx context.Context) ([]domain.Requisition, error) {
	return e.Store.Load(ctx)
}

// Get returns the first stored requisition with the given number.
func (e Engine) Get(ctx context.Context, mprsNo string) (domain.Requisition, error) {
	hist, err := e.Store.Load(ctx)
	if err != nil {
		return domain.Requisition{}, err
	}
	for _, req := range hist {
		if req.MPRSNo == mprsNo {
			return req, nil
		}
	}
	return domain.Requisition{}, ErrNotFound
}

// Search filters history by requisition number, title, or item name,
// case-insensitive substring.
func (e Engine) Search(ctx context.Context, term string) ([]domain.Requisition, error) {
	hist, err := e.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return hist, nil
	}
	var out []domain.Requisition
	for _, req := range hist {
		if matches(req, term) {
			out = append(out, req)
		}
	}
	return out, nil
}

func matches(req domain.Requisition, term string) bool {
	if strings.Contains(strings.ToLower(req.MPRSNo), term) ||
		strings.Contains(strings.ToLower(req.Title), term) {
		return true
	}
	for _, item := range req.Items {
		if strings.Contains(strings.ToLower(item.ItemName), term) {
			return true
		}
	}
	return false
}

// Stats computes the dashboard status counts from a fresh load.
func (e Engine) Stats(ctx context.Context) (dashboard.Summary, error) {
	hist, err := e.Store.Load(ctx)
	if err != nil {
		return dashboard.Summary{}, err
	}
	return dashboard.Summarize(hist), nil
}

// Weekly computes the weekday activity buckets from a fresh load.
func (e Engine) Weekly(ctx context.Context) ([]dashboard.WeekdayCount, error) {
	hist, err := e.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return dashboard.WeeklyActivity(hist), nil
}

// SuggestHistory surfaces recent precedent for an item name.
func (e Engine) SuggestHistory(ctx context.Context, itemName string) ([]domain.HistorySuggestion, error) {
	hist, err := e.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return history.Lookup(hist, itemName), nil
}

func (e Engine) layout() document.Layout {
	return document.Layout{
		Company:  e.Config.Organization.Company,
		Location: e.Config.Organization.Location,
		Title:    e.Config.Organization.DocumentTitle,
	}
}

// Export renders a requisition (draft or stored) to PDF bytes plus the
// download filename.
func (e Engine) Export(ctx context.Context, req domain.Requisition) ([]byte, string, error) {
	data, err := document.Render(e.layout(), req)
	if err != nil {
		return nil, "", err
	}
	name := document.Filename(req)
	if err := e.Events.Append(ctx, "requisition.export", "document", name, events.EventPayload{
		"items": len(req.Items),
	}); err != nil {
		e.logger().Warn("append export event", zap.Error(err))
	}
	return data, name, nil
}

// ExportStored renders a stored requisition by number.
func (e Engine) ExportStored(ctx context.Context, mprsNo string) ([]byte, string, error) {
	req, err := e.Get(ctx, mprsNo)
	if err != nil {
		return nil, "", err
	}
	return e.Export(ctx, req)
}

// AutofillSpecification runs the remote specification suggestion for one
// grid row. The result is applied only when a row with the same identity
// still exists by the time the call returns; a row removed in the
// meantime discards the late result instead of hitting whichever row now
// sits at its position. Failures count as "no suggestion".
func (e Engine) AutofillSpecification(ctx context.Context, g *grid.Grid, rowID string) (bool, error) {
	if e.Assist == nil {
		return false, nil
	}
	row, ok := g.Row(rowID)
	if !ok || strings.TrimSpace(row.ItemName) == "" {
		return false, nil
	}
	spec, err := e.Assist.SuggestSpecification(ctx, row.ItemName)
	if err != nil {
		e.logger().Debug("specification suggestion failed", zap.String("item", row.ItemName), zap.Error(err))
		return false, nil
	}
	if spec == "" {
		return false, nil
	}
	return g.UpdateCell(rowID, grid.FieldSpecification, spec), nil
}

// InsightSummaries returns remote insight bullets over the stored
// history, or the fixed fallback set when the service is unavailable,
// fails, or returns nothing.
func (e Engine) InsightSummaries(ctx context.Context) []string {
	if e.Assist == nil {
		return assist.FallbackInsights
	}
	hist, err := e.Store.Load(ctx)
	if err != nil {
		e.logger().Debug("load history for insights", zap.Error(err))
		return assist.FallbackInsights
	}
	out, err := e.Assist.Insights(ctx, hist)
	if err != nil || len(out) == 0 {
		if err != nil {
			e.logger().Debug("insights failed", zap.Error(err))
		}
		return assist.FallbackInsights
	}
	return out
}
