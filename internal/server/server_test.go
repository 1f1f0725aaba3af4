package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mprs/internal/config"
	"mprs/internal/db"
	"mprs/internal/engine"
	"mprs/internal/migrate"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default(), nil)
	e.Now = func() time.Time { return time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC) }

	handler, err := New(Config{Engine: e})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func submitOne(t *testing.T, srv *httptest.Server, no, title, item string) {
	t.Helper()
	resp := postJSON(t, srv.URL+"/v0/requisitions", SubmitRequisitionRequest{
		MPRSNo: no,
		Title:  title,
		Items:  []LineItemRequest{{ItemName: item, Quantity: "10", Unit: "Pcs"}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("submit %s: status %d body %s", no, resp.StatusCode, b)
	}
}

func TestSubmitAndGet(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v0/requisitions", SubmitRequisitionRequest{
		MPRSNo: "MPRS-1",
		Title:  "Boiler spares",
		Items: []LineItemRequest{
			{ItemName: "Gasket", Quantity: "4"},
			{ItemName: "", Quantity: "9"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var created RequisitionResponse
	decodeBody(t, resp, &created)
	if created.MPRSNo != "MPRS-1" || created.Status != "Pending" {
		t.Fatalf("created: %+v", created)
	}
	if len(created.Items) != 1 || created.Items[0].Unit != "Pcs" {
		t.Fatalf("blank rows should be dropped and unit defaulted: %+v", created.Items)
	}
	if created.MPRSDate != "2024-05-06" {
		t.Fatalf("date default not applied: %q", created.MPRSDate)
	}

	var got RequisitionResponse
	getJSON(t, srv.URL+"/v0/requisitions/MPRS-1", &got)
	if got.Title != "Boiler spares" {
		t.Fatalf("get: %+v", got)
	}
}

func TestSubmitValidationError(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v0/requisitions", SubmitRequisitionRequest{
		Items: []LineItemRequest{{ItemName: "Cement", Quantity: "twenty"}},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	decodeBody(t, resp, &envelope)
	if envelope.Error.Code != "validation_failed" {
		t.Fatalf("error envelope: %+v", envelope)
	}
}

func TestGetNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp := getJSON(t, srv.URL+"/v0/requisitions/MPRS-404", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestListAndSearch(t *testing.T) {
	srv := newTestServer(t)
	submitOne(t, srv, "MPRS-1", "Boiler spares", "Gasket")
	submitOne(t, srv, "MPRS-2", "Crane service", "Wire Rope")

	var all []RequisitionResponse
	getJSON(t, srv.URL+"/v0/requisitions", &all)
	if len(all) != 2 || all[0].MPRSNo != "MPRS-2" {
		t.Fatalf("list not most-recent-first: %+v", all)
	}

	var hits []RequisitionResponse
	getJSON(t, srv.URL+"/v0/requisitions?q=gasket", &hits)
	if len(hits) != 1 || hits[0].MPRSNo != "MPRS-1" {
		t.Fatalf("search: %+v", hits)
	}
}

func TestHistorySuggestions(t *testing.T) {
	srv := newTestServer(t)
	submitOne(t, srv, "MPRS-1", "Spares", "Gasket")

	var sugg []SuggestionResponse
	getJSON(t, srv.URL+"/v0/history/suggestions?item_name=gasket", &sugg)
	if len(sugg) != 1 || sugg[0].Quantity != "10" {
		t.Fatalf("suggestions: %+v", sugg)
	}

	var none []SuggestionResponse
	getJSON(t, srv.URL+"/v0/history/suggestions?item_name=unknown", &none)
	if len(none) != 0 {
		t.Fatalf("expected no suggestions: %+v", none)
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)
	submitOne(t, srv, "MPRS-1", "Spares", "Gasket")

	var stats struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
	}
	getJSON(t, srv.URL+"/v0/stats", &stats)
	if stats.Total != 1 || stats.Pending != 1 {
		t.Fatalf("stats: %+v", stats)
	}

	var weekly []struct {
		Day   string `json:"day"`
		Count int    `json:"count"`
	}
	getJSON(t, srv.URL+"/v0/stats/weekly", &weekly)
	if len(weekly) != 7 || weekly[0].Day != "Mon" {
		t.Fatalf("weekly: %+v", weekly)
	}
	// 2024-05-06 is a Monday
	if weekly[0].Count != 1 {
		t.Fatalf("monday count: %+v", weekly[0])
	}
}

func TestDocumentExport(t *testing.T) {
	srv := newTestServer(t)
	submitOne(t, srv, "MPRS-7", "Spares", "Gasket")

	resp, err := http.Get(srv.URL + "/v0/requisitions/MPRS-7/document")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "MPRS-7.pdf") {
		t.Fatalf("content disposition %q", cd)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("body is not a PDF")
	}
}

func TestDocumentPreviewDoesNotStore(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v0/documents", SubmitRequisitionRequest{
		Title: "Draft only",
		Items: []LineItemRequest{{ItemName: "Cement", Quantity: "20"}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "MPRS_Slip.pdf") {
		t.Fatalf("fallback filename missing: %q", cd)
	}

	var all []RequisitionResponse
	getJSON(t, srv.URL+"/v0/requisitions", &all)
	if len(all) != 0 {
		t.Fatalf("preview stored a requisition: %+v", all)
	}
}

func TestAssistWithoutService(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v0/assist/specification", SuggestSpecificationRequest{ItemName: "Rod"})
	var spec struct {
		Specification string `json:"specification"`
	}
	decodeBody(t, resp, &spec)
	if spec.Specification != "" {
		t.Fatalf("no service configured, expected empty suggestion: %+v", spec)
	}

	var insights []string
	getJSON(t, srv.URL+"/v0/assist/insights", &insights)
	if len(insights) != 3 || insights[0] != "Maintain stock levels" {
		t.Fatalf("fallback insights: %v", insights)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]string
	resp := getJSON(t, srv.URL+"/v0/health", &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", resp.StatusCode, body)
	}
}
