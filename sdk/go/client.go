// Package mprssdk is a minimal client for the MPRS HTTP API.
package mprssdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal MPRS HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, Timeout: 10 * time.Second}
}

// LineItem represents one requisition row.
type LineItem struct {
	ID            string `json:"id,omitempty"`
	ItemName      string `json:"item_name"`
	Specification string `json:"specification,omitempty"`
	Quantity      string `json:"quantity"`
	Unit          string `json:"unit,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	LeadTime      string `json:"lead_time,omitempty"`
	ItemCode      string `json:"item_code,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
	Status        string `json:"status,omitempty"`
}

// Requisition represents a submitted batch.
type Requisition struct {
	MPRSNo     string     `json:"mprs_no"`
	MPRSDate   string     `json:"mprs_date"`
	Title      string     `json:"title"`
	Department string     `json:"department"`
	Status     string     `json:"status"`
	Items      []LineItem `json:"items"`
}

// Summary holds the dashboard counts.
type Summary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Ordered  int `json:"ordered"`
}

// Suggestion is one line of historical precedent for an item name.
type Suggestion struct {
	Date     string `json:"date"`
	Quantity string `json:"quantity"`
	Purpose  string `json:"purpose"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Submit stores a requisition.
func (c *Client) Submit(ctx context.Context, req Requisition) (Requisition, error) {
	var resp Requisition
	err := c.do(ctx, http.MethodPost, "v0/requisitions", req, &resp)
	return resp, err
}

// Requisitions lists stored requisitions, optionally filtered by q.
func (c *Client) Requisitions(ctx context.Context, q string) ([]Requisition, error) {
	endpoint := "v0/requisitions"
	if q != "" {
		endpoint += "?q=" + url.QueryEscape(q)
	}
	var resp []Requisition
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Requisition fetches one stored requisition by number.
func (c *Client) Requisition(ctx context.Context, mprsNo string) (Requisition, error) {
	var resp Requisition
	err := c.do(ctx, http.MethodGet, "v0/requisitions/"+url.PathEscape(mprsNo), nil, &resp)
	return resp, err
}

// Stats returns the dashboard counts.
func (c *Client) Stats(ctx context.Context) (Summary, error) {
	var resp Summary
	err := c.do(ctx, http.MethodGet, "v0/stats", nil, &resp)
	return resp, err
}

// Suggestions returns recent precedent for an item name.
func (c *Client) Suggestions(ctx context.Context, itemName string) ([]Suggestion, error) {
	var resp []Suggestion
	endpoint := "v0/history/suggestions?item_name=" + url.QueryEscape(itemName)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Document downloads the PDF for a stored requisition.
func (c *Client) Document(ctx context.Context, mprsNo string) ([]byte, error) {
	endpoint := "v0/requisitions/" + url.PathEscape(mprsNo) + "/document"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/"+endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return io.ReadAll(resp.Body)
}

// Insights returns the insight summaries.
func (c *Client) Insights(ctx context.Context) ([]string, error) {
	var resp []string
	err := c.do(ctx, http.MethodGet, "v0/assist/insights", nil, &resp)
	return resp, err
}

func (c *Client) client() *http.Client {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c.HTTPClient
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
