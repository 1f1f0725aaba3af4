package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"mprs/internal/engine"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string `json:"code" example:"validation_failed"`
	Message string `json:"message" example:"at least one row needs an item name and a numeric quantity"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the MPRS API. The application is
// single-user on-device, so there is no authentication layer.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("MPRS API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerRequisitions(group, cfg.Engine)
	registerDocuments(group, cfg.Engine)
	registerDashboard(group, cfg.Engine)
	registerAssist(group, cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body:   apiErrorBody{Code: code, Message: message},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, engine.ErrNoValidRows):
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerRequisitions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-requisitions",
		Method:      http.MethodGet,
		Path:        "/requisitions",
		Summary:     "List or search stored requisitions",
	}, func(ctx context.Context, input *struct {
		Q string `query:"q" doc:"Filter by MPRS number, title, or item name"`
	}) (*struct {
		Body []RequisitionResponse `json:"body"`
	}, error) {
		items, err := e.Search(ctx, input.Q)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []RequisitionResponse `json:"body"`
		}{Body: mapRequisitions(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "submit-requisition",
		Method:        http.MethodPost,
		Path:          "/requisitions",
		Summary:       "Submit a requisition",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body SubmitRequisitionRequest `json:"body"`
	}) (*struct {
		Body RequisitionResponse `json:"body"`
	}, error) {
		req, err := e.Submit(ctx, input.Body.draft(e.Now()))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RequisitionResponse `json:"body"`
		}{Body: requisitionResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-requisition",
		Method:      http.MethodGet,
		Path:        "/requisitions/{mprs_no}",
		Summary:     "Get a stored requisition by number",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MPRSNo string `path:"mprs_no"`
	}) (*struct {
		Body RequisitionResponse `json:"body"`
	}, error) {
		req, err := e.Get(ctx, input.MPRSNo)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RequisitionResponse `json:"body"`
		}{Body: requisitionResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "history-suggestions",
		Method:      http.MethodGet,
		Path:        "/history/suggestions",
		Summary:     "Recent precedent for an item name",
	}, func(ctx context.Context, input *struct {
		ItemName string `query:"item_name"`
	}) (*struct {
		Body []SuggestionResponse `json:"body"`
	}, error) {
		items, err := e.SuggestHistory(ctx, input.ItemName)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []SuggestionResponse `json:"body"`
		}{Body: mapSuggestions(items)}, nil
	})
}

type documentResponse struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func documentOutput(data []byte, name string) *documentResponse {
	return &documentResponse{
		ContentType:        "application/pdf",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", url.PathEscape(name)),
		Body:               data,
	}
}

func registerDocuments(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "export-requisition",
		Method:      http.MethodGet,
		Path:        "/requisitions/{mprs_no}/document",
		Summary:     "Export a stored requisition as PDF",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		MPRSNo string `path:"mprs_no"`
	}) (*documentResponse, error) {
		data, name, err := e.ExportStored(ctx, input.MPRSNo)
		if err != nil {
			return nil, handleError(err)
		}
		return documentOutput(data, name), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "preview-document",
		Method:      http.MethodPost,
		Path:        "/documents",
		Summary:     "Render a draft requisition as PDF without storing it",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body SubmitRequisitionRequest `json:"body"`
	}) (*documentResponse, error) {
		data, name, err := e.Export(ctx, input.Body.requisition(e.Now()))
		if err != nil {
			return nil, handleError(err)
		}
		return documentOutput(data, name), nil
	})
}

func registerDashboard(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Dashboard status counts",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Total    int `json:"total"`
			Pending  int `json:"pending"`
			Approved int `json:"approved"`
			Ordered  int `json:"ordered"`
		} `json:"body"`
	}, error) {
		s, err := e.Stats(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Total    int `json:"total"`
				Pending  int `json:"pending"`
				Approved int `json:"approved"`
				Ordered  int `json:"ordered"`
			} `json:"body"`
		}{}
		out.Body.Total = s.Total
		out.Body.Pending = s.Pending
		out.Body.Approved = s.Approved
		out.Body.Ordered = s.Ordered
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "weekly-activity",
		Method:      http.MethodGet,
		Path:        "/stats/weekly",
		Summary:     "Requisition counts per weekday",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []struct {
			Day   string `json:"day"`
			Count int    `json:"count"`
		} `json:"body"`
	}, error) {
		buckets, err := e.Weekly(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body []struct {
				Day   string `json:"day"`
				Count int    `json:"count"`
			} `json:"body"`
		}{}
		for _, b := range buckets {
			out.Body = append(out.Body, struct {
				Day   string `json:"day"`
				Count int    `json:"count"`
			}{Day: b.Day, Count: b.Count})
		}
		return out, nil
	})
}

func registerAssist(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "suggest-specification",
		Method:      http.MethodPost,
		Path:        "/assist/specification",
		Summary:     "Remote specification suggestion for an item name",
	}, func(ctx context.Context, input *struct {
		Body SuggestSpecificationRequest `json:"body"`
	}) (*struct {
		Body struct {
			Specification string `json:"specification"`
		} `json:"body"`
	}, error) {
		out := &struct {
			Body struct {
				Specification string `json:"specification"`
			} `json:"body"`
		}{}
		if e.Assist == nil {
			return out, nil
		}
		spec, err := e.Assist.SuggestSpecification(ctx, input.Body.ItemName)
		if err != nil {
			// Best-effort: a failed suggestion is the same as none.
			return out, nil
		}
		out.Body.Specification = spec
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "insights",
		Method:      http.MethodGet,
		Path:        "/assist/insights",
		Summary:     "Short insight summaries over the stored history",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []string `json:"body"`
	}, error) {
		return &struct {
			Body []string `json:"body"`
		}{Body: e.InsightSummaries(ctx)}, nil
	})
}
