/**
 * @description
 * HTTP handlers for listing and invoking tools. Invocation failures are mapped
 * to a status code and a JSON error envelope; upstream Monzo bodies and the
 * access token never appear in responses.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app: The tool registry.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/benfdking/monzo-mcp/internal/app"
	"github.com/benfdking/monzo-mcp/pkg/monzoclient"
	"github.com/go-chi/chi/v5"
)

const maxArgumentBytes = 1 << 20

// ToolInvoker is the registry surface used by the handlers.
type ToolInvoker interface {
	Tools() []app.Tool
	Invoke(ctx context.Context, name string, args json.RawMessage, caller string) (*app.Invocation, error)
}

// ProbeReporter exposes the last credential probe outcome.
type ProbeReporter interface {
	Status() (app.ProbeStatus, bool)
}

// ToolHandlers serves the tool endpoints.
type ToolHandlers struct {
	registry ToolInvoker
	probe    ProbeReporter
}

// NewToolHandlers creates handlers. probe may be nil.
func NewToolHandlers(registry ToolInvoker, probe ProbeReporter) *ToolHandlers {
	return &ToolHandlers{registry: registry, probe: probe}
}

type errorBody struct {
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	StatusCode     int    `json:"status_code,omitempty"`
	ReauthRequired bool   `json:"reauth_required,omitempty"`
}

// HealthHandler reports liveness and, once a probe has run, credential health.
func (h *ToolHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "healthy"}
	if h.probe != nil {
		if status, ok := h.probe.Status(); ok {
			resp["credential"] = status
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListToolsHandler returns every tool with its input schema.
func (h *ToolHandlers) ListToolsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": h.registry.Tools()})
}

// InvokeToolHandler runs the tool named in the path with the request body as arguments.
func (h *ToolHandlers) InvokeToolHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	caller, ok := GetCaller(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Message: "caller not authenticated"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxArgumentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, errorBody{Kind: string(app.KindInvalidArgument), Message: "request body too large"})
		return
	}

	inv, err := h.registry.Invoke(r.Context(), name, body, caller)
	if err != nil {
		h.writeInvokeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *ToolHandlers) writeInvokeError(w http.ResponseWriter, err error) {
	kind := app.ClassifyError(err)
	status, body := errorResponse(kind, err)

	var limitErr *app.RateLimitedError
	if errors.As(err, &limitErr) {
		w.Header().Set("Retry-After", strconv.Itoa(limitErr.RetryAfterSeconds))
	}
	if status >= http.StatusInternalServerError {
		log.Printf("level=error component=api msg=\"tool invocation failed\" kind=%s status=%d err=%v", kind, status, err)
	}
	writeError(w, status, body)
}

// errorResponse maps a classified invocation error to an HTTP status and envelope.
func errorResponse(kind app.ErrorKind, err error) (int, errorBody) {
	body := errorBody{Kind: string(kind), Message: err.Error()}

	switch kind {
	case app.KindInvalidArgument:
		var argErr *app.ArgumentError
		if errors.As(err, &argErr) {
			body.Field = argErr.Field
		}
		return http.StatusBadRequest, body
	case app.KindUnknownEnumValue:
		return http.StatusBadRequest, body
	case app.KindUnknownTool:
		return http.StatusNotFound, body
	case app.KindRateLimited:
		return http.StatusTooManyRequests, body
	case app.KindAPI:
		var apiErr *monzoclient.APIError
		errors.As(err, &apiErr)
		body.StatusCode = apiErr.StatusCode
		body.ReauthRequired = apiErr.IsUnauthorized()
		if body.ReauthRequired {
			body.Message = "Monzo rejected the access token; re-authentication required"
		}
		return http.StatusBadGateway, body
	case app.KindTransport:
		var transportErr *monzoclient.TransportError
		if errors.As(err, &transportErr) && transportErr.Timeout() {
			return http.StatusGatewayTimeout, body
		}
		return http.StatusBadGateway, body
	case app.KindDecode:
		return http.StatusBadGateway, body
	default:
		body.Message = "internal error"
		return http.StatusInternalServerError, body
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, map[string]errorBody{"error": body})
}

func writeAuthError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Message: message})
}
