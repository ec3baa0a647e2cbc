package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
)

const errorDomain = "comunioscore"

type responseEnvelope struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Domain  string `json:"domain"`
	Message string `json:"message"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, responseEnvelope{Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, responseEnvelope{
		Error: &errorBody{
			Code:    status,
			Domain:  errorDomain,
			Message: message,
		},
	})
}
