package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidQuantity     = "invalid_quantity"
	codeUnauthorized        = "unauthorized"
	codeSupplyExhausted     = "supply_exhausted"
	codeAllocationExhausted = "allocation_exhausted"
	codeUpstreamTimeout     = "upstream_timeout"
	codeInvalidSignature    = "invalid_signature"
	codeMalformedEvent      = "malformed_event"
	codeOrderNotFound       = "order_not_found"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
