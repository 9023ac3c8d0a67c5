package handlers

import (
	_ "embed"
	"net/http"
	"strconv"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPISpec returns the embedded API description
func OpenAPISpec() []byte {
	return openAPISpec
}

// OpenAPI обрабатывает GET /api/openapi.yaml
func OpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Length", strconv.Itoa(len(openAPISpec)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}
