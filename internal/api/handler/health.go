package handler

import (
	"net/http"

	"github.com/teamposts/teamposts/internal/api/response"
)

// HealthHandler handles the GET /healthz endpoint.
type HealthHandler struct {
	buildSHA string
}

// NewHealthHandler creates a new HealthHandler reporting buildSHA.
func NewHealthHandler(buildSHA string) *HealthHandler {
	return &HealthHandler{buildSHA: buildSHA}
}

type healthData struct {
	Status   string `json:"status"`
	BuildSHA string `json:"buildSha"`
}

// ServeHTTP reports liveness. It performs no dependency checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, healthData{Status: "ok", BuildSHA: h.buildSHA})
}
