package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trustmod/registry/db/models"
	"github.com/trustmod/registry/internal/apierr"
	"github.com/trustmod/registry/internal/ingest"
	"github.com/trustmod/registry/internal/logging"
)

type PackageHandler struct {
	orch *ingest.Orchestrator
}

func NewPackageHandler(orch *ingest.Orchestrator) *PackageHandler {
	return &PackageHandler{orch: orch}
}

type packageMetadata struct {
	Name    string `json:"Name"`
	Version string `json:"Version"`
	ID      string `json:"ID"`
}

type packageData struct {
	Content   string `json:"Content,omitempty"`
	URL       string `json:"URL,omitempty"`
	JSProgram string `json:"JSProgram,omitempty"`
}

type packageResponse struct {
	Metadata packageMetadata `json:"metadata"`
	Data     packageData     `json:"data"`
}

type uploadRequest struct {
	Content   string `json:"Content"`
	URL       string `json:"URL"`
	JSProgram string `json:"JSProgram"`
}

type updateRequest struct {
	Metadata packageMetadata `json:"metadata" binding:"required"`
	Data     uploadRequest   `json:"data" binding:"required"`
}

// Create handles POST /package: the full ingestion pipeline.
func (h *PackageHandler) Create(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Request body is not valid JSON")
		return
	}

	result, err := h.orch.Ingest(c.Request.Context(), actorFrom(c), ingest.Submission{
		Content:   req.Content,
		URL:       req.URL,
		JSProgram: req.JSProgram,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(result))
}

// Get handles GET /package/:id.
func (h *PackageHandler) Get(c *gin.Context) {
	result, err := h.orch.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(result))
}

// Rate handles GET /package/:id/rate.
func (h *PackageHandler) Rate(c *gin.Context) {
	rating, err := h.orch.Rate(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"BusFactor":              rating.BusFactor,
		"Correctness":            rating.Correctness,
		"RampUp":                 rating.RampUp,
		"ResponsiveMaintainer":   rating.ResponsiveMaintainer,
		"LicenseScore":           rating.LicenseScore,
		"GoodPinningPractice":    rating.GoodPinningPractice,
		"GoodEngineeringProcess": rating.GoodEngineeringProcess,
		"NetScore":               rating.NetScore,
	})
}

// Update handles PUT /package/:id.
func (h *PackageHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Request body is not valid JSON")
		return
	}

	err := h.orch.Update(c.Request.Context(), actorFrom(c),
		c.Param("id"), req.Metadata.Name, req.Metadata.Version,
		ingest.Submission{Content: req.Data.Content, JSProgram: req.Data.JSProgram})
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Version is updated.")
}

// Delete handles DELETE /package/:id.
func (h *PackageHandler) Delete(c *gin.Context) {
	if err := h.orch.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Package is deleted.")
}

// HistoryByName handles GET /package/byName/:name.
func (h *PackageHandler) HistoryByName(c *gin.Context) {
	entries, err := h.orch.HistoryByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHistoryResponse(entries))
}

// DeleteByName handles DELETE /package/byName/:name.
func (h *PackageHandler) DeleteByName(c *gin.Context) {
	if err := h.orch.DeleteByName(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Package is deleted.")
}

func toResponse(result *ingest.Result) packageResponse {
	return packageResponse{
		Metadata: packageMetadata{
			Name:    result.Package.Name,
			Version: result.Package.Version,
			ID:      result.Package.ID,
		},
		Data: packageData{
			Content:   result.Content,
			URL:       result.Package.URL,
			JSProgram: result.Package.JSProgram,
		},
	}
}

type historyUser struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

type historyEntryResponse struct {
	User            historyUser     `json:"User"`
	Date            string          `json:"Date"`
	PackageMetadata packageMetadata `json:"PackageMetadata"`
	Action          string          `json:"Action"`
}

func toHistoryResponse(entries []models.PackageHistoryEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = historyEntryResponse{
			User: historyUser{Name: e.UserName, IsAdmin: e.IsAdmin},
			Date: e.Date.Format(time.RFC3339),
			PackageMetadata: packageMetadata{
				Name:    e.Name,
				Version: e.Version,
				ID:      e.PackageID,
			},
			Action: e.Action,
		}
	}
	return out
}

func respondError(c *gin.Context, err error) {
	status, msg := apierr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logging.Log.Errorw("request failed", "path", c.FullPath(), "error", err)
	}
	c.String(status, msg)
}
