package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *App) handleHealthz(c *gin.Context) {
	ds, loadedAt, generation := a.dataset.snapshot()
	if ds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"provinces":  len(ds.Provinces),
		"regencies":  len(ds.Regencies),
		"districts":  len(ds.Districts),
		"loaded_at":  loadedAt,
		"generation": generation,
	})
}

// requireDataset answers 503 until the first successful load has been
// applied.
func (a *App) requireDataset(c *gin.Context) (*RegionDataset, bool) {
	ds := a.currentDataset()
	if ds == nil {
		writeAPIError(c, &apiError{Status: http.StatusServiceUnavailable, Code: "dataset_unavailable", Message: "Region dataset not loaded"})
		return nil, false
	}
	return ds, true
}

func (a *App) handleListProvinces(c *gin.Context) {
	ds, ok := a.requireDataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"provinces": ds.Provinces})
}

func (a *App) handleListRegencies(c *gin.Context) {
	ds, ok := a.requireDataset(c)
	if !ok {
		return
	}
	province := ds.ProvinceByID(c.Param("id"))
	if province == nil {
		writeAPIError(c, &apiError{Status: http.StatusNotFound, Code: "province_not_found", Message: "Province not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"province": province, "regencies": ds.RegenciesOf(province.ID)})
}

func (a *App) handleListDistricts(c *gin.Context) {
	ds, ok := a.requireDataset(c)
	if !ok {
		return
	}
	regency := ds.RegencyByID(c.Param("id"))
	if regency == nil {
		writeAPIError(c, &apiError{Status: http.StatusNotFound, Code: "regency_not_found", Message: "Regency not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"regency": regency, "districts": ds.DistrictsOf(regency.ID)})
}

// handleGetSelection derives the selection for the request's own query
// string. The response echoes the canonical query for the derived chain, so a
// client can swap its URL state to it and land on the same selection.
func (a *App) handleGetSelection(c *gin.Context) {
	ds, ok := a.requireDataset(c)
	if !ok {
		return
	}
	state := deriveSelection(ds, selectionQueryFromValues(c.Request.URL.Query()))
	canonical := encodeSelection(state)
	c.JSON(http.StatusOK, gin.H{
		"state":        state,
		"query":        canonical,
		"query_string": canonical.Encode(),
	})
}

type transitionPayload struct {
	Query map[string]string `json:"query"`
	ID    string            `json:"id"`
}

func (p transitionPayload) selectionQuery() SelectionQuery {
	q := SelectionQuery{}
	for _, key := range []string{queryKeyProvince, queryKeyRegency, queryKeyDistrict} {
		if v := p.Query[key]; v != "" {
			q[key] = v
		}
	}
	return q
}

// Transition handlers are stateless: the client sends its current query
// mapping plus the chosen id and gets back the complete replacement mapping
// with the state derived from it. The mapping is replaced whole, never
// merged.

func (a *App) handleSetProvince(c *gin.Context) {
	a.handleTransition(c, func(ds *RegionDataset, payload transitionPayload) SelectionQuery {
		return transitionSetProvince(payload.ID)
	})
}

func (a *App) handleSetRegency(c *gin.Context) {
	a.handleTransition(c, func(ds *RegionDataset, payload transitionPayload) SelectionQuery {
		return transitionSetRegency(ds, payload.selectionQuery(), payload.ID)
	})
}

func (a *App) handleSetDistrict(c *gin.Context) {
	a.handleTransition(c, func(ds *RegionDataset, payload transitionPayload) SelectionQuery {
		return transitionSetDistrict(ds, payload.selectionQuery(), payload.ID)
	})
}

func (a *App) handleResetSelection(c *gin.Context) {
	ds, ok := a.requireDataset(c)
	if !ok {
		return
	}
	query := transitionReset()
	c.JSON(http.StatusOK, gin.H{
		"query":        query,
		"query_string": query.Encode(),
		"state":        deriveSelection(ds, query),
	})
}

func (a *App) handleTransition(c *gin.Context, apply func(*RegionDataset, transitionPayload) SelectionQuery) {
	ds, ok := a.requireDataset(c)
	if !ok {
		return
	}
	var payload transitionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid transition payload"})
		return
	}
	query := apply(ds, payload)
	c.JSON(http.StatusOK, gin.H{
		"query":        query,
		"query_string": query.Encode(),
		"state":        deriveSelection(ds, query),
	})
}
