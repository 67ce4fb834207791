package controllers

import (
	"net/http"
	"strconv"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

type HistoryController struct {
	History *services.HistoryService
}

func NewHistoryController(h *services.HistoryService) *HistoryController {
	return &HistoryController{History: h}
}

// GET /history?kind=food&page=1&limit=20
func (hc *HistoryController) List(c *gin.Context) {
	kind := c.Query("kind")
	if kind != "" && !services.ValidHistoryKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be one of food, medicine, symptom"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	out, err := hc.History.List(c.Request.Context(), c.GetUint("userID"), services.HistoryQuery{
		Kind:  kind,
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (hc *HistoryController) Stats(c *gin.Context) {
	stats, err := hc.History.Stats(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (hc *HistoryController) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := hc.History.Get(c.Request.Context(), c.GetUint("userID"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (hc *HistoryController) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := hc.History.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (hc *HistoryController) Clear(c *gin.Context) {
	n, err := hc.History.Clear(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
