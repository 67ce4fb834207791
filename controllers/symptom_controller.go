package controllers

import (
	"net/http"

	"nutrilens/services"
	"nutrilens/utils"

	"github.com/gin-gonic/gin"
)

type SymptomController struct {
	Symptoms *services.SymptomService
}

func NewSymptomController(s *services.SymptomService) *SymptomController {
	return &SymptomController{Symptoms: s}
}

// symptoms may be a list or a comma/newline separated string.
type symptomInput struct {
	Symptoms any    `json:"symptoms"`
	Duration string `json:"duration"`
	Severity int    `json:"severity"`
	Notes    string `json:"notes"`
}

func (sc *SymptomController) Check(c *gin.Context) {
	var in symptomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := sc.Symptoms.Check(c.Request.Context(), c.GetUint("userID"), services.SymptomRequest{
		Symptoms: utils.ToStringSlice(in.Symptoms),
		Duration: in.Duration,
		Severity: in.Severity,
		Notes:    in.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
