package controllers

import (
	"net/http"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

type ScanController struct {
	Food     *services.FoodService
	Medicine *services.MedicineService
}

func NewScanController(f *services.FoodService, m *services.MedicineService) *ScanController {
	return &ScanController{Food: f, Medicine: m}
}

// POST /scan/food  multipart "image" or {"image_base64": "data:..."}
func (sc *ScanController) ScanFood(c *gin.Context) {
	img, err := readImage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := sc.Food.Scan(c.Request.Context(), c.GetUint("userID"), img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (sc *ScanController) GetFoodScan(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res, err := sc.Food.Get(c.Request.Context(), c.GetUint("userID"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /scan/medicine  multipart "image" or {"image_base64": "data:..."}
func (sc *ScanController) ScanMedicine(c *gin.Context) {
	img, err := readImage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := sc.Medicine.Scan(c.Request.Context(), c.GetUint("userID"), img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (sc *ScanController) GetMedicineScan(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res, err := sc.Medicine.Get(c.Request.Context(), c.GetUint("userID"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
