package controllers

import (
	"net/http"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	Users *services.UserService
}

func NewUserController(u *services.UserService) *UserController {
	return &UserController{Users: u}
}

func (uc *UserController) GetProfile(c *gin.Context) {
	profile, err := uc.Users.GetProfile(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	var input services.ProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := uc.Users.UpdateProfile(c.Request.Context(), c.GetUint("userID"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (uc *UserController) CompleteOnboarding(c *gin.Context) {
	var input services.OnboardingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := uc.Users.CompleteOnboarding(c.Request.Context(), c.GetUint("userID"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (uc *UserController) DeleteAccount(c *gin.Context) {
	if err := uc.Users.DisableUser(c.Request.Context(), c.GetUint("userID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
