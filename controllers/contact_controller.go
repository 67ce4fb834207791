package controllers

import (
	"net/http"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

type ContactController struct {
	Contacts *services.ContactService
}

func NewContactController(s *services.ContactService) *ContactController {
	return &ContactController{Contacts: s}
}

func (cc *ContactController) Submit(c *gin.Context) {
	var in services.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contact, err := cc.Contacts.Submit(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Thanks for reaching out. We will get back to you soon.",
		"reference":  contact.Reference,
		"email_sent": contact.EmailSent,
	})
}
