package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"nutrilens/models"
	"nutrilens/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ContactInput struct {
	Name    string `json:"name" binding:"required,max=120"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

type ContactService struct {
	db     *gorm.DB
	mailer utils.Mailer
	inbox  string
}

func NewContactService(db *gorm.DB, mailer utils.Mailer, inbox string) *ContactService {
	return &ContactService{db: db, mailer: mailer, inbox: inbox}
}

// Submit stores the message, then notifies the inbox. A failed notification
// is logged and reflected in EmailSent; the message stays stored.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Message == "" {
		return nil, fmt.Errorf("%w: name and message are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	c := &models.Contact{
		Reference: uuid.NewString(),
		Name:      in.Name,
		Email:     strings.TrimSpace(in.Email),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   in.Message,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("save contact: %w", err)
	}

	if s.mailer == nil || s.inbox == "" {
		return c, nil
	}
	err := utils.SendContactNotification(ctx, s.mailer, s.inbox, utils.ContactMessage{
		Reference: c.Reference,
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
	})
	if err != nil {
		utils.Log.Warn("contact notification failed", zap.String("reference", c.Reference), zap.Error(err))
		return c, nil
	}

	c.EmailSent = true
	if err := s.db.WithContext(ctx).Model(c).Update("email_sent", true).Error; err != nil {
		utils.Log.Warn("mark contact sent failed", zap.String("reference", c.Reference), zap.Error(err))
	}
	return c, nil
}
