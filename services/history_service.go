package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nutrilens/models"

	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// HistoryItem is the JSON view of a history row.
type HistoryItem struct {
	ID        uint            `json:"id"`
	Kind      string          `json:"kind"`
	RefID     uint            `json:"ref_id,omitempty"`
	Title     string          `json:"title"`
	Summary   string          `json:"summary"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type HistoryPage struct {
	Items []HistoryItem `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}

type HistoryQuery struct {
	Kind  string
	Page  int
	Limit int
}

func ValidHistoryKind(kind string) bool {
	switch kind {
	case models.HistoryFood, models.HistoryMedicine, models.HistorySymptom:
		return true
	}
	return false
}

// record writes a history row inside the caller's transaction.
func recordHistory(tx *gorm.DB, userID uint, kind string, refID uint, title, summary string, payload any) (*models.History, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	h := &models.History{
		UserID:  userID,
		Kind:    kind,
		RefID:   refID,
		Title:   title,
		Summary: summary,
		Payload: string(raw),
	}
	return h, tx.Create(h).Error
}

func (s *HistoryService) List(ctx context.Context, userID uint, q HistoryQuery) (*HistoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultHistoryLimit
	}
	if q.Limit > maxHistoryLimit {
		q.Limit = maxHistoryLimit
	}

	base := s.db.WithContext(ctx).Model(&models.History{}).Where("user_id = ?", userID)
	if q.Kind != "" {
		base = base.Where("kind = ?", q.Kind)
	}

	page := &HistoryPage{Items: []HistoryItem{}, Page: q.Page, Limit: q.Limit}
	if err := base.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return nil, err
	}

	var rows []models.History
	if err := base.Session(&gorm.Session{}).
		Select("id", "kind", "ref_id", "title", "summary", "created_at").
		Order("created_at DESC, id DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		page.Items = append(page.Items, toHistoryItem(&rows[i], false))
	}
	return page, nil
}

func (s *HistoryService) Get(ctx context.Context, userID, id uint) (*HistoryItem, error) {
	var row models.History
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	item := toHistoryItem(&row, true)
	return &item, nil
}

func (s *HistoryService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.History{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every history row of the user and returns how many went.
func (s *HistoryService) Clear(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.History{})
	return res.RowsAffected, res.Error
}

// Stats counts history rows per kind. Every kind is present in the result.
func (s *HistoryService) Stats(ctx context.Context, userID uint) (map[string]int64, error) {
	var rows []struct {
		Kind  string
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.History{}).
		Select("kind, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := map[string]int64{
		models.HistoryFood:     0,
		models.HistoryMedicine: 0,
		models.HistorySymptom:  0,
		"total":                0,
	}
	for _, r := range rows {
		out[r.Kind] = r.Count
		out["total"] += r.Count
	}
	return out, nil
}

func toHistoryItem(h *models.History, withPayload bool) HistoryItem {
	item := HistoryItem{
		ID:        h.ID,
		Kind:      h.Kind,
		RefID:     h.RefID,
		Title:     h.Title,
		Summary:   h.Summary,
		CreatedAt: h.CreatedAt,
	}
	if withPayload && h.Payload != "" {
		item.Payload = json.RawMessage(h.Payload)
	}
	return item
}
