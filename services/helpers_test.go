package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"nutrilens/config"
	"nutrilens/models"
	"nutrilens/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig(logger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	return db
}

type fakeAI struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeAI) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeAI) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeOCR struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeOCR) ExtractText(_ context.Context, _ utils.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

func (f *fakeOCR) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []utils.Email
}

func (m *fakeMailer) Send(_ context.Context, e utils.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

func (m *fakeMailer) last() utils.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return utils.Email{}
	}
	return m.sent[len(m.sent)-1]
}

var errMailDown = errors.New("mail provider down")

func testImage(t *testing.T, body string) utils.Image {
	t.Helper()
	img, err := utils.NewImage(append([]byte("\x89PNG\r\n\x1a\n"), body...), "")
	require.NoError(t, err)
	return img
}

func createUser(t *testing.T, db *gorm.DB, email string, mutate func(u *models.User)) *models.User {
	t.Helper()
	hashed, err := utils.HashPassword("password123")
	require.NoError(t, err)
	u := &models.User{Email: email, Password: hashed, FullName: "Test User", Height: 170, Weight: 70, Onboarded: true}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

type scanFixture struct {
	db     *gorm.DB
	ai     *fakeAI
	ocr    *fakeOCR
	deps   *ScanDeps
	alerts *AlertService
}

func newScanFixture(t *testing.T) *scanFixture {
	db := newTestDB(t)
	ai := &fakeAI{}
	ocr := &fakeOCR{text: "Nutrition Facts ..."}
	alerts := NewAlertService(db, NewRealtimeHub(), nil)
	return &scanFixture{
		db:     db,
		ai:     ai,
		ocr:    ocr,
		alerts: alerts,
		deps: &ScanDeps{
			DB:     db,
			Reader: NewLabelReader(db, ocr),
			AI:     ai,
			Users:  NewUserService(db, nil),
			Alerts: alerts,
		},
	}
}
