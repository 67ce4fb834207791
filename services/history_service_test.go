package services

import (
	"context"
	"fmt"
	"testing"

	"nutrilens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, svc *HistoryService, userID uint, kind string, n int) []uint {
	t.Helper()
	var ids []uint
	for i := 0; i < n; i++ {
		h, err := recordHistory(svc.db, userID, kind, uint(i+1), fmt.Sprintf("%s %d", kind, i), "summary", map[string]int{"n": i})
		require.NoError(t, err)
		ids = append(ids, h.ID)
	}
	return ids
}

func TestHistoryListPagination(t *testing.T) {
	svc := NewHistoryService(newTestDB(t))
	ids := seedHistory(t, svc, 1, models.HistoryFood, 5)
	seedHistory(t, svc, 2, models.HistoryFood, 3)

	page, err := svc.List(context.Background(), 1, HistoryQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].ID)
	assert.Nil(t, page.Items[0].Payload)

	last, err := svc.List(context.Background(), 1, HistoryQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, ids[0], last.Items[0].ID)
}

func TestHistoryListDefaultsAndKindFilter(t *testing.T) {
	svc := NewHistoryService(newTestDB(t))
	seedHistory(t, svc, 1, models.HistoryFood, 2)
	seedHistory(t, svc, 1, models.HistorySymptom, 1)

	page, err := svc.List(context.Background(), 1, HistoryQuery{Kind: models.HistorySymptom, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxHistoryLimit, page.Limit)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.HistorySymptom, page.Items[0].Kind)

	empty, err := svc.List(context.Background(), 99, HistoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, defaultHistoryLimit, empty.Limit)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestHistoryGetDeleteOwnerOnly(t *testing.T) {
	svc := NewHistoryService(newTestDB(t))
	ids := seedHistory(t, svc, 1, models.HistoryMedicine, 1)

	item, err := svc.Get(context.Background(), 1, ids[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":0}`, string(item.Payload))

	_, err = svc.Get(context.Background(), 2, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), 2, ids[0]), ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), 1, ids[0]))
	assert.ErrorIs(t, svc.Delete(context.Background(), 1, ids[0]), ErrNotFound)
}

func TestHistoryStatsAndClear(t *testing.T) {
	svc := NewHistoryService(newTestDB(t))
	seedHistory(t, svc, 1, models.HistoryFood, 3)
	seedHistory(t, svc, 1, models.HistorySymptom, 1)
	seedHistory(t, svc, 2, models.HistoryMedicine, 4)

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"food": 3, "medicine": 0, "symptom": 1, "total": 4}, stats)

	n, err := svc.Clear(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	stats, err = svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["total"])

	other, err := svc.Stats(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), other["medicine"])
}

func TestValidHistoryKind(t *testing.T) {
	assert.True(t, ValidHistoryKind("food"))
	assert.True(t, ValidHistoryKind("symptom"))
	assert.False(t, ValidHistoryKind("meal"))
}
