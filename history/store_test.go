package history

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/brieflex/brieflex/classify"
	"github.com/brieflex/brieflex/db"
	brieftesting "github.com/brieflex/brieflex/internal/testing"
	"github.com/brieflex/brieflex/route"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database := brieftesting.CreateTestDB(t)
	require.NoError(t, db.Migrate(database, zaptest.NewLogger(t).Sugar()))
	return NewStore(database, zaptest.NewLogger(t).Sugar())
}

func TestSaveAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, Record{
		Operation:  "analyze",
		Source:     "prompt.chat",
		OK:         true,
		InputChars: 1200,
		Duration:   420 * time.Millisecond,
		CreatedAt:  time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID, "an ID is assigned on save")

	_, err = store.Save(ctx, Record{
		Operation:   "summarize",
		OK:          false,
		FailureKind: "rate_limited",
		Message:     "quota exceeded",
	})
	require.NoError(t, err)

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "summarize", records[0].Operation, "newest first")
	assert.Equal(t, "analyze", records[1].Operation)
	assert.Equal(t, 420*time.Millisecond, records[1].Duration)
}

func TestFromResult(t *testing.T) {
	t.Run("success keeps the source label", func(t *testing.T) {
		rec := FromResult("analyze", 5000, time.Second, route.Result{
			OK:        true,
			Text:      "answer",
			Source:    "prompt.legacy+chunked",
			Timestamp: time.Now(),
		})
		assert.True(t, rec.OK)
		assert.Equal(t, "prompt.legacy+chunked", rec.Source)
		assert.Empty(t, rec.FailureKind)
	})

	t.Run("failure keeps kind and message", func(t *testing.T) {
		rec := FromResult("summarize", 100, time.Second, route.Result{
			Failure: &classify.Failure{
				Kind:    classify.KindRateLimited,
				Message: "quota exceeded",
			},
		})
		assert.False(t, rec.OK)
		assert.Equal(t, "rate_limited", rec.FailureKind)
		assert.Equal(t, "quota exceeded", rec.Message)
	})
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		_, err := store.Save(ctx, Record{
			Operation: "analyze",
			OK:        true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	removed, err := store.Prune(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 7, removed)

	records, err := store.Recent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// The three newest survive.
	assert.Equal(t, base.Add(9*time.Minute).Unix(), records[0].CreatedAt.Unix())
}

func TestTotals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Save(ctx, Record{Operation: "analyze", OK: true})
		require.NoError(t, err)
	}
	_, err := store.Save(ctx, Record{Operation: "analyze", OK: false, FailureKind: "timeout"})
	require.NoError(t, err)

	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Total: 4, Succeeded: 3, Failed: 1}, totals)
}

func TestSaveInsertFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT INTO invocations").
		WillReturnError(assert.AnError)

	store := NewStore(mockDB, zaptest.NewLogger(t).Sugar())
	_, err = store.Save(context.Background(), Record{Operation: "analyze"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert invocation")
	assert.NoError(t, mock.ExpectationsWereMet())
}
