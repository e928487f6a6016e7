package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWhereBuilder(t *testing.T) {
	t.Run("empty builder renders nothing", func(t *testing.T) {
		var w whereBuilder
		assert.Equal(t, "", w.String())
		assert.Equal(t, "", w.limit(0))
		assert.Empty(t, w.args)
	})

	t.Run("numbers placeholders in order", func(t *testing.T) {
		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 7)

		var w whereBuilder
		w.addRaw("intent_score IS NULL")
		w.timeRange("created_at", TimeRange{From: from, To: to})
		w.add("status = $%d", "open")

		assert.Equal(t, " WHERE intent_score IS NULL AND created_at >= $1 AND created_at < $2 AND status = $3", w.String())
		assert.Equal(t, " LIMIT $4", w.limit(50))
		assert.Equal(t, []interface{}{from, to, "open", 50}, w.args)
	})

	t.Run("open time bounds are skipped", func(t *testing.T) {
		var w whereBuilder
		w.timeRange("created_at", TimeRange{To: time.Now()})
		assert.Equal(t, " WHERE created_at < $1", w.String())
	})
}

func TestNullHelpers(t *testing.T) {
	assert.Equal(t, "", nullString(sql.NullString{}))
	assert.Equal(t, "x", nullString(sql.NullString{String: "x", Valid: true}))
	assert.Nil(t, nullInt(sql.NullInt64{}))
	assert.Equal(t, 7, *nullInt(sql.NullInt64{Int64: 7, Valid: true}))
	assert.Nil(t, nullFloat(sql.NullFloat64{}))
	assert.False(t, toNullString("").Valid)
	assert.True(t, toNullString("a").Valid)
}
