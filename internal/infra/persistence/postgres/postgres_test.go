package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	deliverycontext "propledger/internal/delivery/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyConstraint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want constraintKind
	}{
		{name: "nil", err: nil, want: constraintNone},
		{name: "translated duplicate", err: errors.Wrap(gorm.ErrDuplicatedKey, "insert user"), want: constraintUnique},
		{name: "raw duplicate", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`), want: constraintUnique},
		{name: "raw foreign key", err: errors.New(`ERROR: insert violates foreign key constraint (SQLSTATE 23503)`), want: constraintForeignKey},
		{name: "cash balance check", err: errors.New(`ERROR: new row violates check constraint "chk_wallets_cash_balance" (SQLSTATE 23514)`), want: constraintCheck},
		{name: "translated check", err: gorm.ErrCheckConstraintViolated, want: constraintCheck},
		{name: "unrelated", err: errors.New("connection reset by peer"), want: constraintNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyConstraint(tt.err))
		})
	}

	assert.True(t, isCheckConstraintViolation(gorm.ErrCheckConstraintViolated))
	assert.False(t, isUniqueConstraintViolation(gorm.ErrCheckConstraintViolated))
}

func TestPoolWait(t *testing.T) {
	prev := sql.DBStats{WaitCount: 10, WaitDuration: time.Second}

	_, _, waited := poolWait(prev, prev)
	assert.False(t, waited)

	level, attrs, waited := poolWait(prev, sql.DBStats{WaitCount: 12, WaitDuration: time.Second + 10*time.Millisecond})
	assert.True(t, waited)
	assert.Equal(t, slog.LevelDebug, level)
	assert.Equal(t, "avg_wait", attrs[2].Key)
	assert.Equal(t, 5*time.Millisecond, attrs[2].Value.Duration())

	level, _, _ = poolWait(prev, sql.DBStats{WaitCount: 11, WaitDuration: time.Second + 80*time.Millisecond})
	assert.Equal(t, slog.LevelWarn, level)
}

func TestGormSlogLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	gormLogger := newGormSlogLogger(base, nil)

	ctx, _ := deliverycontext.WithRequestScope(context.Background(), base, "req-9")
	lockingRead := func() (string, int64) {
		return `SELECT * FROM "wallets" WHERE user_id = 'u' FOR UPDATE`, 1
	}

	t.Run("constraint hit is a warning", func(t *testing.T) {
		buf.Reset()
		gormLogger.Trace(ctx, time.Now(), lockingRead, errors.New("violates check constraint (SQLSTATE 23514)"))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "req-9", entry["request_id"])
		assert.Equal(t, true, entry["locking"])
	})

	t.Run("record not found is silent", func(t *testing.T) {
		buf.Reset()
		gormLogger.Trace(ctx, time.Now(), lockingRead, gorm.ErrRecordNotFound)
		assert.Zero(t, buf.Len())
	})

	t.Run("unexpected failure is an error", func(t *testing.T) {
		buf.Reset()
		gormLogger.Trace(ctx, time.Now(), lockingRead, errors.New("connection reset"))
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})
}
