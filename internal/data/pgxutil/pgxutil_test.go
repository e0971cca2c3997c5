package pgxutil

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToPgxTxOptions(t *testing.T) {
	assert.Equal(t, pgx.TxOptions{}, ToPgxTxOptions(nil))

	got := ToPgxTxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: true})
	assert.Equal(t, pgx.Serializable, got.IsoLevel)
	assert.Equal(t, pgx.ReadOnly, got.AccessMode)
}

func TestToPgxIsoLevel(t *testing.T) {
	tests := []struct {
		in   sql.IsolationLevel
		want pgx.TxIsoLevel
	}{
		{sql.LevelDefault, ""},
		{sql.LevelReadUncommitted, pgx.ReadUncommitted},
		{sql.LevelReadCommitted, pgx.ReadCommitted},
		{sql.LevelWriteCommitted, pgx.ReadCommitted},
		{sql.LevelRepeatableRead, pgx.RepeatableRead},
		{sql.LevelSnapshot, pgx.RepeatableRead},
		{sql.LevelSerializable, pgx.Serializable},
		{sql.LevelLinearizable, pgx.Serializable},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ToPgxIsoLevel(tt.in))
		})
	}
}

func TestToPgxAccessMode(t *testing.T) {
	assert.Equal(t, pgx.ReadWrite, ToPgxAccessMode(false))
	assert.Equal(t, pgx.ReadOnly, ToPgxAccessMode(true))
}
