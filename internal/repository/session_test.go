package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_Revoke(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewSessionRepository(db)

	mock.ExpectSet("ticketing:revoked:abc", 1, time.Hour).SetVal("OK")

	err := repo.Revoke(context.Background(), "abc", time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_IsRevoked(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock redismock.ClientMock)
		want    bool
		wantErr bool
	}{
		{
			name: "revoked",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("ticketing:revoked:abc").SetVal("1")
			},
			want: true,
		},
		{
			name: "not revoked",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("ticketing:revoked:abc").RedisNil()
			},
			want: false,
		},
		{
			name: "redis down",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("ticketing:revoked:abc").SetErr(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			tt.setup(mock)

			got, err := NewSessionRepository(db).IsRevoked(context.Background(), "abc")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSessionRepository_NilClient(t *testing.T) {
	repo := NewSessionRepository(nil)

	assert.NoError(t, repo.Revoke(context.Background(), "abc", time.Hour))
	revoked, err := repo.IsRevoked(context.Background(), "abc")
	assert.NoError(t, err)
	assert.False(t, revoked)
}
