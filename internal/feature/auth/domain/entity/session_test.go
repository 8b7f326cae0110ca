package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsValid(t *testing.T) {
	issued := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	revokedAt := issued.Add(time.Minute)

	tests := []struct {
		name    string
		session Session
		now     time.Time
		want    bool
	}{
		{"before expiry", Session{ExpiresAt: issued.Add(time.Hour)}, issued.Add(30 * time.Minute), true},
		{"at expiry instant", Session{ExpiresAt: issued.Add(time.Hour)}, issued.Add(time.Hour), true},
		{"after expiry", Session{ExpiresAt: issued.Add(time.Hour)}, issued.Add(time.Hour + time.Second), false},
		{"revoked", Session{ExpiresAt: issued.Add(time.Hour), RevokedAt: &revokedAt}, issued.Add(2 * time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.IsValid(tt.now))
			assert.Equal(t, tt.now.After(tt.session.ExpiresAt), tt.session.IsExpired(tt.now))
		})
	}
}

func TestSession_BelongsTo(t *testing.T) {
	s := Session{UserID: 7}
	assert.True(t, s.BelongsTo(7))
	assert.False(t, s.BelongsTo(8))
}
