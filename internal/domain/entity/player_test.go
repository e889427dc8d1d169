package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlayer_Type(t *testing.T) {
	userID := uint(3)
	registered := &Player{UserID: &userID, Username: "alice"}
	assert.Equal(t, PlayerTypeRegistered, registered.Type())

	guest := &Player{IsGuest: true, Username: "guest_bob"}
	assert.Equal(t, PlayerTypeGuest, guest.Type())
}

func TestPlayer_GuestTokenValid(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name   string
		player Player
		want   bool
	}{
		{
			name:   "действующий гостевой токен",
			player: Player{IsGuest: true, GuestToken: "tok", GuestTokenExpiry: &future},
			want:   true,
		},
		{
			name:   "истекший гостевой токен",
			player: Player{IsGuest: true, GuestToken: "tok", GuestTokenExpiry: &past},
			want:   false,
		},
		{
			name:   "нет срока действия",
			player: Player{IsGuest: true, GuestToken: "tok"},
			want:   false,
		},
		{
			name:   "зарегистрированный игрок без гостевого токена",
			player: Player{IsGuest: false, GuestToken: "tok", GuestTokenExpiry: &future},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.player.GuestTokenValid(now))
		})
	}
}

func TestQuestion_IsCorrect(t *testing.T) {
	q := &Question{Options: StringArray{"a", "b", "c", "d"}, CorrectOption: 2}
	assert.True(t, q.IsCorrect(2))
	assert.False(t, q.IsCorrect(0))
	assert.Equal(t, 4, q.OptionsCount())
}
