package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

func newTestSession(pin, status string) *entity.GameSession {
	return &entity.GameSession{
		ID:         1,
		QuizID:     1,
		HostUserID: 10,
		PIN:        pin,
		Status:     status,
	}
}

func newAdmittedClient(registry *RoomRegistry, principal Principal, pin string) *Client {
	client := NewClient(registry, nil)
	client.Admit(principal, pin)
	return client
}

func recvMessage(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case msg := <-client.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertNoMessage(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.send:
		t.Fatalf("unexpected message delivered: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoomRegistry_CreateRoom(t *testing.T) {
	registry := NewRoomRegistry(1)
	defer registry.Shutdown()

	room, err := registry.CreateRoom("ABC123", newTestSession("ABC123", entity.GameStatusWaiting))
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, "ABC123", room.PIN())
	assert.Equal(t, 1, registry.RoomCount())
}

func TestRoomRegistry_CreateRoom_DuplicatePIN(t *testing.T) {
	registry := NewRoomRegistry(1)
	defer registry.Shutdown()

	_, err := registry.CreateRoom("ABC123", newTestSession("ABC123", entity.GameStatusWaiting))
	require.NoError(t, err)

	_, err = registry.CreateRoom("ABC123", newTestSession("ABC123", entity.GameStatusWaiting))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 1, registry.RoomCount())
}

func TestRoomRegistry_Get_NeverCreates(t *testing.T) {
	registry := NewRoomRegistry(1)
	defer registry.Shutdown()

	room, ok := registry.Get("NOPE99")
	assert.False(t, ok)
	assert.Nil(t, room)
	assert.Equal(t, 0, registry.RoomCount())
}

func TestRoomRegistry_JoinRoom_RoomNotFound(t *testing.T) {
	registry := NewRoomRegistry(1)
	defer registry.Shutdown()

	client := newAdmittedClient(registry, Principal{Kind: PrincipalGuest, PlayerID: 5, Username: "guest"}, "NOPE99")
	room, err := registry.JoinRoom(client)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, room)
}

func TestRoomRegistry_Leave_LastMemberOfEndedGameDropsRoom(t *testing.T) {
	registry := NewRoomRegistry(1)
	defer registry.Shutdown()

	_, err := registry.CreateRoom("END001", newTestSession("END001", entity.GameStatusEnded))
	require.NoError(t, err)

	client := newAdmittedClient(registry, Principal{Kind: PrincipalHost, UserID: 10}, "END001")
	_, err = registry.JoinRoom(client)
	require.NoError(t, err)

	registry.Leave(client)

	assert.Equal(t, 0, registry.RoomCount())
	assert.True(t, client.IsSendClosed())
}

func TestRoomRegistry_Leave_WaitingRoomSurvivesEmpty(t *testing.T) {
	registry := NewRoomRegistry(1)
	defer registry.Shutdown()

	_, err := registry.CreateRoom("WAIT01", newTestSession("WAIT01", entity.GameStatusWaiting))
	require.NoError(t, err)

	client := newAdmittedClient(registry, Principal{Kind: PrincipalHost, UserID: 10}, "WAIT01")
	_, err = registry.JoinRoom(client)
	require.NoError(t, err)

	registry.Leave(client)

	// Комната ожидающей игры остается в реестре для новых подключений
	assert.Equal(t, 1, registry.RoomCount())
}

func TestRoomRegistry_Leave_NeverAffectsOtherMembers(t *testing.T) {
	registry := NewRoomRegistry(1)
	defer registry.Shutdown()

	room, err := registry.CreateRoom("PLAY01", newTestSession("PLAY01", entity.GameStatusStarted))
	require.NoError(t, err)

	host := newAdmittedClient(registry, Principal{Kind: PrincipalHost, UserID: 10}, "PLAY01")
	player := newAdmittedClient(registry, Principal{Kind: PrincipalRegisteredPlayer, UserID: 11, PlayerID: 2}, "PLAY01")
	_, err = registry.JoinRoom(host)
	require.NoError(t, err)
	_, err = registry.JoinRoom(player)
	require.NoError(t, err)

	registry.Leave(player)

	assert.Equal(t, 1, room.MemberCount())
	assert.False(t, host.IsSendClosed())

	// Оставшиеся участники узнают об уходе игрока
	assert.JSONEq(t, `{"type":"player_left","player_id":2,"username":""}`, string(recvMessage(t, host)))

	// Оставшийся участник продолжает получать рассылку
	room.Broadcast([]byte(`{"type":"game_ended"}`))
	assert.JSONEq(t, `{"type":"game_ended"}`, string(recvMessage(t, host)))
}

func TestRoom_BroadcastExcept(t *testing.T) {
	registry := NewRoomRegistry(2)
	defer registry.Shutdown()

	room, err := registry.CreateRoom("BCAST1", newTestSession("BCAST1", entity.GameStatusWaiting))
	require.NoError(t, err)

	host := newAdmittedClient(registry, Principal{Kind: PrincipalHost, UserID: 10}, "BCAST1")
	guest := newAdmittedClient(registry, Principal{Kind: PrincipalGuest, PlayerID: 5, Username: "guest"}, "BCAST1")
	joiner := newAdmittedClient(registry, Principal{Kind: PrincipalGuest, PlayerID: 6, Username: "joiner"}, "BCAST1")
	room.Join(host)
	room.Join(guest)
	room.Join(joiner)

	message := []byte(`{"type":"player_joined","player_id":6,"username":"joiner","auth_type":"guest"}`)
	room.BroadcastExcept(message, joiner)

	assert.JSONEq(t, string(message), string(recvMessage(t, host)))
	assert.JSONEq(t, string(message), string(recvMessage(t, guest)))
	assertNoMessage(t, joiner)
}

func TestRoom_BroadcastSkipsFullMember(t *testing.T) {
	registry := NewRoomRegistry(1)
	defer registry.Shutdown()

	room, err := registry.CreateRoom("FULL01", newTestSession("FULL01", entity.GameStatusWaiting))
	require.NoError(t, err)

	healthy := newAdmittedClient(registry, Principal{Kind: PrincipalHost, UserID: 10}, "FULL01")
	stuck := newAdmittedClient(registry, Principal{Kind: PrincipalGuest, PlayerID: 5}, "FULL01")
	room.Join(healthy)
	room.Join(stuck)

	// Забиваем буфер "зависшего" участника
	for i := 0; i < defaultClientBufferSize; i++ {
		require.True(t, stuck.Send([]byte("x")))
	}

	room.Broadcast([]byte(`{"type":"game_started","redirect_url":"/game/FULL01/play"}`))

	// Здоровый участник получает сообщение, несмотря на переполненный буфер соседа
	require.Eventually(t, func() bool {
		select {
		case <-healthy.send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestClient_SendNonBlocking(t *testing.T) {
	client := NewClient(nil, nil)

	for i := 0; i < defaultClientBufferSize; i++ {
		require.True(t, client.Send([]byte("x")))
	}
	assert.False(t, client.Send([]byte("overflow")))
}

func TestClient_CloseSendIdempotent(t *testing.T) {
	client := NewClient(nil, nil)

	assert.True(t, client.CloseSend())
	assert.False(t, client.CloseSend())
	assert.True(t, client.IsSendClosed())
	assert.False(t, client.Send([]byte("after close")))
}

func TestClient_SendAfterRacedClose(t *testing.T) {
	client := NewClient(nil, nil)

	// Имитируем окно гонки: канал уже закрыт, а флаг еще не выставлен.
	// Send обязан вернуть false, а не паниковать на закрытом канале.
	close(client.send)
	assert.NotPanics(t, func() {
		assert.False(t, client.Send([]byte("late")))
	})
}

func TestClient_StateTransitions(t *testing.T) {
	client := NewClient(nil, nil)
	assert.Equal(t, StateConnecting, client.State())

	client.SetAuthenticating()
	assert.Equal(t, StateAuthenticating, client.State())

	client.Admit(Principal{Kind: PrincipalHost, UserID: 10}, "ABC123")
	assert.Equal(t, StateAdmitted, client.State())
	assert.Equal(t, "ABC123", client.PIN())
	assert.True(t, client.Principal().IsHost())
}
