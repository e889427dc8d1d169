package websocket

import (
	"log"
	"sync"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
)

// Room представляет одну игровую комнату: множество допущенных соединений
// и снимок состояния игровой сессии. Все изменения состава и состояния
// комнаты выполняются под мьютексом комнаты - в один момент времени
// в комнате выполняется ровно одна мутация.
type Room struct {
	pin string

	mu      sync.Mutex
	members map[*Client]bool
	session *entity.GameSession

	pool    *WorkerPool
	metrics *RegistryMetrics
}

// newRoom создает комнату для игровой сессии
func newRoom(pin string, session *entity.GameSession, pool *WorkerPool, metrics *RegistryMetrics) *Room {
	return &Room{
		pin:     pin,
		members: make(map[*Client]bool),
		session: session,
		pool:    pool,
		metrics: metrics,
	}
}

// PIN возвращает PIN комнаты
func (r *Room) PIN() string {
	return r.pin
}

// Join добавляет соединение в комнату и возвращает размер комнаты после входа
func (r *Room) Join(client *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[client] = true
	count := len(r.members)
	log.Printf("[Room %s] Соединение %s вошло (участников: %d)", r.pin, client.ConnectionID, count)
	return count
}

// Leave удаляет соединение из комнаты.
// Возвращает true, если соединение состояло в комнате, и число оставшихся.
func (r *Room) Leave(client *Client) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.members[client] {
		return false, len(r.members)
	}
	delete(r.members, client)
	remaining := len(r.members)
	log.Printf("[Room %s] Соединение %s вышло (осталось: %d)", r.pin, client.ConnectionID, remaining)
	return true, remaining
}

// MemberCount возвращает текущее число соединений в комнате
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Session возвращает копию снимка игровой сессии комнаты
func (r *Room) Session() entity.GameSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.session
}

// UpdateSession заменяет снимок игровой сессии комнаты
func (r *Room) UpdateSession(session *entity.GameSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = session
}

// WithSession выполняет мутацию снимка сессии под мьютексом комнаты.
// Если fn возвращает ошибку, снимок остается без изменений.
func (r *Room) WithSession(fn func(session *entity.GameSession) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.session)
}

// Broadcast рассылает сообщение всем участникам комнаты
func (r *Room) Broadcast(message []byte) {
	r.BroadcastExcept(message, nil)
}

// BroadcastExcept рассылает сообщение всем участникам комнаты, кроме указанного.
// Список участников снимается под мьютексом, сама рассылка выполняется
// пулом воркеров: медленный или переполненный участник пропускается
// и не задерживает доставку остальным.
func (r *Room) BroadcastExcept(message []byte, except *Client) {
	r.mu.Lock()
	recipients := make([]*Client, 0, len(r.members))
	for member := range r.members {
		if member != except {
			recipients = append(recipients, member)
		}
	}
	r.mu.Unlock()

	for _, member := range recipients {
		m := member
		task := func() {
			if m.Send(message) {
				r.metrics.AddMessageSent()
			} else {
				r.metrics.AddSendFailure()
			}
		}
		if !r.pool.Submit(task) {
			// Пул переполнен - отправляем синхронно, отправка неблокирующая
			task()
		}
	}
}
