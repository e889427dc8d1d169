package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

// WorkerPool представляет пул воркеров для рассылки сообщений
type WorkerPool struct {
	tasks        chan func()
	workerCount  int
	wg           sync.WaitGroup
	shuttingDown int32 // атомарный флаг для отслеживания состояния завершения
}

// NewWorkerPool создает новый пул воркеров с указанным количеством
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}

	// Размер буфера задач - в 10 раз больше количества воркеров
	pool := &WorkerPool{
		tasks:       make(chan func(), workerCount*10),
		workerCount: workerCount,
	}

	pool.Start()
	return pool
}

// Start запускает всех воркеров в пуле
func (p *WorkerPool) Start() {
	atomic.StoreInt32(&p.shuttingDown, 0)

	p.wg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("WorkerPool: запущен пул с %d воркерами", p.workerCount)
}

// worker запускает цикл обработки задач
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		if atomic.LoadInt32(&p.shuttingDown) == 1 {
			return
		}

		// Выполняем задачу с защитой от паники
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("WorkerPool: воркер %d восстановился после паники: %v", id, r)
				}
			}()

			task()
		}()
	}
}

// Submit добавляет задачу в пул на выполнение.
// Возвращает false, если пул завершается или буфер переполнен.
func (p *WorkerPool) Submit(task func()) bool {
	if atomic.LoadInt32(&p.shuttingDown) == 1 {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop останавливает все воркеры и ожидает их завершения
func (p *WorkerPool) Stop() {
	atomic.StoreInt32(&p.shuttingDown, 1)
	close(p.tasks)
	p.wg.Wait()
	log.Printf("WorkerPool: пул остановлен, все воркеры завершили работу")
}

// RoomRegistry владеет картой комнат по PIN. Комнаты создаются только
// действием "провести игру" - реестр никогда не создает комнату лениво
// при подключении. Операции над разными комнатами независимы: ни одна
// блокировка не охватывает две комнаты сразу.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	pool    *WorkerPool
	metrics *RegistryMetrics
}

// NewRoomRegistry создает реестр комнат с пулом рассылки
func NewRoomRegistry(broadcastWorkers int) *RoomRegistry {
	return &RoomRegistry{
		rooms:   make(map[string]*Room),
		pool:    NewWorkerPool(broadcastWorkers),
		metrics: NewRegistryMetrics(),
	}
}

// Metrics возвращает метрики реестра
func (r *RoomRegistry) Metrics() *RegistryMetrics {
	return r.metrics
}

// CreateRoom регистрирует комнату для новой игровой сессии.
// Повторная регистрация того же PIN возвращает ErrConflict.
func (r *RoomRegistry) CreateRoom(pin string, session *entity.GameSession) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[pin]; exists {
		return nil, apperrors.ErrConflict
	}

	room := newRoom(pin, session, r.pool, r.metrics)
	r.rooms[pin] = room
	r.metrics.IncrementRooms()
	log.Printf("[RoomRegistry] Комната %s создана (всего комнат: %d)", pin, len(r.rooms))
	return room, nil
}

// Get возвращает комнату по PIN. Никогда не создает комнату.
func (r *RoomRegistry) Get(pin string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[pin]
	return room, ok
}

// JoinRoom вводит допущенное соединение в его комнату.
// Комната должна существовать, иначе возвращается ErrNotFound.
func (r *RoomRegistry) JoinRoom(client *Client) (*Room, error) {
	room, ok := r.Get(client.PIN())
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	room.Join(client)
	r.metrics.IncrementConnections()
	return room, nil
}

// Leave выводит соединение из его комнаты. Вызывается детерминированно
// при разрыве соединения (из defer читающего насоса) и никогда не
// затрагивает работу других соединений. Комната завершенной игры
// удаляется, когда ее покидает последний участник.
func (r *RoomRegistry) Leave(client *Client) {
	pin := client.PIN()
	if pin == "" {
		return
	}

	room, ok := r.Get(pin)
	if !ok {
		client.CloseSend()
		return
	}

	removed, remaining := room.Leave(client)
	client.CloseSend()
	if removed {
		r.metrics.DecrementActiveConnections()

		// Об уходе игрока узнают оставшиеся участники; уход ведущего не анонсируется
		principal := client.Principal()
		if remaining > 0 && (principal.Kind == PrincipalRegisteredPlayer || principal.Kind == PrincipalGuest) {
			payload, err := json.Marshal(PlayerLeftEvent{
				Type:     PLAYER_LEFT,
				PlayerID: principal.PlayerID,
				Username: principal.Username,
			})
			if err == nil {
				room.Broadcast(payload)
			}
		}
	}

	if remaining == 0 {
		session := room.Session()
		if session.Status == entity.GameStatusEnded {
			r.RemoveRoom(pin)
		}
	}
}

// RemoveRoom удаляет комнату из реестра и закрывает оставшиеся соединения
func (r *RoomRegistry) RemoveRoom(pin string) {
	r.mu.Lock()
	room, ok := r.rooms[pin]
	if ok {
		delete(r.rooms, pin)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.metrics.DecrementActiveRooms()
	room.mu.Lock()
	for member := range room.members {
		member.CloseSend()
		delete(room.members, member)
	}
	room.mu.Unlock()
	log.Printf("[RoomRegistry] Комната %s удалена", pin)
}

// RoomCount возвращает текущее число комнат
func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Shutdown закрывает все комнаты и останавливает пул рассылки
func (r *RoomRegistry) Shutdown() {
	r.mu.Lock()
	pins := make([]string, 0, len(r.rooms))
	for pin := range r.rooms {
		pins = append(pins, pin)
	}
	r.mu.Unlock()

	for _, pin := range pins {
		r.RemoveRoom(pin)
	}
	r.pool.Stop()
	log.Printf("[RoomRegistry] Реестр остановлен")
}
