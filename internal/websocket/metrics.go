package websocket

import (
	"sync"
	"time"
)

// RegistryMetrics представляет агрегированные метрики реестра комнат
type RegistryMetrics struct {
	totalConnections  int64 // Общее количество допущенных соединений за все время
	activeConnections int64 // Текущее количество активных соединений
	roomsCreated      int64 // Общее количество созданных комнат
	activeRooms       int64 // Текущее количество комнат
	messagesSent      int64 // Общее количество отправленных сообщений
	sendFailures      int64 // Количество сообщений, отброшенных из-за переполнения буфера
	startTime         time.Time

	mu sync.RWMutex
}

// NewRegistryMetrics создает новый экземпляр метрик реестра
func NewRegistryMetrics() *RegistryMetrics {
	return &RegistryMetrics{
		startTime: time.Now(),
	}
}

// IncrementConnections увеличивает счетчики соединений
func (m *RegistryMetrics) IncrementConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalConnections++
	m.activeConnections++
}

// DecrementActiveConnections уменьшает счетчик активных соединений
func (m *RegistryMetrics) DecrementActiveConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeConnections > 0 {
		m.activeConnections--
	}
}

// IncrementRooms увеличивает счетчики комнат
func (m *RegistryMetrics) IncrementRooms() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomsCreated++
	m.activeRooms++
}

// DecrementActiveRooms уменьшает счетчик активных комнат
func (m *RegistryMetrics) DecrementActiveRooms() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeRooms > 0 {
		m.activeRooms--
	}
}

// AddMessageSent увеличивает счетчик отправленных сообщений
func (m *RegistryMetrics) AddMessageSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesSent++
}

// AddSendFailure увеличивает счетчик отброшенных сообщений
func (m *RegistryMetrics) AddSendFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendFailures++
}

// Snapshot возвращает текущие значения метрик для отдачи наружу
func (m *RegistryMetrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"total_connections":  m.totalConnections,
		"active_connections": m.activeConnections,
		"rooms_created":      m.roomsCreated,
		"active_rooms":       m.activeRooms,
		"messages_sent":      m.messagesSent,
		"send_failures":      m.sendFailures,
		"uptime_seconds":     int64(time.Since(m.startTime).Seconds()),
	}
}
