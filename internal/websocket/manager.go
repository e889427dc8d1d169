package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// Manager обрабатывает входящие WebSocket-сообщения, диспетчеризуя их
// по типу между зарегистрированными обработчиками.
type Manager struct {
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager() *Manager {
	return &Manager{
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
	log.Printf("[WebSocketManager] Зарегистрирован обработчик для сообщений типа: %s", eventType)
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Некорректный JSON и неизвестный тип приводят к сообщению об ошибке
// только отправителю - соединение остается открытым.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("[WebSocketManager] Некорректный JSON от %s: %v", client.ConnectionID, err)
		m.SendErrorToClient(client, "invalid message format")
		return nil
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		log.Printf("[WebSocketManager] Нет обработчика для типа '%s' от %s", event.Type, client.ConnectionID)
		m.SendErrorToClient(client, fmt.Sprintf("unknown message type: %s", event.Type))
		return nil
	}

	if err := handler(event.Data, client); err != nil {
		// Ошибки обработчиков не фатальны для соединения:
		// отправитель получает сообщение об ошибке, остальные - ничего
		log.Printf("[WebSocketManager] Обработчик '%s' вернул ошибку для %s: %v", event.Type, client.ConnectionID, err)
		m.SendErrorToClient(client, err.Error())
	}

	return nil
}

// SendErrorToClient отправляет сообщение об ошибке клиенту.
// Этот метод НЕ закрывает соединение.
func (m *Manager) SendErrorToClient(client *Client, message string) {
	if !client.Send(NewErrorEvent(message)) {
		log.Printf("[WebSocketManager] Не удалось отправить ошибку клиенту %s", client.ConnectionID)
	}
}
