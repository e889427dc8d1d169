package websocket

import (
	"bytes"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения
	maxMessageSize = 512

	// Размер буфера по умолчанию для канала отправки сообщений клиенту
	defaultClientBufferSize = 128
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Состояния жизненного цикла соединения
const (
	StateConnecting int32 = iota + 1
	StateAuthenticating
	StateAdmitted
	StateClosed
)

// Client является посредником между WebSocket-соединением и комнатой.
type Client struct {
	// Уникальный ID для каждого соединения
	ConnectionID string

	// WebSocket соединение
	conn *websocket.Conn

	// Реестр комнат, через который соединение отписывается при разрыве
	registry *RoomRegistry

	// Буферизованный канал для исходящих сообщений
	send chan []byte

	// Флаг, указывающий что канал send закрыт (для предотвращения panic)
	sendClosed atomic.Bool

	// Текущее состояние соединения
	state atomic.Int32

	// Участник и PIN комнаты. Устанавливаются ровно один раз при допуске,
	// до запуска насосов, и далее не меняются.
	principal Principal
	pin       string
}

// NewClient создает нового клиента в состоянии Connecting
func NewClient(registry *RoomRegistry, conn *websocket.Conn) *Client {
	c := &Client{
		ConnectionID: uuid.New().String(),
		conn:         conn,
		registry:     registry,
		send:         make(chan []byte, defaultClientBufferSize),
	}
	c.state.Store(StateConnecting)
	return c
}

// SetAuthenticating переводит соединение в состояние проверки учетных данных
func (c *Client) SetAuthenticating() {
	c.state.CompareAndSwap(StateConnecting, StateAuthenticating)
}

// Admit фиксирует участника и комнату соединения и переводит его
// в состояние Admitted. Вызывается один раз, до запуска насосов.
func (c *Client) Admit(principal Principal, pin string) {
	c.principal = principal
	c.pin = pin
	c.state.Store(StateAdmitted)
}

// Principal возвращает участника соединения (валиден только после Admit)
func (c *Client) Principal() Principal {
	return c.principal
}

// PIN возвращает PIN комнаты соединения (валиден только после Admit)
func (c *Client) PIN() string {
	return c.pin
}

// State возвращает текущее состояние соединения
func (c *Client) State() int32 {
	return c.state.Load()
}

// Send ставит сообщение в очередь отправки без блокировки.
// Возвращает false, если буфер переполнен или канал закрыт.
func (c *Client) Send(message []byte) (sent bool) {
	if c.sendClosed.Load() {
		return false
	}
	// CloseSend мог закрыть канал между проверкой флага и отправкой
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case c.send <- message:
		return true
	default:
		log.Printf("[Client %s] Буфер отправки переполнен, сообщение отброшено", c.ConnectionID)
		return false
	}
}

// CloseSend безопасно закрывает канал send (только один раз).
// Возвращает true, если канал был закрыт этим вызовом.
func (c *Client) CloseSend() bool {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
		return true
	}
	return false
}

// IsSendClosed проверяет, закрыт ли канал send
func (c *Client) IsSendClosed() bool {
	return c.sendClosed.Load()
}

// StartPumps запускает горутины для чтения и записи сообщений
func (c *Client) StartPumps(messageHandler func(message []byte, client *Client) error) {
	if c.state.Load() != StateAdmitted {
		log.Printf("[Client %s] Попытка запуска насосов без допуска, соединение закрывается", c.ConnectionID)
		c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump(messageHandler)
}

// readPump читает сообщения от клиента и передает их обработчику
func (c *Client) readPump(messageHandler func(message []byte, client *Client) error) {
	defer func() {
		c.state.Store(StateClosed)
		if c.registry != nil {
			c.registry.Leave(c)
		}
		c.conn.Close()
		log.Printf("[Client %s] Read pump остановлен (PIN: %s)", c.ConnectionID, c.pin)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[Client %s] Ошибка чтения: %v", c.ConnectionID, err)
			}
			break
		}

		if handlerErr := safeHandleMessage(message, c, messageHandler); handlerErr != nil {
			// Фатальная ошибка обработчика закрывает соединение
			log.Printf("[Client %s] Ошибка обработчика: %v. Соединение закрывается.", c.ConnectionID, handlerErr)
			break
		}
	}
}

// safeHandleMessage - обертка для вызова обработчика с recover
func safeHandleMessage(message []byte, client *Client, messageHandler func(message []byte, client *Client) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in message handler (ConnID: %s). Panic: %v\nStack trace:\n%s",
				client.ConnectionID, r, string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
	if messageHandler != nil {
		err = messageHandler(message, client)
	}
	return err
}

// writePump отправляет сообщения клиенту из канала send
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		log.Printf("[Client %s] Write pump остановлен", c.ConnectionID)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if !ok {
				// Канал send закрыт реестром или комнатой
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(message); err != nil {
				log.Printf("[Client %s] Ошибка записи: %v", c.ConnectionID, err)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
