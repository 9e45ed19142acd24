package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yegors/flightboard/pkg/logger"
)

// Message types understood by the hub
const (
	MessageTypeJoinAirport  = "join_airport"  // Client subscribes to an airport room
	MessageTypeLeaveAirport = "leave_airport" // Client unsubscribes from an airport room
	MessageTypeError        = "error"         // Server reports a failed request
)

// Message is the JSON envelope used in both directions
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// MessageHandler defines the interface for handling incoming WebSocket messages
type MessageHandler interface {
	HandleMessage(client *Client, messageType string, data map[string]any) error
}

// Client is one browser connection and the rooms it has joined
type Client struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	mu        sync.Mutex
	closed    bool
	closeChan chan struct{}
	rooms     map[string]bool
}

type roomMessage struct {
	room    string
	message *Message
}

// Server is the websocket hub. Messages are delivered per room.
type Server struct {
	clients        map[*Client]bool
	register       chan *Client
	unregister     chan *Client
	broadcast      chan roomMessage
	stopCh         chan struct{}
	stopOnce       sync.Once
	upgrader       websocket.Upgrader
	logger         *logger.Logger
	mu             sync.RWMutex
	messageHandler MessageHandler
}

// NewServer creates a new WebSocket server
func NewServer(logger *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 256),
		stopCh:     make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		logger: logger.Named("web-socket"),
	}
}

// SetMessageHandler sets the message handler for incoming WebSocket messages
func (s *Server) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}

// Run starts the WebSocket hub and blocks until Stop is called
func (s *Server) Run() {
	s.logger.Info("Starting WebSocket server")

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client registered", Int("client_count", clientCount))

		case client := <-s.unregister:
			s.mu.Lock()
			s.removeLocked(client)
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client unregistered", Int("client_count", clientCount))

		case rm := <-s.broadcast:
			s.deliver(rm)

		case <-s.stopCh:
			s.mu.Lock()
			for client := range s.clients {
				s.removeLocked(client)
			}
			s.mu.Unlock()
			s.logger.Info("WebSocket server stopped")
			return
		}
	}
}

// Stop terminates Run and disconnects every client
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Server) removeLocked(client *Client) {
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	// Closed before the channel so SendMessage stops queueing
	client.mu.Lock()
	client.closed = true
	close(client.send)
	client.mu.Unlock()
}

// deliver fans a message out to the members of one room
func (s *Server) deliver(rm roomMessage) {
	s.mu.RLock()
	clientsToRemove := make([]*Client, 0)
	delivered := 0
	for client := range s.clients {
		client.mu.Lock()
		if client.closed {
			clientsToRemove = append(clientsToRemove, client)
			client.mu.Unlock()
			continue
		}
		member := rm.room == "" || client.rooms[rm.room]
		client.mu.Unlock()

		if !member {
			continue
		}

		select {
		case client.send <- rm.message:
			delivered++
		default:
			// Slow consumer, disconnect it
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	s.mu.RUnlock()

	if rm.room != "" {
		s.logger.Debug("Room broadcast delivered",
			String("room", rm.room),
			String("message_type", rm.message.Type),
			Int("recipients", delivered))
	}

	// Drop clients whose buffers overflowed
	if len(clientsToRemove) > 0 {
		s.mu.Lock()
		for _, client := range clientsToRemove {
			s.removeLocked(client)
		}
		s.mu.Unlock()
	}
}

// HandleConnection handles a WebSocket connection
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Handling new WebSocket connection request",
		String("remote_addr", r.RemoteAddr),
		String("user_agent", r.UserAgent()))

	// Switch protocols
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			Error(err),
			String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan *Message, 256),
		server:    s,
		closeChan: make(chan struct{}),
		rooms:     make(map[string]bool),
	}

	select {
	case s.register <- client:
	case <-s.stopCh:
		conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(message *Message) {
	s.BroadcastToRoom("", message)
}

// BroadcastToRoom sends a message to the clients that joined room.
// An empty room addresses everyone.
func (s *Server) BroadcastToRoom(room string, message *Message) {
	select {
	case s.broadcast <- roomMessage{room: strings.ToUpper(room), message: message}:
	case <-s.stopCh:
	}
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// RoomSize returns the number of clients in a room
func (s *Server) RoomSize(room string) int {
	room = strings.ToUpper(room)
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for client := range s.clients {
		client.mu.Lock()
		if client.rooms[room] {
			n++
		}
		client.mu.Unlock()
	}
	return n
}

// readPump decodes client messages and hands them to the message handler
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		select {
		case c.server.unregister <- c:
		case <-c.server.stopCh:
		}
		c.conn.Close()
	}()

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", Error(err))
			}
			return
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.server.logger.Warn("Failed to parse WebSocket message", Error(err))
			continue
		}

		c.server.logger.Debug("Received WebSocket message",
			String("type", message.Type),
			String("client", c.conn.RemoteAddr().String()))

		if c.server.messageHandler != nil {
			if err := c.server.messageHandler.HandleMessage(c, message.Type, message.Data); err != nil {
				c.server.logger.Warn("Failed to handle WebSocket message",
					Error(err),
					String("type", message.Type))
				c.SendMessage(&Message{
					Type: MessageTypeError,
					Data: map[string]any{"request": message.Type, "error": err.Error()},
				})
			}
		}
	}
}

// writePump drains the send buffer onto the connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Channel closed by the hub
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.server.logger.Error("Failed to marshal message", Error(err))
				continue
			}

			c.server.logger.Debug("Sending message to client",
				String("message_type", message.Type),
				String("message_length", fmt.Sprintf("%d bytes", len(data))))

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.closeChan:
			return
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closeChan)
	c.conn.Close()
}

// SendMessage sends a message to this specific client
func (c *Client) SendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		// Send buffer full, the message is dropped
		return false
	}
}

// JoinRoom subscribes the client to a room
func (c *Client) JoinRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[strings.ToUpper(room)] = true
}

// LeaveRoom unsubscribes the client from a room
func (c *Client) LeaveRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, strings.ToUpper(room))
}

// InRoom reports whether the client joined a room
func (c *Client) InRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[strings.ToUpper(room)]
}

// Field helpers
var (
	String = logger.String
	Int    = logger.Int
	Error  = logger.Error
)
