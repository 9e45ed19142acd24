package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yegors/flightboard/internal/websocket"
	"github.com/yegors/flightboard/pkg/logger"
)

// RoomClient is the part of a websocket client the handler needs
type RoomClient interface {
	JoinRoom(room string)
	LeaveRoom(room string)
	SendMessage(message *websocket.Message) bool
}

// WebSocketHandler manages airport room membership
type WebSocketHandler struct {
	service *Service
	timeout time.Duration
	logger  *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket message handler
func NewWebSocketHandler(service *Service, logger *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
		timeout: 15 * time.Second,
		logger:  logger.Named("board-ws-handler"),
	}
}

// HandleMessage handles incoming WebSocket messages
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	return h.handle(client, messageType, data)
}

func (h *WebSocketHandler) handle(client RoomClient, messageType string, data map[string]any) error {
	switch messageType {
	case websocket.MessageTypeJoinAirport:
		return h.handleJoin(client, data)
	case websocket.MessageTypeLeaveAirport:
		icao, err := airportParam(data)
		if err != nil {
			return err
		}
		client.LeaveRoom(icao)
		return nil
	default:
		h.logger.Debug("Unhandled message type", logger.String("type", messageType))
		return nil
	}
}

// handleJoin subscribes the client and sends it the current board straight away
func (h *WebSocketHandler) handleJoin(client RoomClient, data map[string]any) error {
	icao, err := airportParam(data)
	if err != nil {
		return err
	}
	if _, ok := h.service.Registry().Get(icao); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAirport, icao)
	}

	client.JoinRoom(icao)

	b, ok := h.service.Board(icao)
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		// RefreshAirport broadcasts to the room, which now includes this client
		_, err := h.service.RefreshAirport(ctx, icao)
		return err
	}

	client.SendMessage(UpdateMessage(b))
	return nil
}

func airportParam(data map[string]any) (string, error) {
	raw, _ := data["airport"].(string)
	icao := strings.ToUpper(strings.TrimSpace(raw))
	if icao == "" {
		return "", fmt.Errorf("missing airport")
	}
	return icao, nil
}
