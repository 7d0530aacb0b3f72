package realtime

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/websocket/v2"
)

// ErrNotAMember se retorna cuando un usuario intenta suscribirse a una
// producción a la que no pertenece.
var ErrNotAMember = errors.New("not a member of production")

// HandleSocket atiende el loop de lectura de una conexión ya autenticada.
// El JWT se valida antes del upgrade (ver routes); acá solo llegan mensajes
// subscribe/unsubscribe. Al cortarse la conexión la suscripción se libera.
func (h *Hub) HandleSocket(conn *websocket.Conn, userID int64) {
	client := h.Register(conn, userID)
	defer h.Unregister(client)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendDirect(client, Event{Type: "error", Error: "invalid message"})
			continue
		}

		switch msg.Action {
		case "subscribe":
			if err := h.Subscribe(client, msg.ProductionID); err != nil {
				h.sendDirect(client, Event{Type: "error", Error: err.Error()})
			}
		case "unsubscribe":
			// producción 0 = sin suscripción activa
			_ = h.Subscribe(client, 0)
		default:
			h.sendDirect(client, Event{Type: "error", Error: "unknown action"})
		}
	}
}

// sendDirect encola un mensaje para un solo cliente. Pasa por el run loop
// para mantener un único escritor por conexión.
func (h *Hub) sendDirect(client *Client, event Event) {
	select {
	case h.direct <- directMessage{client: client, event: event}:
	default:
	}
}
