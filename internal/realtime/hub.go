package realtime

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
)

// ============================================================================
// REALTIME HUB - FEED DE CAMBIOS POR PRODUCCIÓN
// ============================================================================
// Cada cliente websocket se suscribe a UNA producción a la vez. Los handlers
// publican eventos de cambio ({table, production_id, action}) después de cada
// escritura; el hub los reparte solo a los sockets suscritos a esa producción
// en el momento de la entrega. Un evento de una producción anterior nunca
// llega a un cliente que ya cambió de suscripción.
//
// Los eventos NO llevan la fila modificada: el cliente re-lee el set completo
// de la producción (re-fetch-on-any-change, los rosters son chicos).
//
// Además, un ticker envía cada SnapshotInterval un snapshot completo a cada
// producción con suscriptores, aunque no haya habido cambios. Si el feed de
// cambios se cae en silencio, la consistencia se recupera en un intervalo.

// Event es el mensaje que viaja hacia los clientes.
type Event struct {
	Type         string      `json:"type"` // "change" | "snapshot" | "subscribed" | "error"
	Table        string      `json:"table,omitempty"`
	ProductionID int64       `json:"production_id,omitempty"`
	Action       string      `json:"action,omitempty"` // "INSERT" | "UPDATE" | "DELETE"
	Payload      interface{} `json:"payload,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// clientMessage es lo que el cliente puede enviarnos.
type clientMessage struct {
	Action       string `json:"action"` // "subscribe" | "unsubscribe"
	ProductionID int64  `json:"production_id"`
}

// Conn es el subconjunto de *websocket.Conn que usa el hub.
// Permite testear el fan-out sin sockets reales.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// MembershipChecker verifica que el usuario pertenezca a la producción
// antes de aceptar la suscripción.
type MembershipChecker func(userID, productionID int64) (bool, error)

// SnapshotFunc produce el payload del snapshot periódico de una producción.
type SnapshotFunc func(productionID int64) (interface{}, error)

// Client es una conexión websocket registrada en el hub.
type Client struct {
	conn   Conn
	userID int64
	// production actual; 0 = sin suscripción. Solo lo toca el run loop.
	productionID int64
}

type subscribeRequest struct {
	client       *Client
	productionID int64 // 0 para desuscribir
}

type directMessage struct {
	client *Client
	event  Event
}

// Hub reparte eventos de cambio a los clientes suscritos.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscribeRequest
	events     chan Event
	direct     chan directMessage
	stop       chan struct{}

	membership MembershipChecker
	snapshot   SnapshotFunc

	// SnapshotInterval es el fallback de consistencia eventual (30s).
	SnapshotInterval time.Duration

	clientCount atomic.Int64
}

// NewHub crea el hub. membership y snapshot pueden ser nil en tests.
func NewHub(membership MembershipChecker, snapshot SnapshotFunc) *Hub {
	return &Hub{
		clients:          make(map[*Client]bool),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		subscribe:        make(chan subscribeRequest),
		events:           make(chan Event, 256),
		direct:           make(chan directMessage, 64),
		stop:             make(chan struct{}),
		membership:       membership,
		snapshot:         snapshot,
		SnapshotInterval: 30 * time.Second,
	}
}

// Run es el loop principal; correr en una goroutine propia.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.clientCount.Store(int64(len(h.clients)))
			log.Printf("🔌 Cliente realtime conectado (user=%d). Total: %d", client.userID, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.conn.Close()
			}
			h.clientCount.Store(int64(len(h.clients)))
			log.Printf("🔌 Cliente realtime desconectado. Total: %d", len(h.clients))

		case req := <-h.subscribe:
			if _, ok := h.clients[req.client]; !ok {
				continue
			}
			// Cambiar de producción invalida la suscripción anterior: los
			// eventos pendientes de la producción vieja ya no calzan en la
			// comparación de entrega.
			req.client.productionID = req.productionID
			if req.productionID != 0 {
				h.send(req.client, Event{Type: "subscribed", ProductionID: req.productionID})
			}

		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.send(msg.client, msg.event)
			}

		case event := <-h.events:
			for client := range h.clients {
				if client.productionID == event.ProductionID {
					h.send(client, event)
				}
			}

		case <-ticker.C:
			h.pushSnapshots()

		case <-h.stop:
			for client := range h.clients {
				client.conn.Close()
			}
			h.clients = make(map[*Client]bool)
			h.clientCount.Store(0)
			return
		}
	}
}

// send serializa y escribe; en error de escritura se da de baja el cliente.
func (h *Hub) send(client *Client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error serializando evento realtime: %v", err)
		return
	}
	if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		client.conn.Close()
		delete(h.clients, client)
		h.clientCount.Store(int64(len(h.clients)))
	}
}

// pushSnapshots envía el estado completo a cada producción con suscriptores.
func (h *Hub) pushSnapshots() {
	if h.snapshot == nil {
		return
	}
	productions := make(map[int64][]*Client)
	for client := range h.clients {
		if client.productionID != 0 {
			productions[client.productionID] = append(productions[client.productionID], client)
		}
	}
	for productionID, subscribers := range productions {
		payload, err := h.snapshot(productionID)
		if err != nil {
			log.Printf("⚠️  Snapshot de producción %d falló: %v", productionID, err)
			continue
		}
		event := Event{Type: "snapshot", ProductionID: productionID, Payload: payload}
		for _, client := range subscribers {
			h.send(client, event)
		}
	}
}

// Stop cierra todas las conexiones y detiene el loop.
func (h *Hub) Stop() {
	close(h.stop)
}

// Register da de alta una conexión ya autenticada.
func (h *Hub) Register(conn Conn, userID int64) *Client {
	client := &Client{conn: conn, userID: userID}
	h.register <- client
	return client
}

// Unregister da de baja una conexión; libera su suscripción.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe cambia la producción del cliente, verificando membresía.
func (h *Hub) Subscribe(client *Client, productionID int64) error {
	if h.membership != nil && productionID != 0 {
		ok, err := h.membership(client.userID, productionID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotAMember
		}
	}
	h.subscribe <- subscribeRequest{client: client, productionID: productionID}
	return nil
}

// Publish encola un evento de cambio. No bloquea: si el buffer está lleno
// el evento se descarta (el snapshot periódico lo recupera).
func (h *Hub) Publish(table string, productionID int64, action string) {
	select {
	case h.events <- Event{Type: "change", Table: table, ProductionID: productionID, Action: action}:
	default:
		log.Printf("⚠️  Buffer de eventos lleno, descartando cambio de %s (producción %d)", table, productionID)
	}
}

// ClientCount retorna el número de conexiones activas (para /api/status).
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}
