package handlers

import (
	"database/sql"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yourorg/crewtrack/internal/models"
	"github.com/yourorg/crewtrack/internal/realtime"
)

type ChatHandler struct {
	db  *sql.DB
	hub *realtime.Hub
}

func NewChatHandler(db *sql.DB, hub *realtime.Hub) *ChatHandler {
	return &ChatHandler{db: db, hub: hub}
}

// PostMessage maneja POST /api/productions/:id/chat
// Inserta el mensaje y notifica el cambio al canal de la producción;
// los clientes re-leen el historial al recibir el evento.
func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	productionID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid production id",
		})
	}

	var req models.ChatPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "body required",
		})
	}
	if len(req.Body) > 2000 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "body too long (max 2000)",
		})
	}

	member, err := IsMember(h.db, userID, int64(productionID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check membership",
		})
	}
	if !member {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this production",
		})
	}

	messageID := uuid.New().String()

	_, err = h.db.Exec(`
		INSERT INTO chat_messages (id, production_id, user_id, body, created_at)
		VALUES (?, ?, ?, ?, NOW())
	`, messageID, productionID, userID, req.Body)
	if err != nil {
		log.Printf("❌ Error guardando mensaje de chat: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to post message",
		})
	}

	h.hub.Publish("chat_messages", int64(productionID), "INSERT")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Message posted",
		"message_id": messageID,
	})
}

// GetMessages maneja GET /api/productions/:id/chat
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	productionID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid production id",
		})
	}

	member, err := IsMember(h.db, userID, int64(productionID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check membership",
		})
	}
	if !member {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this production",
		})
	}

	limit := c.QueryInt("limit", 100)
	if limit > 500 {
		limit = 500
	}

	query := `
		SELECT cm.id, cm.production_id, cm.user_id, u.username, cm.body, cm.created_at
		FROM chat_messages cm
		LEFT JOIN users u ON u.id = cm.user_id
		WHERE cm.production_id = ?
		ORDER BY cm.created_at DESC
		LIMIT ?
	`

	rows, err := h.db.Query(query, productionID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch messages",
		})
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var (
			m        models.ChatMessage
			username sql.NullString
		)
		err := rows.Scan(&m.ID, &m.ProductionID, &m.UserID, &username, &m.Body, &m.CreatedAt)
		if err != nil {
			continue
		}
		if username.Valid {
			m.Username = &username.String
		}
		messages = append(messages, m)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}
