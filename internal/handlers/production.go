package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/yourorg/crewtrack/internal/cache"
	"github.com/yourorg/crewtrack/internal/models"
	"github.com/yourorg/crewtrack/internal/realtime"
)

type ProductionHandler struct {
	db  *sql.DB
	hub *realtime.Hub
}

func NewProductionHandler(db *sql.DB, hub *realtime.Hub) *ProductionHandler {
	return &ProductionHandler{db: db, hub: hub}
}

// CreateProduction maneja POST /api/productions
// Crea la producción y suma al creador como primer miembro.
func (h *ProductionHandler) CreateProduction(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req models.ProductionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "name required",
		})
	}

	inviteCode := uuid.New().String()

	tx, err := h.db.Begin()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create production",
		})
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO productions (name, description, invite_code, owner_id, created_at)
		VALUES (?, ?, ?, ?, NOW())
	`, req.Name, req.Description, inviteCode, userID)
	if err != nil {
		log.Printf("❌ Error creando producción: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create production",
		})
	}

	productionID, _ := res.LastInsertId()

	if _, err := tx.Exec(`
		INSERT INTO user_productions (user_id, production_id) VALUES (?, ?)
	`, userID, productionID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create production",
		})
	}

	if err := tx.Commit(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create production",
		})
	}

	if cache.ProductionsCache != nil {
		cache.ProductionsCache.Delete(fmt.Sprintf("user:%d", userID))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Production created successfully",
		"production_id": productionID,
		"invite_code":   inviteCode,
	})
}

// ListMyProductions maneja GET /api/productions
func (h *ProductionHandler) ListMyProductions(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	cacheKey := fmt.Sprintf("user:%d", userID)
	if cache.ProductionsCache != nil {
		if cached, found := cache.ProductionsCache.Get(cacheKey); found {
			return c.JSON(cached)
		}
	}

	query := `
		SELECT
			p.id, p.name, p.description, p.invite_code, p.owner_id, p.created_at,
			(SELECT COUNT(*) FROM user_productions m WHERE m.production_id = p.id) AS member_count
		FROM productions p
		JOIN user_productions up ON up.production_id = p.id
		WHERE up.user_id = ?
		ORDER BY p.created_at DESC
	`

	rows, err := h.db.Query(query, userID)
	if err != nil {
		log.Printf("❌ Error listando producciones (user=%d): %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch productions",
		})
	}
	defer rows.Close()

	productions := []models.Production{}
	for rows.Next() {
		var (
			p           models.Production
			description sql.NullString
		)
		err := rows.Scan(&p.ID, &p.Name, &description, &p.InviteCode, &p.OwnerID, &p.CreatedAt, &p.MemberCount)
		if err != nil {
			continue
		}
		if description.Valid {
			p.Description = &description.String
		}
		productions = append(productions, p)
	}

	response := fiber.Map{
		"productions": productions,
		"count":       len(productions),
	}
	if cache.ProductionsCache != nil {
		cache.ProductionsCache.Set(cacheKey, response)
	}
	return c.JSON(response)
}

// JoinProduction maneja POST /api/productions/join
// Une al usuario vía código de invitación.
func (h *ProductionHandler) JoinProduction(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req models.ProductionJoinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.InviteCode = strings.TrimSpace(req.InviteCode)
	if req.InviteCode == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "invite_code required",
		})
	}

	var productionID int64
	err := h.db.QueryRow(`SELECT id FROM productions WHERE invite_code = ?`, req.InviteCode).Scan(&productionID)
	if err == sql.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invalid invite code",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to join production",
		})
	}

	_, err = h.db.Exec(`
		INSERT INTO user_productions (user_id, production_id) VALUES (?, ?)
	`, userID, productionID)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Already a member",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to join production",
		})
	}

	h.invalidateRosterCaches(userID, productionID)
	h.hub.Publish("user_productions", productionID, "INSERT")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Joined production",
		"production_id": productionID,
	})
}

// LeaveProduction maneja DELETE /api/productions/:id/membership
func (h *ProductionHandler) LeaveProduction(c *fiber.Ctx) error {
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

	result, err := h.db.Exec(`
		DELETE FROM user_productions WHERE user_id = ? AND production_id = ?
	`, userID, productionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to leave production",
		})
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not a member",
		})
	}

	h.invalidateRosterCaches(userID, int64(productionID))
	h.hub.Publish("user_productions", int64(productionID), "DELETE")

	return c.JSON(fiber.Map{
		"message": "Left production",
	})
}

// GetMembers maneja GET /api/productions/:id/members
func (h *ProductionHandler) GetMembers(c *fiber.Ctx) error {
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

	cacheKey := fmt.Sprintf("members:%d", productionID)
	if cache.MembersCache != nil {
		if cached, found := cache.MembersCache.Get(cacheKey); found {
			return c.JSON(cached)
		}
	}

	query := `
		SELECT up.user_id, u.username, u.name, u.role, up.joined_at
		FROM user_productions up
		JOIN users u ON u.id = up.user_id
		WHERE up.production_id = ?
		ORDER BY up.joined_at ASC
	`

	rows, err := h.db.Query(query, productionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch members",
		})
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var (
			m    models.Member
			role sql.NullString
		)
		if err := rows.Scan(&m.UserID, &m.Username, &m.Name, &role, &m.JoinedAt); err != nil {
			continue
		}
		// rol no declarado: queda nil y la UI muestra el fallback genérico
		if role.Valid {
			m.Role = &role.String
		}
		members = append(members, m)
	}

	response := fiber.Map{
		"members": members,
		"count":   len(members),
	}
	if cache.MembersCache != nil {
		cache.MembersCache.Set(cacheKey, response)
	}
	return c.JSON(response)
}

func (h *ProductionHandler) invalidateRosterCaches(userID, productionID int64) {
	if cache.ProductionsCache != nil {
		cache.ProductionsCache.Delete(fmt.Sprintf("user:%d", userID))
	}
	if cache.MembersCache != nil {
		cache.MembersCache.Delete(fmt.Sprintf("members:%d", productionID))
	}
}
