package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/crewtrack/internal/cache"
	"github.com/yourorg/crewtrack/internal/models"
)

type WorkEntryHandler struct {
	db *sql.DB
}

func NewWorkEntryHandler(db *sql.DB) *WorkEntryHandler {
	return &WorkEntryHandler{db: db}
}

// CreateWorkEntry maneja POST /api/productions/:id/work-entries
func (h *WorkEntryHandler) CreateWorkEntry(c *fiber.Ctx) error {
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

	var req models.WorkEntryCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if _, err := time.Parse("2006-01-02", req.WorkDate); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "work_date must be YYYY-MM-DD",
		})
	}
	if req.Hours <= 0 || req.Hours > 24 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "hours must be between 0 and 24",
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

	result, err := h.db.Exec(`
		INSERT INTO work_entries (user_id, production_id, work_date, hours, note, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())
	`, userID, productionID, req.WorkDate, req.Hours, req.Note)
	if err != nil {
		log.Printf("❌ Error guardando registro de trabajo: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save work entry",
		})
	}

	entryID, _ := result.LastInsertId()

	if cache.SummariesCache != nil {
		cache.SummariesCache.Delete(fmt.Sprintf("work:%d", productionID))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Work entry saved successfully",
		"entry_id": entryID,
	})
}

// GetMyWorkEntries maneja GET /api/productions/:id/work-entries
func (h *WorkEntryHandler) GetMyWorkEntries(c *fiber.Ctx) error {
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

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	query := `
		SELECT id, user_id, production_id, DATE_FORMAT(work_date, '%Y-%m-%d'), hours, note, created_at
		FROM work_entries
		WHERE user_id = ? AND production_id = ?
		ORDER BY work_date DESC, created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := h.db.Query(query, userID, productionID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch work entries",
		})
	}
	defer rows.Close()

	entries := []models.WorkEntry{}
	for rows.Next() {
		var (
			e    models.WorkEntry
			note sql.NullString
		)
		err := rows.Scan(&e.ID, &e.UserID, &e.ProductionID, &e.WorkDate, &e.Hours, &note, &e.CreatedAt)
		if err != nil {
			continue
		}
		if note.Valid {
			e.Note = &note.String
		}
		entries = append(entries, e)
	}

	return c.JSON(fiber.Map{
		"entries": entries,
		"count":   len(entries),
	})
}

// GetWorkSummary maneja GET /api/productions/:id/work-entries/summary
// Totales de horas por miembro de la producción.
func (h *WorkEntryHandler) GetWorkSummary(c *fiber.Ctx) error {
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

	cacheKey := fmt.Sprintf("work:%d", productionID)
	if cache.SummariesCache != nil {
		if cached, found := cache.SummariesCache.Get(cacheKey); found {
			return c.JSON(cached)
		}
	}

	query := `
		SELECT we.user_id, u.username, SUM(we.hours), COUNT(*)
		FROM work_entries we
		LEFT JOIN users u ON u.id = we.user_id
		WHERE we.production_id = ?
		GROUP BY we.user_id, u.username
		ORDER BY SUM(we.hours) DESC
	`

	rows, err := h.db.Query(query, productionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch work summary",
		})
	}
	defer rows.Close()

	summaries := []models.WorkSummary{}
	for rows.Next() {
		var (
			s        models.WorkSummary
			username sql.NullString
		)
		if err := rows.Scan(&s.UserID, &username, &s.TotalHours, &s.EntryCount); err != nil {
			continue
		}
		if username.Valid {
			s.Username = &username.String
		}
		summaries = append(summaries, s)
	}

	response := fiber.Map{
		"summaries": summaries,
		"count":     len(summaries),
	}
	if cache.SummariesCache != nil {
		cache.SummariesCache.Set(cacheKey, response)
	}
	return c.JSON(response)
}
