package handlers

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/crewtrack/internal/cache"
	"github.com/yourorg/crewtrack/internal/models"
)

type RatingHandler struct {
	db *sql.DB
}

func NewRatingHandler(db *sql.DB) *RatingHandler {
	return &RatingHandler{db: db}
}

// RateUser maneja PUT /api/productions/:id/ratings
// Upsert sobre (rater, rated, production): volver a calificar reemplaza
// la calificación anterior.
func (h *RatingHandler) RateUser(c *fiber.Ctx) error {
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

	var req models.RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Score < 1 || req.Score > 5 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "score must be between 1 and 5",
		})
	}
	if req.RatedID == userID {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "cannot rate yourself",
		})
	}

	// Ambos deben ser miembros de la producción
	for _, id := range []int64{userID, req.RatedID} {
		member, err := IsMember(h.db, id, int64(productionID))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check membership",
			})
		}
		if !member {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Both users must be members of this production",
			})
		}
	}

	_, err = h.db.Exec(`
		INSERT INTO user_ratings (rater_id, rated_id, production_id, score, comment, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			score = VALUES(score),
			comment = VALUES(comment),
			created_at = NOW()
	`, userID, req.RatedID, productionID, req.Score, req.Comment)
	if err != nil {
		log.Printf("❌ Error guardando calificación: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save rating",
		})
	}

	if cache.SummariesCache != nil {
		cache.SummariesCache.Delete(fmt.Sprintf("ratings:%d", req.RatedID))
	}

	return c.JSON(fiber.Map{
		"message": "Rating saved successfully",
	})
}

// GetUserRatingSummary maneja GET /api/users/:id/ratings
// Agregado de calificaciones recibidas por un usuario en todas sus
// producciones.
func (h *RatingHandler) GetUserRatingSummary(c *fiber.Ctx) error {
	if _, ok := currentUserID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	ratedID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	cacheKey := fmt.Sprintf("ratings:%d", ratedID)
	if cache.SummariesCache != nil {
		if cached, found := cache.SummariesCache.Get(cacheKey); found {
			return c.JSON(cached)
		}
	}

	var summary models.RatingSummary
	summary.UserID = int64(ratedID)

	var (
		avg  sql.NullFloat64
		last sql.NullTime
	)
	err = h.db.QueryRow(`
		SELECT AVG(score), COUNT(*), MAX(created_at)
		FROM user_ratings
		WHERE rated_id = ?
	`, ratedID).Scan(&avg, &summary.Count, &last)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch rating summary",
		})
	}

	if avg.Valid {
		summary.Average = avg.Float64
	}
	if last.Valid {
		summary.LastRated = &last.Time
	}

	if cache.SummariesCache != nil {
		cache.SummariesCache.Set(cacheKey, summary)
	}
	return c.JSON(summary)
}
