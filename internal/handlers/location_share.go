package handlers

import (
	"database/sql"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/crewtrack/internal/grid"
	"github.com/yourorg/crewtrack/internal/models"
	"github.com/yourorg/crewtrack/internal/presence"
	"github.com/yourorg/crewtrack/internal/realtime"
	"github.com/yourorg/crewtrack/internal/validation"
)

// LocationShareHandler publica la ubicación del usuario y expone el set
// de ubicaciones de cada producción.
type LocationShareHandler struct {
	db  *sql.DB
	hub *realtime.Hub
}

func NewLocationShareHandler(db *sql.DB, hub *realtime.Hub) *LocationShareHandler {
	return &LocationShareHandler{db: db, hub: hub}
}

// upsertQuery es un upsert de fila completa sobre la PK (user, production):
// lecturas de GPS en ráfaga del mismo usuario terminan en UNA fila y gana
// la última escritura, sin races parciales de campos.
const upsertLocationQuery = `
	INSERT INTO location_shares (
		user_id, production_id, latitude, longitude,
		grid_reference, is_sharing, last_updated
	) VALUES (?, ?, ?, ?, ?, TRUE, NOW())
	ON DUPLICATE KEY UPDATE
		latitude = VALUES(latitude),
		longitude = VALUES(longitude),
		grid_reference = VALUES(grid_reference),
		is_sharing = TRUE,
		last_updated = NOW()
`

// UpdateLocation maneja PUT /api/productions/:id/location
// Publica un fix de geolocalización fresco: recalcula la referencia de
// cuadrícula y hace upsert de la fila completa. grid_reference nunca se
// escribe separado del par (lat, lng).
func (h *LocationShareHandler) UpdateLocation(c *fiber.Ctx) error {
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

	var req models.LocationUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validation.ValidateCoordinatePair(req.Latitude, req.Longitude, "location"); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
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

	gridRef := grid.Encode(req.Latitude, req.Longitude)

	_, err = h.db.Exec(upsertLocationQuery,
		userID, productionID, req.Latitude, req.Longitude, gridRef)
	if err != nil {
		log.Printf("❌ Error guardando ubicación (user=%d, production=%d): %v", userID, productionID, err)
		// Sin reintento automático: el cliente revierte su estado local
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update location",
		})
	}

	h.hub.Publish("location_shares", int64(productionID), "UPDATE")

	return c.JSON(fiber.Map{
		"message":        "Location updated successfully",
		"grid_reference": gridRef,
	})
}

// ToggleSharing maneja PUT /api/productions/:id/location/sharing
// Apagar el flag conserva las coordenadas previas: la última posición
// conocida queda disponible para el historial, no se borra.
func (h *LocationShareHandler) ToggleSharing(c *fiber.Ctx) error {
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

	var req models.SharingToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
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

	// El upsert no toca lat/lng/grid en el UPDATE: solo el flag y el
	// timestamp. Si no existía fila, nace con coordenadas (0,0) vacías.
	query := `
		INSERT INTO location_shares (
			user_id, production_id, is_sharing, last_updated
		) VALUES (?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			is_sharing = VALUES(is_sharing),
			last_updated = NOW()
	`

	_, err = h.db.Exec(query, userID, productionID, req.IsSharing)
	if err != nil {
		log.Printf("❌ Error cambiando flag de compartir (user=%d, production=%d): %v", userID, productionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update sharing state",
		})
	}

	h.hub.Publish("location_shares", int64(productionID), "UPDATE")

	return c.JSON(fiber.Map{
		"message":    "Sharing state updated",
		"is_sharing": req.IsSharing,
	})
}

// GetTeamLocations maneja GET /api/productions/:id/locations
// Retorna el set COMPLETO de ubicaciones de la producción con la presencia
// derivada en el momento de la lectura. Es el target del re-fetch de los
// suscriptores y del polling de respaldo cada 30 segundos.
func (h *LocationShareHandler) GetTeamLocations(c *fiber.Ctx) error {
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

	locations, err := fetchTeamLocations(h.db, int64(productionID), userID)
	if err != nil {
		log.Printf("❌ Error leyendo ubicaciones (production=%d): %v", productionID, err)
		// Fallback de lectura: lista vacía, el cliente puede refrescar
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     "Failed to fetch locations",
			"locations": []models.TeamLocation{},
		})
	}

	return c.JSON(fiber.Map{
		"locations": locations,
		"count":     len(locations),
	})
}

// fetchTeamLocations lee el set de la producción y deriva presencia.
// viewerID marca is_self; con viewerID=0 (snapshots del hub) ninguna fila
// es self.
func fetchTeamLocations(db *sql.DB, productionID, viewerID int64) ([]models.TeamLocation, error) {
	query := `
		SELECT
			ls.user_id, u.username, u.name,
			ls.latitude, ls.longitude, ls.grid_reference,
			ls.is_sharing, ls.last_updated
		FROM location_shares ls
		LEFT JOIN users u ON u.id = ls.user_id
		WHERE ls.production_id = ?
		ORDER BY ls.last_updated DESC
	`

	rows, err := db.Query(query, productionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []models.TeamLocation{}
	for rows.Next() {
		var (
			loc      models.TeamLocation
			username sql.NullString
			name     sql.NullString
		)
		err := rows.Scan(
			&loc.UserID,
			&username,
			&name,
			&loc.Latitude,
			&loc.Longitude,
			&loc.GridReference,
			&loc.IsSharing,
			&loc.LastUpdated,
		)
		if err != nil {
			continue
		}
		// join con users puede faltar (perfil borrado): campos quedan nil
		if username.Valid {
			loc.Username = &username.String
		}
		if name.Valid {
			loc.Name = &name.String
		}
		status := presence.ClassifyNow(loc.IsSharing, loc.LastUpdated)
		loc.Presence = string(status)
		loc.PresenceColor = status.Color()
		loc.IsSelf = loc.UserID == viewerID
		locations = append(locations, loc)
	}

	return locations, rows.Err()
}

// TeamSnapshot construye el SnapshotFunc que consume el hub para el push
// periódico de respaldo.
func TeamSnapshot(db *sql.DB) func(productionID int64) (interface{}, error) {
	return func(productionID int64) (interface{}, error) {
		locations, err := fetchTeamLocations(db, productionID, 0)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"locations": locations, "count": len(locations)}, nil
	}
}
