package routes

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/yourorg/crewtrack/internal/handlers"
	"github.com/yourorg/crewtrack/internal/middleware"
	"github.com/yourorg/crewtrack/internal/realtime"
)

// Register registra la API y el endpoint websocket del feed de cambios.
// handlers.Setup(db) debe haberse llamado antes.
func Register(app *fiber.App, db *sql.DB, hub *realtime.Hub) {
	// ============================================================================
	// API PÚBLICA
	// ============================================================================
	api := app.Group("/api")

	// Health check (sin rate limiting)
	api.Get("/health", handlers.Health)

	// ============================================================================
	// AUTENTICACIÓN (con rate limiting estricto)
	// ============================================================================
	api.Post("/login", middleware.StrictRateLimiter(), handlers.Login)
	api.Post("/register", middleware.StrictRateLimiter(), handlers.Register)

	// Initialize handlers
	locationShareHandler := handlers.NewLocationShareHandler(db, hub)
	productionHandler := handlers.NewProductionHandler(db, hub)
	workEntryHandler := handlers.NewWorkEntryHandler(db)
	chatHandler := handlers.NewChatHandler(db, hub)
	ratingHandler := handlers.NewRatingHandler(db)
	statusHandler := handlers.NewStatusHandler(hub)

	// Status endpoint para el dashboard
	api.Get("/status", statusHandler.GetStatus)

	// ============================================================================
	// ENDPOINTS AUTENTICADOS
	// ============================================================================
	auth := api.Group("/", middleware.RequireAuth(handlers.JWTSecret), middleware.RateLimiter())

	// ────────────────────────────────────────────────────────────────────────
	// PRODUCCIONES
	// ────────────────────────────────────────────────────────────────────────
	auth.Post("/productions", productionHandler.CreateProduction)
	auth.Get("/productions", productionHandler.ListMyProductions)
	auth.Post("/productions/join", productionHandler.JoinProduction)
	auth.Delete("/productions/:id/membership", productionHandler.LeaveProduction)
	auth.Get("/productions/:id/members", productionHandler.GetMembers)

	// ────────────────────────────────────────────────────────────────────────
	// UBICACIÓN EN TIEMPO REAL
	// ────────────────────────────────────────────────────────────────────────
	auth.Put("/productions/:id/location", middleware.LocationWriteLimiter(), locationShareHandler.UpdateLocation)
	// PUT /api/productions/:id/location
	// Body: {latitude, longitude} - upsert del fix + grid reference

	auth.Put("/productions/:id/location/sharing", locationShareHandler.ToggleSharing)
	// Body: {is_sharing} - apagar conserva la última posición conocida

	auth.Get("/productions/:id/locations", locationShareHandler.GetTeamLocations)
	// Set completo con presencia derivada; target del polling de respaldo

	// ────────────────────────────────────────────────────────────────────────
	// REGISTRO DE TRABAJO
	// ────────────────────────────────────────────────────────────────────────
	auth.Post("/productions/:id/work-entries", workEntryHandler.CreateWorkEntry)
	auth.Get("/productions/:id/work-entries", workEntryHandler.GetMyWorkEntries)
	auth.Get("/productions/:id/work-entries/summary", workEntryHandler.GetWorkSummary)

	// ────────────────────────────────────────────────────────────────────────
	// CHAT POR PRODUCCIÓN
	// ────────────────────────────────────────────────────────────────────────
	auth.Post("/productions/:id/chat", chatHandler.PostMessage)
	auth.Get("/productions/:id/chat", chatHandler.GetMessages)

	// ────────────────────────────────────────────────────────────────────────
	// CALIFICACIONES
	// ────────────────────────────────────────────────────────────────────────
	auth.Put("/productions/:id/ratings", ratingHandler.RateUser)
	auth.Get("/users/:id/ratings", ratingHandler.GetUserRatingSummary)

	// ============================================================================
	// FEED DE CAMBIOS WEBSOCKET
	// ============================================================================
	// El token viaja por query param porque el handshake websocket del
	// browser no permite headers. Se valida ANTES del upgrade.
	app.Use("/ws/realtime", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := middleware.ParseUserID(c.Query("token"), handlers.JWTSecret())
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("userID", userID)
		return c.Next()
	})

	app.Get("/ws/realtime", websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(int64)
		if !ok {
			conn.Close()
			return
		}
		hub.HandleSocket(conn, userID)
	}))
}
