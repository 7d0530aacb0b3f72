package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/yourorg/crewtrack/internal/cache"
	appdb "github.com/yourorg/crewtrack/internal/db"
	"github.com/yourorg/crewtrack/internal/handlers"
	"github.com/yourorg/crewtrack/internal/realtime"
	"github.com/yourorg/crewtrack/internal/routes"
)

func main() {
	_ = godotenv.Load()

	app := fiber.New()
	app.Use(logger.New())

	cache.InitCaches()

	// ============================================================================
	// DB CONNECTION + REALTIME HUB
	// ============================================================================
	var (
		dbReady bool
		hub     *realtime.Hub
	)

	go func() {
		for {
			db, err := appdb.Connect()
			if err != nil {
				log.Printf("db connect error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if err := appdb.EnsureSchema(db); err != nil {
				log.Printf("ensure schema error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			handlers.Setup(db)

			// El hub verifica membresía y arma snapshots contra la misma DB
			hub = realtime.NewHub(
				func(userID, productionID int64) (bool, error) {
					return handlers.IsMember(db, userID, productionID)
				},
				handlers.TeamSnapshot(db),
			)
			go hub.Run()

			routes.Register(app, db, hub)
			dbReady = true
			log.Printf("✅ Database ready and routes registered")
			log.Printf("✅ Realtime hub iniciado (snapshot cada %s)", hub.SnapshotInterval)
			return
		}
	}()

	// Wait briefly for DB to be ready
	for i := 0; i < 10 && !dbReady; i++ {
		time.Sleep(500 * time.Millisecond)
	}

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Señal de terminación recibida, cerrando servidor...")

		if hub != nil {
			hub.Stop()
		}
		cache.StopCaches()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error cerrando servidor: %v", err)
		}

		log.Println("✅ Servidor cerrado correctamente")
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Servidor escuchando en :%s", port)
	log.Println("📍 Endpoints disponibles:")
	log.Println("   POST /api/register                        - Crear cuenta")
	log.Println("   POST /api/login                           - Iniciar sesión")
	log.Println("   POST /api/productions                     - Crear producción")
	log.Println("   POST /api/productions/join                - Unirse por código")
	log.Println("   PUT  /api/productions/:id/location        - Publicar ubicación")
	log.Println("   PUT  /api/productions/:id/location/sharing - Toggle compartir")
	log.Println("   GET  /api/productions/:id/locations       - Set del equipo + presencia")
	log.Println("   POST /api/productions/:id/work-entries    - Registrar horas")
	log.Println("   POST /api/productions/:id/chat            - Chat del equipo")
	log.Println("   PUT  /api/productions/:id/ratings         - Calificar compañero")
	log.Println("   WS   /ws/realtime?token=...               - Feed de cambios")
	log.Println("💡 Presiona Ctrl+C para detener")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
