package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
)

// currentUserID extrae el user id que dejó el middleware de auth.
func currentUserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals("userID").(int64)
	return id, ok
}

// IsMember verifica la pertenencia de un usuario a una producción.
// Es el equivalente a la política de filas del almacén: toda lectura o
// escritura de datos de producción pasa por acá.
func IsMember(db *sql.DB, userID, productionID int64) (bool, error) {
	var one int
	err := db.QueryRow(
		`SELECT 1 FROM user_productions WHERE user_id = ? AND production_id = ?`,
		userID, productionID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
