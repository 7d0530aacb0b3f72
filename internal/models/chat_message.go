package models

import "time"

// ChatMessage representa un mensaje en el canal de una producción.
type ChatMessage struct {
	ID           string    `json:"id"` // uuid
	ProductionID int64     `json:"production_id"`
	UserID       int64     `json:"user_id"`
	Username     *string   `json:"username,omitempty"` // nullable si el perfil ya no existe
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatPostRequest representa la solicitud para publicar un mensaje.
type ChatPostRequest struct {
	Body string `json:"body"`
}
