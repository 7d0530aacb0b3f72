package models

import "time"

// LocationShare representa la fila "dónde está este usuario y está
// compartiendo" de una producción. Única por (user_id, production_id);
// solo la escribe su dueño, la leen todos los miembros de la producción.
//
// GridReference siempre se reescribe junto con (Latitude, Longitude);
// nunca se actualiza de forma independiente.
type LocationShare struct {
	UserID        int64     `json:"user_id" db:"user_id"`
	ProductionID  int64     `json:"production_id" db:"production_id"`
	Latitude      float64   `json:"latitude" db:"latitude"`
	Longitude     float64   `json:"longitude" db:"longitude"`
	GridReference string    `json:"grid_reference" db:"grid_reference"`
	IsSharing     bool      `json:"is_sharing" db:"is_sharing"`
	LastUpdated   time.Time `json:"last_updated" db:"last_updated"`
}

// LocationUpdateRequest representa un fix de geolocalización fresco.
type LocationUpdateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SharingToggleRequest enciende o apaga el flag de compartir.
type SharingToggleRequest struct {
	IsSharing bool `json:"is_sharing"`
}

// TeamLocation es una fila del set de ubicaciones de la producción con la
// presencia derivada al momento de la lectura. Username/Name son nullable:
// el join con users puede faltar si el perfil fue eliminado.
type TeamLocation struct {
	UserID        int64     `json:"user_id"`
	Username      *string   `json:"username,omitempty"`
	Name          *string   `json:"name,omitempty"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	GridReference string    `json:"grid_reference"`
	IsSharing     bool      `json:"is_sharing"`
	LastUpdated   time.Time `json:"last_updated"`
	Presence      string    `json:"presence"`
	PresenceColor string    `json:"presence_color"`
	IsSelf        bool      `json:"is_self"`
}
