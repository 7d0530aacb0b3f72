package models

import "time"

// WorkEntry representa un registro de trabajo dentro de una producción.
type WorkEntry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ProductionID int64     `json:"production_id"`
	WorkDate     string    `json:"work_date"` // YYYY-MM-DD
	Hours        float64   `json:"hours"`
	Note         *string   `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkEntryCreateRequest representa la solicitud para registrar trabajo.
type WorkEntryCreateRequest struct {
	WorkDate string  `json:"work_date"`
	Hours    float64 `json:"hours"`
	Note     *string `json:"note,omitempty"`
}

// WorkSummary es el total agregado de horas de un usuario en una producción.
type WorkSummary struct {
	UserID     int64   `json:"user_id"`
	Username   *string `json:"username,omitempty"`
	TotalHours float64 `json:"total_hours"`
	EntryCount int     `json:"entry_count"`
}
