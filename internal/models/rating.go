package models

import "time"

// UserRating representa la calificación de un compañero dentro de una
// producción. Única por (rater_id, rated_id, production_id); volver a
// calificar sobreescribe la anterior.
type UserRating struct {
	ID           int64     `json:"id"`
	RaterID      int64     `json:"rater_id"`
	RatedID      int64     `json:"rated_id"`
	ProductionID int64     `json:"production_id"`
	Score        int       `json:"score"` // 1..5
	Comment      *string   `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RatingRequest representa la solicitud para calificar a un compañero.
type RatingRequest struct {
	RatedID int64   `json:"rated_id"`
	Score   int     `json:"score"`
	Comment *string `json:"comment,omitempty"`
}

// RatingSummary es el agregado de calificaciones recibidas por un usuario.
type RatingSummary struct {
	UserID    int64      `json:"user_id"`
	Average   float64    `json:"average"`
	Count     int        `json:"count"`
	LastRated *time.Time `json:"last_rated,omitempty"`
}
