package models

import "time"

// Production representa un proyecto/espacio de trabajo que agrupa un equipo.
type Production struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	InviteCode  string    `json:"invite_code,omitempty"` // solo visible para miembros
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count,omitempty"`
}

// ProductionCreateRequest representa la solicitud para crear una producción.
type ProductionCreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// ProductionJoinRequest representa la solicitud para unirse vía código.
type ProductionJoinRequest struct {
	InviteCode string `json:"invite_code"`
}

// Member es un miembro de una producción con los campos de perfil visibles
// para sus compañeros. Role es nullable: el join con profiles puede no tener
// rol declarado (ver fallback documentado en el handler).
type Member struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Role     *string   `json:"role,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}
