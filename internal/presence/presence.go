package presence

import "time"

// ============================================================================
// PRESENCE CLASSIFIER
// ============================================================================
// Deriva el estado de presencia de un miembro a partir de su flag de
// compartir y la antigüedad de su última actualización de ubicación.
// Es una función pura del reloj: se recalcula en cada lectura, nunca se
// persiste ni se cachea (el "ahora" cambia continuamente).
//
// Umbrales:
//   < 5 min   -> online
//   < 30 min  -> recently_active
//   >= 30 min -> offline
//   !sharing  -> not_sharing (ignora el timestamp)

type Status string

const (
	StatusNotSharing     Status = "not_sharing"
	StatusOnline         Status = "online"
	StatusRecentlyActive Status = "recently_active"
	StatusOffline        Status = "offline"
)

const (
	onlineWindow         = 5 * time.Minute
	recentlyActiveWindow = 30 * time.Minute
)

// Color retorna el tag de color que la UI asocia a cada estado.
func (s Status) Color() string {
	switch s {
	case StatusOnline:
		return "green"
	case StatusRecentlyActive:
		return "amber"
	case StatusOffline:
		return "gray"
	default:
		return "slate"
	}
}

// Classify evalúa el estado de presencia en el instante `now`.
func Classify(isSharing bool, lastUpdated time.Time, now time.Time) Status {
	if !isSharing {
		return StatusNotSharing
	}
	age := now.Sub(lastUpdated)
	switch {
	case age < onlineWindow:
		return StatusOnline
	case age < recentlyActiveWindow:
		return StatusRecentlyActive
	default:
		return StatusOffline
	}
}

// ClassifyNow es el atajo con reloj de pared para los handlers.
func ClassifyNow(isSharing bool, lastUpdated time.Time) Status {
	return Classify(isSharing, lastUpdated, time.Now())
}
