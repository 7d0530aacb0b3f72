package grid

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ============================================================================
// GRID CODEC - REFERENCIA DE CUADRÍCULA
// ============================================================================
// Convierte coordenadas GPS en una etiqueta corta legible ("C:42") para
// mostrar la posición aproximada de un miembro del equipo sin exponer la
// coordenada exacta en la UI.
//
// Esquema:
//   letra  = 'A' + mod(floor(lat*1000), 26)
//   número = mod(floor(lng*1000), 99) + 1
//
// El módulo es SIEMPRE el módulo matemático (resultado en [0, m)), también
// para coordenadas negativas. Go define % como resto truncado, por lo que
// -3 % 26 == -3; aquí eso se normaliza. La convención queda fijada porque
// determina la celda de coordenadas al sur del ecuador (Santiago: lat -33.4).

// Point es la coordenada ancla de una celda recuperada por Decode.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var labelPattern = regexp.MustCompile(`^([A-Z]):([0-9]+)$`)

// mathMod retorna el módulo matemático de a mod m, siempre en [0, m).
func mathMod(a, m int) int {
	return ((a % m) + m) % m
}

// Encode convierte (lat, lng) en una etiqueta "<Letra>:<Número>".
// El número siempre queda en 1..99.
func Encode(lat, lng float64) string {
	letter := rune('A' + mathMod(int(math.Floor(lat*1000)), 26))
	number := mathMod(int(math.Floor(lng*1000)), 99) + 1
	return fmt.Sprintf("%c:%d", letter, number)
}

// Decode invierte una etiqueta a la coordenada ancla de su celda.
// Retorna nil si la etiqueta no calza con el patrón (nunca panic).
//
// La inversión es CON PÉRDIDA: recupera solo el punto ancla de la celda, no
// la coordenada original. Se garantiza estabilidad de etiqueta
// (Encode sobre el punto decodificado reproduce la etiqueta), no igualdad
// de coordenadas.
func Decode(label string) *Point {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return nil
	}
	letterIndex := int(m[1][0] - 'A')
	number, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	return &Point{
		Lat: float64(letterIndex) / 1000,
		Lng: float64(number-1) / 1000,
	}
}
