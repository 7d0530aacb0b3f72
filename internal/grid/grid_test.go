package grid

import (
	"regexp"
	"testing"
)

var outputPattern = regexp.MustCompile(`^[A-Z]:[1-9][0-9]?$`)

func TestEncodeFormat(t *testing.T) {
	coords := [][2]float64{
		{0, 0},
		{40.0, -74.0},
		{-33.4489, -70.6693}, // Santiago
		{89.9999, 179.9999},
		{-89.9999, -179.9999},
		{0.0254, 0.0981},
	}

	for _, c := range coords {
		label := Encode(c[0], c[1])
		if !outputPattern.MatchString(label) {
			t.Errorf("Encode(%v, %v) = %q, formato inválido", c[0], c[1], label)
		}
	}
}

func TestEncodeKnownCells(t *testing.T) {
	// (0,0) es la celda ancla: letra A, número 1
	if got := Encode(0, 0); got != "A:1" {
		t.Errorf("Encode(0,0) = %q, expected A:1", got)
	}
	// 0.025 -> floor(25) mod 26 = 25 -> 'Z'; 0.098 -> floor(98) mod 99 + 1 = 99
	if got := Encode(0.025, 0.098); got != "Z:99" {
		t.Errorf("Encode(0.025,0.098) = %q, expected Z:99", got)
	}
}

func TestEncodeNegativeCoordinates(t *testing.T) {
	// Módulo matemático: floor(-0.001*1000) = -1, mod 26 = 25 -> 'Z'
	if got := Encode(-0.001, -0.001); got != "Z:99" {
		t.Errorf("Encode(-0.001,-0.001) = %q, expected Z:99", got)
	}
	// Santiago queda en una celda determinística
	a := Encode(-33.4489, -70.6693)
	b := Encode(-33.4489, -70.6693)
	if a != b {
		t.Errorf("Encode no es determinístico: %q vs %q", a, b)
	}
}

func TestDecodeKnownLabels(t *testing.T) {
	p := Decode("Z:99")
	if p == nil {
		t.Fatal("Decode(Z:99) retornó nil")
	}
	if p.Lat != 0.025 || p.Lng != 0.098 {
		t.Errorf("Decode(Z:99) = {%v, %v}, expected {0.025, 0.098}", p.Lat, p.Lng)
	}

	p = Decode("A:1")
	if p == nil {
		t.Fatal("Decode(A:1) retornó nil")
	}
	if p.Lat != 0 || p.Lng != 0 {
		t.Errorf("Decode(A:1) = {%v, %v}, expected {0, 0}", p.Lat, p.Lng)
	}
}

func TestDecodeInvalidLabels(t *testing.T) {
	invalid := []string{
		"not-a-grid",
		"",
		"a:1",   // minúscula
		"A-1",   // separador incorrecto
		"AB:12", // dos letras
		"A:",    // sin número
		":1",
		"A:1x",
	}

	for _, label := range invalid {
		if p := Decode(label); p != nil {
			t.Errorf("Decode(%q) = %+v, expected nil", label, p)
		}
	}
}

// La etiqueta debe ser estable al recomponerla desde el punto ancla,
// aunque la coordenada original NO se recupere.
func TestLabelStability(t *testing.T) {
	coords := [][2]float64{
		{0, 0},
		{40.0, -74.0},
		{-33.4489, -70.6693},
		{12.3456, 98.7654},
		{-0.0005, 0.0005},
		{89.999, -179.999},
	}

	for _, c := range coords {
		label := Encode(c[0], c[1])
		p := Decode(label)
		if p == nil {
			t.Fatalf("Decode(%q) retornó nil", label)
		}
		if again := Encode(p.Lat, p.Lng); again != label {
			t.Errorf("etiqueta inestable: %q -> decode -> %q", label, again)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Encode(-33.4489, -70.6693)
	}
}

func BenchmarkDecode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Decode("H:37")
	}
}
