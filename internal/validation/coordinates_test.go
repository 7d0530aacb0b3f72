package validation

import (
	"math"
	"testing"
)

func TestValidateCoordinatePair(t *testing.T) {
	cases := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"santiago", -33.4489, -70.6693, false},
		{"limites exactos", 90, 180, false},
		{"limites negativos", -90, -180, false},
		{"lat fuera de rango", 90.0001, 0, true},
		{"lon fuera de rango", 0, -180.0001, true},
		{"lat NaN", math.NaN(), 0, true},
		{"lon Inf", 0, math.Inf(1), true},
	}

	for _, tc := range cases {
		err := ValidateCoordinatePair(tc.lat, tc.lon, "location")
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: ValidateCoordinatePair(%v, %v) error = %v, wantErr %v",
				tc.name, tc.lat, tc.lon, err, tc.wantErr)
		}
	}
}

func TestCoordinateErrorIncludesField(t *testing.T) {
	err := ValidateLatitude(120, "location_lat")
	if err == nil {
		t.Fatal("esperaba error para latitud 120")
	}
	cerr, ok := err.(*CoordinateError)
	if !ok {
		t.Fatalf("esperaba *CoordinateError, llegó %T", err)
	}
	if cerr.Field != "location_lat" {
		t.Errorf("Field = %q, esperaba location_lat", cerr.Field)
	}
}

func TestIsZeroCoordinate(t *testing.T) {
	if !IsZeroCoordinate(0, 0) {
		t.Error("(0,0) debe marcarse como coordenada cero")
	}
	if IsZeroCoordinate(0, 0.0001) {
		t.Error("(0, 0.0001) no es coordenada cero")
	}
}
