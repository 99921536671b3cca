package core

import (
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zoneInput struct {
	Latitude *float64 `json:"latitude" validate:"required,finite,latitude"`
	PRN      string   `json:"prn" validate:"omitempty,prn"`
	Name     string   `json:"name" validate:"notblank"`
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		input zoneInput
		want  map[string]string
	}{
		{name: "valid", input: zoneInput{Latitude: f(18.52), PRN: "CS-2024-017", Name: "x"}},
		{
			name:  "missing",
			input: zoneInput{},
			want:  map[string]string{"latitude": "this field is required", "name": "this field is required"},
		},
		{
			name:  "not finite",
			input: zoneInput{Latitude: f(math.Inf(1)), Name: "x"},
			want:  map[string]string{"latitude": "latitude must be a finite number"},
		},
		{
			name:  "bad prn",
			input: zoneInput{Latitude: f(0), PRN: "a b", Name: "x"},
			want:  map[string]string{"prn": "prn must be 3 to 32 letters, digits or dashes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.input)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.want, TranslateErrors(vErrs, translator))
		})
	}
}
