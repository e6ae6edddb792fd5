package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		schema string
		body   string
		valid  bool
	}{
		{"game", `{}`, true},
		{"game", `{"game_id": "table-1"}`, true},
		{"game", `{"game_id": ""}`, false},
		{"game", `{"game_id": 7}`, false},
		{"game", `[]`, false},
		{"new", `{"game_id": "x", "game_rules": "alternative"}`, true},
		{"new", `{"game_rules": 1}`, false},
		{"shuffle", `{"cut_point": 26}`, true},
		{"shuffle", `{"cut_point": 2.5}`, false},
		{"shuffle", `{"game_id": "x"}`, false},
		{"pile", `{"pile": "10"}`, true},
		{"pile", `{"pile": ""}`, false},
		{"pile", `{"pile": "100"}`, false},
		{"pile", `{}`, false},
		{"autoplay", `{"max_moves": 0}`, true},
		{"autoplay", `{"max_moves": -1}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.schema+" "+tt.body, func(t *testing.T) {
			err := v.Validate(tt.schema, []byte(tt.body))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidatorErrors(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate("missing", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema not found")

	err = v.Validate("game", []byte(`{`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}
