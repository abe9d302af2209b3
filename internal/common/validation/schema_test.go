package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submissionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"assessmentId", "assessmentType"},
		"properties": map[string]interface{}{
			"assessmentId":   map[string]interface{}{"type": "string", "minLength": 1},
			"assessmentType": map[string]interface{}{"type": "string", "enum": []interface{}{"ccrl", "cdrl"}},
			"manualProcessing": map[string]interface{}{"type": "boolean"},
		},
	}
}

func TestValidator(t *testing.T) {
	v, err := Compile(submissionSchema())
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      map[string]interface{}
		valid      bool
		errorField string
	}{
		{
			name:  "valid",
			input: map[string]interface{}{"assessmentId": "a1", "assessmentType": "ccrl", "manualProcessing": true},
			valid: true,
		},
		{
			name:       "missing required",
			input:      map[string]interface{}{"assessmentType": "ccrl"},
			errorField: "(root)",
		},
		{
			name:       "bad enum",
			input:      map[string]interface{}{"assessmentId": "a1", "assessmentType": "xyz"},
			errorField: "assessmentType",
		},
		{
			name:       "bad type",
			input:      map[string]interface{}{"assessmentId": "a1", "assessmentType": "cdrl", "manualProcessing": "yes"},
			errorField: "manualProcessing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.input)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.NoError(t, v.Check(tt.input))
				return
			}
			require.NotEmpty(t, res.Errors)
			assert.Equal(t, tt.errorField, res.Errors[0].Field)
			assert.Error(t, v.Check(tt.input))
		})
	}
}

func TestValidateInput_EmptySchema(t *testing.T) {
	res := ValidateInput(map[string]interface{}{"anything": 1}, nil)
	assert.True(t, res.Valid)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}
