package validation

import (
	"testing"

	apperrors "coach-hub/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklist_CollectsInOrder(t *testing.T) {
	c := NewChecklist().
		Require(true, "never recorded").
		Require(false, "first").
		RequireString("  ", "second").
		Requiref(false, "third %d", 3)

	assert.False(t, c.Empty())
	assert.Equal(t, []string{"first", "second", "third 3"}, c.Messages())
}

func TestChecklist_RequireIf(t *testing.T) {
	called := false
	c := NewChecklist().RequireIf(false, func() (bool, string) {
		called = true
		return false, "x"
	})
	assert.False(t, called)
	assert.True(t, c.Empty())

	c.RequireIf(true, func() (bool, string) { return false, "y" })
	assert.Equal(t, []string{"y"}, c.Messages())
}

func TestChecklist_MessagesIsACopy(t *testing.T) {
	c := NewChecklist().Require(false, "a")
	msgs := c.Messages()
	msgs[0] = "mutated"
	assert.Equal(t, []string{"a"}, c.Messages())
}

type navigateRequest struct {
	Mode    string `json:"mode" validate:"omitempty,upload_mode"`
	Type    string `json:"type" validate:"omitempty,program_type"`
	Product string `json:"product" validate:"omitempty,product_type"`
	Action  string `json:"action" validate:"required,oneof=next back"`
	Step    int    `json:"step" validate:"omitempty,min=1"`
	Target  string `json:"target" validate:"required_if=Action next"`
}

func TestValidateStruct_DomainTags(t *testing.T) {
	valid := navigateRequest{Mode: "replace", Type: "Nutrition", Product: "workshop", Action: "back"}
	require.NoError(t, ValidateStruct(valid))

	tests := []struct {
		name    string
		req     navigateRequest
		message string
	}{
		{"bad mode", navigateRequest{Mode: "merge", Action: "back"}, "field 'mode' must be replace or append"},
		{"bad type", navigateRequest{Type: "yoga", Action: "back"}, "field 'type' must be fitness or nutrition"},
		{"bad product", navigateRequest{Product: "ebook", Action: "back"}, "field 'product' must be program, workshop or document"},
		{"missing action", navigateRequest{}, "field 'action' is required"},
		{"bad action", navigateRequest{Action: "jump"}, "field 'action' must be one of: next back"},
		{"low step", navigateRequest{Action: "back", Step: -1}, "field 'step' must be at least 1"},
		{"conditional field", navigateRequest{Action: "next"}, "field 'target' is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateStruct_JoinsMessages(t *testing.T) {
	err := ValidateStruct(navigateRequest{Mode: "merge", Type: "yoga", Action: "back"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed: ")
	assert.Contains(t, err.Error(), "field 'mode'")
	assert.Contains(t, err.Error(), "field 'type'")
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	err := ValidateStruct("plain string")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
