package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(loginForm{Email: "user@example.com", Password: "hunter2hunter2"})
	assert.NoError(t, err)
}

func TestValidate_FieldMessages(t *testing.T) {
	err := Validate(loginForm{Email: "nope", Password: "short"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, []string{"must be a valid email address"}, fields["Email"])
	assert.Equal(t, []string{"must be at least 8"}, fields["Password"])
	assert.Contains(t, valErr.Error(), "Email")
}

func TestValidate_RequiredMessage(t *testing.T) {
	err := Validate(loginForm{})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, []string{"is required"}, valErr.Fields()["Email"])
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"user@example.com","password":"hunter2hunter2"}`))

	var form loginForm
	require.NoError(t, DecodeAndValidate(r, &form))
	assert.Equal(t, "user@example.com", form.Email)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))

	var form loginForm
	assert.Error(t, DecodeAndValidate(r, &form))
}
