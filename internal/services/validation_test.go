package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCharge struct {
	Title    string `json:"title" validate:"max=5"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=10"`
	Note     string `validate:"required"`
	Secret   string `json:"-"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, vh.ValidateStruct(&testCharge{Title: "Beer", Quantity: 2, Note: "x"}))
	})

	t.Run("fields reported by json name", func(t *testing.T) {
		err := vh.ValidateStruct(&testCharge{Title: "Whisky sour", Quantity: 11})
		require.Error(t, err)

		var validationErrors validator.ValidationErrors
		require.True(t, errors.As(err, &validationErrors))
		require.Len(t, validationErrors, 3)

		fields := []string{validationErrors[0].Field(), validationErrors[1].Field(), validationErrors[2].Field()}
		assert.ElementsMatch(t, []string{"title", "quantity", "Note"}, fields)
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "Customer not found", http.StatusNotFound, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Customer not found", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("validation details", func(t *testing.T) {
		validationErr := NewValidationHelper().ValidateStruct(&testCharge{Title: "Whisky sour", Quantity: -1})

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Validation failed", response.Error)
		assert.Equal(t, "must be at most 5 characters", response.Details["title"])
		assert.Equal(t, "must be at least 0", response.Details["quantity"])
		assert.Equal(t, "is required", response.Details["Note"])
	})

	t.Run("non-validation error carries no details", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, errors.New("unexpected EOF"))

		assert.False(t, strings.Contains(w.Body.String(), "details"))
	})

	t.Run("wrapped validation error", func(t *testing.T) {
		err := NewValidationHelper().ValidateStruct(&testCharge{Note: ""})
		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, errors.Join(errors.New("decode"), err))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response.Details, "Note")
	})
}
