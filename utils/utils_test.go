package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrencyINR(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0"},
		{999, "₹999"},
		{2500, "₹2,500"},
		{100000, "₹1,00,000"},
		{1234567.5, "₹12,34,567.50"},
		{-1500.25, "-₹1,500.25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrencyINR(tt.amount))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("unit-test-secret")

	token, err := GenerateToken(7, "ana@example.com", true)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)

	InitJWT("another-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestBlacklistedTokenIsRejected(t *testing.T) {
	InitJWT("unit-test-secret")
	token, err := GenerateToken(1, "bob@example.com", false)
	require.NoError(t, err)

	BlacklistToken(token)
	_, err = ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.Zero(t, PruneBlacklist(time.Now().Add(48*time.Hour)))
	_, err = ValidateToken(token)
	assert.NoError(t, err)
}

func TestRespondEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondJSON(c, http.StatusCreated, gin.H{"id": 3})
	assert.JSONEq(t, `{"ok":true,"id":3}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondJSON(c, http.StatusConflict, gin.H{"error": "exists"})
	assert.JSONEq(t, `{"ok":false,"error":"exists"}`, w.Body.String())
}
