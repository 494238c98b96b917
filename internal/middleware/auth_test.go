package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestIssueAndParseToken(t *testing.T) {
	token, issued, err := IssueToken(testSecret, 42, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, issued.JTI)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, issued.JTI, claims.JTI)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	_, _, err := IssueToken("", 1, time.Hour)
	assert.Error(t, err)
}

func TestParseTokenRejects(t *testing.T) {
	sign := func(claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.Itoa(7),
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	expired := base()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongIssuer := base()
	wrongIssuer["iss"] = "someone-else"
	badSubject := base()
	badSubject["sub"] = "abc"
	noExpiry := base()
	delete(noExpiry, "exp")

	tests := []struct {
		name  string
		token string
	}{
		{name: "Malformed", token: "malformed.token.here"},
		{name: "Wrong Secret", token: sign(base(), jwt.SigningMethodHS256, []byte("other-secret"))},
		{name: "Expired", token: sign(expired, jwt.SigningMethodHS256, []byte(testSecret))},
		{name: "Wrong Issuer", token: sign(wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret))},
		{name: "Non Numeric Subject", token: sign(badSubject, jwt.SigningMethodHS256, []byte(testSecret))},
		{name: "Missing Expiry", token: sign(noExpiry, jwt.SigningMethodHS256, []byte(testSecret))},
		{name: "Wrong Algorithm", token: sign(base(), jwt.SigningMethodHS512, []byte(testSecret))},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(testSecret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(BearerToken(c))
	})

	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "Basic dXNlcjpwYXNz", want: ""},
		{header: "", want: ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)
		_ = resp.Body.Close()
		assert.Equal(t, tt.want, string(buf[:n]))
	}
}
