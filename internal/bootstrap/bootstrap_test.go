package bootstrap

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yigit/schooladmin/internal/config"
)

func TestSameSiteMode(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, sameSiteMode("Strict"))
	assert.Equal(t, http.SameSiteNoneMode, sameSiteMode("none"))
	assert.Equal(t, http.SameSiteLaxMode, sameSiteMode("lax"))
	assert.Equal(t, http.SameSiteLaxMode, sameSiteMode(""))
}

func TestCORSConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.CORS.AllowedOrigins = "http://localhost:3000, https://office.school.test"

	c := corsConfig(cfg)
	assert.Equal(t, []string{"http://localhost:3000", "https://office.school.test"}, c.AllowOrigins)
	assert.Nil(t, c.AllowOriginFunc)
	assert.True(t, c.AllowCredentials)
	assert.NoError(t, c.Validate())

	cfg.CORS.AllowedOrigins = "*"
	c = corsConfig(cfg)
	assert.Empty(t, c.AllowOrigins)
	if assert.NotNil(t, c.AllowOriginFunc) {
		assert.True(t, c.AllowOriginFunc("https://anywhere.test"))
	}
	assert.NoError(t, c.Validate())
}
