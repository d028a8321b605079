package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Address())
	assert.Equal(t, DefaultMongoURI, cfg.Mongo.URI)
	assert.Equal(t, DefaultMongoDB, cfg.Mongo.Database)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, DefaultWaitingRoomID, cfg.Visit.DefaultWaitingRoomID)
	assert.Equal(t, DefaultVisitIDTimeLayout, cfg.Visit.IDTimeLayout)
	assert.Equal(t, DefaultUserNameMaxLen, cfg.Users.NameMaxLength)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("JWT_SECRET", "hush")
	t.Setenv("TOKEN_TTL_MINUTES", "15")
	t.Setenv("DEFAULT_WAITING_ROOM_ID", "triage")
	t.Setenv("USER_NAME_MAX_LENGTH", "50")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")

	cfg := New()

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address())
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "hush", cfg.Auth.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL())
	assert.Equal(t, "triage", cfg.Visit.DefaultWaitingRoomID)
	assert.Equal(t, 50, cfg.Users.NameMaxLength)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
}

func TestEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("TOKEN_TTL_MINUTES", "soon")
	cfg := New()
	assert.Equal(t, DefaultTokenTTLMinutes, cfg.Auth.TokenTTLMinutes)
}
