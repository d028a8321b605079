package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server configuration
type ServerConfig struct {
	Port string
	Host string
}

// MongoDB configuration
type MongoConfig struct {
	URI      string
	Database string
}

// Auth configuration
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
}

// Visit lifecycle configuration
type VisitConfig struct {
	// DefaultWaitingRoomID is the waiting room new queue entries join.
	DefaultWaitingRoomID string
	// IDTimeLayout formats the creation time into the visit document id.
	// Two creates for one user within the same formatted tick collide.
	IDTimeLayout string
}

// User profile configuration
type UserConfig struct {
	NameMaxLength int
}

// CORS configuration
type CORSConfig struct {
	AllowOrigins []string
}

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Auth   AuthConfig
	Visit  VisitConfig
	Users  UserConfig
	CORS   CORSConfig
}

// Default configuration values
const (
	DefaultServerPort        = "8080"
	DefaultServerHost        = ""
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDB           = "telemed"
	DefaultTokenTTLMinutes   = 1440 // 24 hours
	DefaultWaitingRoomID     = "default"
	DefaultVisitIDTimeLayout = "20060102-150405.000"
	DefaultUserNameMaxLen    = 100
	DefaultCORSOrigins       = "*"
)

// New returns a new Config with values from the environment, falling back
// to defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", DefaultServerPort),
			Host: getEnv("SERVER_HOST", DefaultServerHost),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", DefaultMongoURI),
			Database: getEnv("MONGO_DB", DefaultMongoDB),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", DefaultTokenTTLMinutes),
		},
		Visit: VisitConfig{
			DefaultWaitingRoomID: getEnv("DEFAULT_WAITING_ROOM_ID", DefaultWaitingRoomID),
			IDTimeLayout:         getEnv("VISIT_ID_TIME_LAYOUT", DefaultVisitIDTimeLayout),
		},
		Users: UserConfig{
			NameMaxLength: getEnvInt("USER_NAME_MAX_LENGTH", DefaultUserNameMaxLen),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", DefaultCORSOrigins),
		},
	}
}

// Address returns the server address string
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// TokenTTL returns the token lifetime as a duration.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
