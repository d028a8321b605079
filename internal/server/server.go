package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"telemed/internal/auth"
	"telemed/internal/config"
	"telemed/internal/docstore"
	"telemed/internal/handler"
	"telemed/internal/middleware"
	"telemed/internal/model"
	"telemed/internal/service"
	"telemed/internal/version"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	mongo  *mongo.Client
	logger *zap.Logger
}

// Handlers groups the API handlers.
type Handlers struct {
	Auth  *handler.AuthHandler
	Visit *handler.VisitHandler
	User  *handler.UserHandler
}

// New creates a new server instance wired against MongoDB.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	mongoClient, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)
	store := docstore.NewMongo(mongoClient, db)

	provider := auth.NewStoreProvider(store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), logger)
	handlers := InitHandlers(cfg, store, provider, logger)
	router := NewRouter(cfg, handlers, provider)

	return &Server{
		cfg:    cfg,
		router: router,
		mongo:  mongoClient,
		logger: logger,
	}, nil
}

// InitHandlers builds services and handlers on top of any Store and
// Provider implementation.
func InitHandlers(cfg *config.Config, store docstore.Store, provider auth.Provider, logger *zap.Logger) *Handlers {
	visits := service.NewVisitService(store, cfg, logger)
	users := service.NewUserService(store, provider, cfg, logger)
	return &Handlers{
		Auth:  handler.NewAuthHandler(provider),
		Visit: handler.NewVisitHandler(visits, store),
		User:  handler.NewUserHandler(users),
	}
}

// Connect opens and pings the MongoDB client.
func Connect(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// Close disconnects MongoDB client
func (s *Server) Close() error {
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.mongo.Disconnect(ctx)
	}
	return nil
}

// Run starts the server
func (s *Server) Run() error {
	s.logger.Info("server listening", zap.String("address", s.cfg.Server.Address()))
	return s.router.Run(s.cfg.Server.Address())
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(cfg *config.Config, h *Handlers, provider auth.Provider) *gin.Engine {
	r := gin.Default()
	r.SetTrustedProxies(nil)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Force-Refresh-Token"},
		AllowCredentials: true,
	}))

	patient, _ := model.UserRoles.Encode(model.RolePatient)
	doctor, _ := model.UserRoles.Encode(model.RoleDoctor)
	nurse, _ := model.UserRoles.Encode(model.RoleNurse)
	admin, _ := model.UserRoles.Encode(model.RoleAdmin)

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.NewSuccessResponse("Version", version.Get()))
	})

	r.POST("/auth/login", h.Auth.Login)

	authed := r.Group("")
	authed.Use(middleware.Authentication(provider))

	verified := authed.Group("")
	verified.Use(middleware.RequireEmailVerified())

	visits := verified.Group("/visits")
	{
		visits.POST("", middleware.RequireRoles(patient, admin), h.Visit.Create)
		visits.POST("/finish", middleware.RequireRoles(doctor, nurse, admin), h.Visit.Finish)
	}

	users := authed.Group("/users")
	{
		// Self-registration runs before the email is necessarily verified.
		users.POST("/register/me", h.User.RegisterMe)
		users.PATCH("/me", middleware.RequireRoles(patient), h.User.UpdateMe)

		adminOnly := users.Group("")
		adminOnly.Use(middleware.RequireEmailVerified(), middleware.RequireRoles(admin))
		adminOnly.POST("/register/userid", h.User.RegisterByUserID)
		adminOnly.POST("/register/email", h.User.RegisterByEmail)
		adminOnly.POST("", h.User.Create)
		adminOnly.PATCH("/:userid/role", h.User.SetRole)
		adminOnly.DELETE("/:userid", h.User.Deactivate)

		users.GET("/:userid/role", middleware.RequireEmailVerified(), h.User.GetRole)
	}

	return r
}
