package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/dukerupert/recipebook/internal/asset"
	"github.com/dukerupert/recipebook/internal/config"
	"github.com/dukerupert/recipebook/internal/handler"
	"github.com/dukerupert/recipebook/internal/middleware"
	"github.com/dukerupert/recipebook/internal/service"
	"github.com/dukerupert/recipebook/internal/store"
	ws "github.com/dukerupert/recipebook/internal/websocket"
)

// uploadsPrefix is the public path the upload directory is served under.
const uploadsPrefix = "/uploads/"

type Server struct {
	db        *sql.DB
	hub       *ws.Hub
	recipeH   *handler.RecipeHandler
	planH     *handler.PlanHandler
	frontend  *handler.Frontend
	uploadDir string
	origins   []string
	logger    *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	images, err := asset.NewManager(asset.Config{
		Dir:       filepath.Join(cfg.UploadDir, "recipes"),
		URLPrefix: uploadsPrefix + "recipes",
		MaxDim:    cfg.MaxImageDim,
		Quality:   cfg.ImageQuality,
	}, logger.With("component", "asset"))
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	recipeStore := store.NewRecipeStore(db)
	planStore := store.NewPlanStore(db)

	recipeSvc := service.NewRecipeService(recipeStore, images, logger.With("component", "recipe_service"))
	planSvc := service.NewPlanService(planStore, recipeStore, logger.With("component", "plan_service"))

	return &Server{
		db:        db,
		hub:       hub,
		recipeH:   handler.NewRecipeHandler(recipeSvc, hub, logger.With("component", "recipe")),
		planH:     handler.NewPlanHandler(planSvc, hub, logger.With("component", "plan")),
		frontend:  handler.NewFrontend(cfg.FrontendDir),
		uploadDir: cfg.UploadDir,
		origins:   cfg.CORSOrigins,
		logger:    logger,
	}, nil
}

// Hub returns the change feed so callers can shut it down.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/recipes", s.recipeH.List)
	mux.HandleFunc("POST /api/recipes", s.recipeH.Create)
	mux.HandleFunc("GET /api/recipes/{id}", s.recipeH.Get)
	mux.HandleFunc("PUT /api/recipes/{id}", s.recipeH.Update)
	mux.HandleFunc("DELETE /api/recipes/{id}", s.recipeH.Delete)

	mux.HandleFunc("GET /api/plans", s.planH.List)
	mux.HandleFunc("POST /api/plans", s.planH.Create)
	mux.HandleFunc("POST /api/plans/generate", s.planH.Generate)
	mux.HandleFunc("GET /api/plans/shopping-list", s.planH.ShoppingList)
	mux.HandleFunc("GET /api/plans/{id}", s.planH.Get)
	mux.HandleFunc("DELETE /api/plans/{id}", s.planH.Delete)

	mux.HandleFunc("GET /health", handler.Health(s.db, s.logger.With("component", "health")))
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.origins, s.logger.With("component", "websocket")))

	mux.Handle("GET "+uploadsPrefix, handler.StaticFiles(uploadsPrefix, s.uploadDir))
	mux.Handle("GET /assets/", s.frontend.Assets())
	mux.Handle("GET /", s.frontend)

	h := middleware.CORS(s.origins)(mux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}
