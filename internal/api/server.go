package api

import (
	"log/slog"
	"reflect"
	"strings"

	"imagestore/internal/auth"
	"imagestore/internal/config"
	"imagestore/internal/database"
	"imagestore/internal/ingest"
	"imagestore/internal/storage"
	"imagestore/internal/websocket"

	"github.com/go-playground/validator/v10"
)

type Server struct {
	config   *config.Config
	store    *database.Store
	service  *ingest.Service
	tokens   *auth.TokenIssuer
	wsHub    *websocket.Hub
	validate *validator.Validate
	logger   *slog.Logger
}

func NewServer(cfg *config.Config, store *database.Store, blobs storage.BlobStore, wsHub *websocket.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)

	var events ingest.Publisher
	if wsHub != nil {
		events = wsHub
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		config:   cfg,
		store:    store,
		service:  ingest.NewService(store, store, blobs, tokens, events, logger),
		tokens:   tokens,
		wsHub:    wsHub,
		validate: validate,
		logger:   logger,
	}
}
