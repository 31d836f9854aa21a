package services

import (
	"github.com/sirupsen/logrus"

	"github.com/trekmandu/trekrec/internal/config"
	"github.com/trekmandu/trekrec/internal/database"
)

type Services struct {
	Health    *HealthService
	TrekStore TrekStore
	Engine    *RecommendationEngine
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	healthService := NewHealthService(cfg, logger, db)
	trekStore := NewPostgresTrekStore(db.PG, logger)
	engine := NewRecommendationEngine(trekStore, db.Redis, &cfg.Engine, logger)

	return &Services{
		Health:    healthService,
		TrekStore: trekStore,
		Engine:    engine,
	}, nil
}
