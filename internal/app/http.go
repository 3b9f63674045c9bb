package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/studyladder/internal/http"
	httpH "github.com/yungbote/studyladder/internal/http/handlers"
	"github.com/yungbote/studyladder/internal/observability"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Progression *httpH.ProgressionHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}
	}
	return Handlers{
		Health:      httpH.NewHealthHandler(checks),
		Progression: httpH.NewProgressionHandler(log, services.Progression),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		ServiceName:        cfg.ServiceName,
		CORSOrigins:        cfg.CORSOrigins,
		Metrics:            metrics,
		HealthHandler:      handlers.Health,
		ProgressionHandler: handlers.Progression,
	})
}
