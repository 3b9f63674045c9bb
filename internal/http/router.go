package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/studyladder/internal/http/handlers"
	httpMW "github.com/yungbote/studyladder/internal/http/middleware"
	"github.com/yungbote/studyladder/internal/observability"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	HealthHandler      *httpH.HealthHandler
	ProgressionHandler *httpH.ProgressionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Progression
		if cfg.ProgressionHandler != nil {
			prog := api.Group("/progression")
			prog.GET("/tiers", cfg.ProgressionHandler.ListTiers)
			prog.GET("/evaluation", cfg.ProgressionHandler.GetEvaluation)
			prog.POST("/reviews", cfg.ProgressionHandler.RecordReview)
			prog.POST("/sessions/complete", cfg.ProgressionHandler.CompleteSession)
			prog.POST("/sessions/struggling", cfg.ProgressionHandler.HandleStruggling)
			prog.POST("/sessions/finish", cfg.ProgressionHandler.FinishSession)
		}
	}

	return r
}
