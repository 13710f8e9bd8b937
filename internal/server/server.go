package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/iosworks/claimdesk/internal/attachment"
	attservice "github.com/iosworks/claimdesk/internal/attendance/service"
	auditservice "github.com/iosworks/claimdesk/internal/audit/service"
	authdomain "github.com/iosworks/claimdesk/internal/auth/domain"
	"github.com/iosworks/claimdesk/internal/authorization"
	"github.com/iosworks/claimdesk/internal/config"
	"github.com/iosworks/claimdesk/internal/events"
	recdomain "github.com/iosworks/claimdesk/internal/records/domain"
	recservice "github.com/iosworks/claimdesk/internal/records/service"
)

var Module = fx.Module("http.server",
	fx.Provide(
		NewHTTPMetrics,
		registerGin,
	),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(log))
	r.Use(MetricsMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

func registerGin(log *zap.Logger, metrics *HTTPMetrics) *gin.Engine {
	return NewEngine(log, metrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	authsvc  authdomain.Service
	authzSvc authorization.Service
	auditRec *auditservice.Recorder
	hub      *events.Hub

	brokers            *recservice.Service[recdomain.Broker]
	insuranceCompanies *recservice.Service[recdomain.InsuranceCompany]
	insureds           *recservice.Service[recdomain.Insured]
	regulators         *recservice.Service[recdomain.Regulator]
	riskManagers       *recservice.Service[recdomain.RiskManager]
	shippingCompanies  *recservice.Service[recdomain.ShippingCompany]

	attendances *attservice.Service
	attachments *attachment.Manager
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	Authsvc  authdomain.Service
	AuthzSvc authorization.Service
	AuditRec *auditservice.Recorder
	Hub      *events.Hub

	Brokers            *recservice.Service[recdomain.Broker]
	InsuranceCompanies *recservice.Service[recdomain.InsuranceCompany]
	Insureds           *recservice.Service[recdomain.Insured]
	Regulators         *recservice.Service[recdomain.Regulator]
	RiskManagers       *recservice.Service[recdomain.RiskManager]
	ShippingCompanies  *recservice.Service[recdomain.ShippingCompany]

	Attendances *attservice.Service
	Attachments *attachment.Manager
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:             p.Gin,
		cfg:                p.Cfg,
		log:                p.Log.Named("server"),
		authsvc:            p.Authsvc,
		authzSvc:           p.AuthzSvc,
		auditRec:           p.AuditRec,
		hub:                p.Hub,
		brokers:            p.Brokers,
		insuranceCompanies: p.InsuranceCompanies,
		insureds:           p.Insureds,
		regulators:         p.Regulators,
		riskManagers:       p.RiskManagers,
		shippingCompanies:  p.ShippingCompanies,
		attendances:        p.Attendances,
		attachments:        p.Attachments,
	}

	s.registerAuthRoutes()
	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	users := s.engine.Group("/api/users")
	users.Use(s.AuditTrail())

	users.POST("/signup", s.SignUp)
	users.POST("/signin", s.SignIn)
	users.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())
	api.Use(s.AuditTrail())
	api.Use(s.TenantGuard())

	registerRecordRoutes(s, api, "brokers", s.brokers)
	registerRecordRoutes(s, api, "insurance-companies", s.insuranceCompanies)
	registerRecordRoutes(s, api, "insureds", s.insureds)
	registerRecordRoutes(s, api, "regulators", s.regulators)
	registerRecordRoutes(s, api, "risk-managers", s.riskManagers)
	registerRecordRoutes(s, api, "shipping-companies", s.shippingCompanies)

	att := api.Group("/attendances")
	att.GET("", s.ListAttendances)
	att.POST("", s.RequireRecordWrite(), s.CreateAttendance)
	att.GET("/:id", s.GetAttendanceByID)
	att.PUT("/:id", s.RequireRecordWrite(), s.UpdateAttendance)
	att.DELETE("/:id", s.RequireRecordWrite(), s.DeleteAttendance)

	att.POST("/:id/followups", s.RequireRecordWrite(), s.AddFollowUp)
	att.DELETE("/:id/followups/:index", s.RequireRecordWrite(), s.RemoveFollowUp)

	att.GET("/:id/files", s.ListAttendanceFiles)
	att.GET("/:id/files/:key", s.DownloadAttendanceFile)
	att.POST("/:id/files", s.RequireRecordWrite(), s.UploadAttendanceFile)
	att.PUT("/:id/files/:key", s.RequireRecordWrite(), s.ReplaceAttendanceFile)
	att.DELETE("/:id/files/:key", s.RequireRecordWrite(), s.DeleteAttendanceFile)

	auditRead := s.RequireAction(authorization.ObjectAuditLog, authorization.ActionRead)
	api.GET("/audit-logs", auditRead, s.ListAuditLogs)
	api.GET("/audit-logs/:id", auditRead, s.GetAuditLogByID)

	api.GET("/events", s.StreamEvents)
}
