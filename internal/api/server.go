package api

import (
	"context"
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/darkorder/ticketing-api/docs"
	v1 "github.com/darkorder/ticketing-api/internal/api/handler/v1"
	"github.com/darkorder/ticketing-api/internal/api/middleware"
	"github.com/darkorder/ticketing-api/internal/config"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/notify"
	"github.com/darkorder/ticketing-api/internal/pkg/mailer"
	"github.com/darkorder/ticketing-api/internal/pkg/payhero"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketpdf"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketqr"
	"github.com/darkorder/ticketing-api/internal/repository"
	"github.com/darkorder/ticketing-api/internal/repository/dao"
	"github.com/darkorder/ticketing-api/internal/service"
)

type Server struct {
	Config   *config.AppConfig
	Router   *gin.Engine
	ScanFeed *v1.ScanFeed
	Mailer   mailer.Sender

	cache       redis.Cmdable
	authService *service.AuthService
}

// NewServer wires every layer. rdb may be nil, which turns off rate limiting
// and token revocation.
func NewServer(conf *config.AppConfig, db *gorm.DB, rdb *redis.Client) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:   conf,
		Router:   engine,
		ScanFeed: v1.NewScanFeed(conf.API.AllowedCORSDomains),
		Mailer:   mailer.New(conf.SendGrid),
	}
	if rdb != nil {
		s.cache = rdb
	}

	s.MountMiddlewares()

	renderer := ticketpdf.NewRenderer(conf.Tickets.Branding)
	notifier := s.initNotifier(renderer)

	authHandler := s.initAuthHandler(db, notifier)
	userHandler := s.initUserHandler(db)
	catalogHandler := s.initCatalogHandler(db)
	ticketHandler := s.initTicketHandler(db, renderer)
	paymentHandler := s.initPaymentHandler(db, notifier)
	scanHandler := s.initScanHandler(db)
	s.MountHandlers(authHandler, userHandler, catalogHandler, ticketHandler, paymentHandler, scanHandler)

	return s
}

// EnsureAdmin creates or refreshes the configured staff account.
func (s *Server) EnsureAdmin(ctx context.Context) error {
	if s.Config.Admin.Email == "" {
		zap.L().Warn("no admin account configured")
		return nil
	}

	admin, err := s.authService.EnsureAdmin(ctx, s.Config.Admin.Email, s.Config.Admin.PIN)
	if err != nil {
		return fmt.Errorf("s.authService.EnsureAdmin -> %w", err)
	}

	zap.L().Info("admin account ready", zap.String("email", admin.Email))

	return nil
}

type ticketNotifier interface {
	service.TicketNotifier
	service.PINNotifier
}

func (s *Server) initNotifier(renderer *ticketpdf.Renderer) ticketNotifier {
	direct := notify.NewDispatcher(notify.NewComposer(renderer, s.Config.Tickets.Branding), s.Mailer)
	if s.Config.AMQP.URL == "" {
		return direct
	}

	return notify.NewQueueDispatcher(direct, notify.NewAMQPPublisher(s.Config.AMQP.URL, s.Config.AMQP.Queue))
}

func (s *Server) initAuthHandler(db *gorm.DB, notifier ticketNotifier) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	sessions := repository.NewSessionRepository(s.cache)
	s.authService = service.NewAuthService(repo, sessions, notifier)
	handler := v1.NewAuthHandler(s.Config.API, s.authService)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initCatalogHandler(db *gorm.DB) *v1.CatalogHandler {
	repo := repository.NewCatalogRepository(dao.NewTicketInstanceDAO(db))
	tickets := repository.NewTicketRepository(dao.NewTicketDAO(db))
	payments := repository.NewPaymentRepository(dao.NewPaymentDAO(db))
	svc := service.NewCatalogService(repo, tickets, payments)
	handler := v1.NewCatalogHandler(svc)

	return handler
}

func (s *Server) initTicketHandler(db *gorm.DB, renderer *ticketpdf.Renderer) *v1.TicketHandler {
	repo := repository.NewTicketRepository(dao.NewTicketDAO(db))
	svc := service.NewTicketService(repo, renderer, s.Config.Tickets.PDFDir)
	handler := v1.NewTicketHandler(svc)

	return handler
}

func (s *Server) initPaymentHandler(db *gorm.DB, notifier ticketNotifier) *v1.PaymentHandler {
	repo := repository.NewPaymentRepository(dao.NewPaymentDAO(db))
	instances := repository.NewCatalogRepository(dao.NewTicketInstanceDAO(db))
	users := repository.NewUserRepository(dao.NewUserDAO(db))
	gateway := payhero.NewClient(s.Config.PayHero)
	qr := ticketqr.NewGenerator(s.Config.API.PublicURL)
	svc := service.NewPaymentService(repo, instances, users, gateway, qr, notifier)
	handler := v1.NewPaymentHandler(svc)

	return handler
}

func (s *Server) initScanHandler(db *gorm.DB) *v1.ScanHandler {
	tickets := repository.NewTicketRepository(dao.NewTicketDAO(db))
	logs := repository.NewScanLogRepository(dao.NewScanLogDAO(db))
	svc := service.NewScanService(tickets, logs, s.ScanFeed)
	handler := v1.NewScanHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.Metrics())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	catalogHandler *v1.CatalogHandler,
	ticketHandler *v1.TicketHandler,
	paymentHandler *v1.PaymentHandler,
	scanHandler *v1.ScanHandler,
) {
	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey, s.authService)
	limited := middleware.RateLimit(s.cache, s.Config.RateLimit.Requests, s.Config.RateLimit.Window)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	public := s.Router.Group("")
	{
		public.POST("/signup", limited, authHandler.HandleSignup)
		public.POST("/signin", limited, authHandler.HandleSignin)
		public.POST("/forgot-pin", limited, authHandler.HandleForgotPIN)
		public.POST("/admin/login", limited, authHandler.HandleAdminLogin)
		public.GET("/ticket/verify/:id", ticketHandler.HandleVerifyTicket)
		public.POST("/api/payhero/callback", paymentHandler.HandlePayHeroCallback)
	}

	buyers := s.Router.Group("", authenticator.VerifyJWT())
	{
		buyers.POST("/logout", authHandler.HandleLogout)
		buyers.GET("/me", userHandler.HandleGetMe)
		buyers.GET("/tickets", catalogHandler.HandleListInstances)
		buyers.GET("/my-tickets", ticketHandler.HandleMyTickets)
		buyers.GET("/download-ticket/:id", ticketHandler.HandleDownloadTicket)
		buyers.POST("/purchase", limited, paymentHandler.HandlePurchase)
		buyers.GET("/payments/:reference", paymentHandler.HandleGetPayment)
	}

	admin := s.Router.Group("/admin", authenticator.VerifyJWT(), adminOnly)
	{
		admin.POST("/logout", authHandler.HandleLogout)
		admin.GET("/dashboard", catalogHandler.HandleDashboard)
		admin.POST("/create-ticket-instance", catalogHandler.HandleCreateInstance)
		admin.GET("/manage-instances", catalogHandler.HandleListInstances)
		admin.POST("/delete-instance/:id", catalogHandler.HandleDeleteInstance)
		admin.POST("/verify-ticket", scanHandler.HandleScanTicket)
		admin.GET("/scan", s.ScanFeed.HandleScanFeed)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Title = "Ticketing API"
	docs.SwaggerInfo.Description = "Ticket sales over M-Pesa, QR tickets and door scanning."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
