// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/config"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/jwt"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/metrics"
	authHandler "github.com/linxiaoyu2023/property-booking-backend/internal/handler/auth"
	orderHandler "github.com/linxiaoyu2023/property-booking-backend/internal/handler/order"
	propertyHandler "github.com/linxiaoyu2023/property-booking-backend/internal/handler/property"
	reportHandler "github.com/linxiaoyu2023/property-booking-backend/internal/handler/report"
	roomHandler "github.com/linxiaoyu2023/property-booking-backend/internal/handler/room"
	"github.com/linxiaoyu2023/property-booking-backend/internal/middleware"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
	authService "github.com/linxiaoyu2023/property-booking-backend/internal/service/auth"
	inventoryService "github.com/linxiaoyu2023/property-booking-backend/internal/service/inventory"
	orderService "github.com/linxiaoyu2023/property-booking-backend/internal/service/order"
	"github.com/linxiaoyu2023/property-booking-backend/internal/service/pricing"
	propertyService "github.com/linxiaoyu2023/property-booking-backend/internal/service/property"
	reportService "github.com/linxiaoyu2023/property-booking-backend/internal/service/report"
	"github.com/linxiaoyu2023/property-booking-backend/pkg/payment"
)

// appDeps 定时任务等后台组件所需的依赖
type appDeps struct {
	orderService *orderService.OrderService
	propertyRepo *repository.PropertyRepository
}

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *appDeps {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	categoryRepo := repository.NewRoomCategoryRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	operationLogRepo := repository.NewOperationLogRepository(db)

	// 初始化支付客户端
	payClient, err := payment.NewClient(&payment.Config{
		Provider:   cfg.Payment.Provider,
		MerchantID: cfg.Payment.MerchantID,
		APIKey:     cfg.Payment.APIKey,
		NotifyURL:  cfg.Payment.NotifyURL,
		IsSandbox:  cfg.Payment.IsSandbox,
	})
	if err != nil {
		logger.Fatal("Failed to init payment client", zap.Error(err))
	}

	// 初始化服务
	priceSvc := pricing.NewPriceService()
	authSvc := authService.NewAuthService(db, userRepo, jwtManager, redisClient)
	categorySvc := inventoryService.NewCategoryService(db, categoryRepo, roomRepo, orderRepo, propertyRepo, priceSvc)
	inventorySvc := inventoryService.NewInventoryService(db, roomRepo, categoryRepo)
	availabilitySvc := inventoryService.NewAvailabilityService(roomRepo, categoryRepo)
	propertySvc := propertyService.NewPropertyService(db, propertyRepo, categoryRepo, roomRepo, orderRepo,
		availabilitySvc, redisClient, time.Duration(cfg.Business.Search.CityCacheTTL)*time.Second)
	orderSvc := orderService.NewOrderService(db, orderRepo, categoryRepo, propertyRepo, roomRepo,
		priceSvc, payClient, cfg.Business.Order.PaymentWindow(), cfg.Business.Search.MaxStayNights)
	reportSvc := reportService.NewReportService(orderRepo, roomRepo)

	// 初始化处理器
	authH := authHandler.NewHandler(authSvc)
	propertyH := propertyHandler.NewHandler(propertySvc)
	roomH := roomHandler.NewHandler(categorySvc, inventorySvc, availabilitySvc)
	orderH := orderHandler.NewHandler(orderSvc)
	reportH := reportHandler.NewHandler(reportSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.AccessLog(logger))

	// 链路追踪
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(&middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}

	// 监控指标
	if cfg.Metrics.Enabled {
		m := metrics.Init("property_booking")
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			authH.RegisterRoutes(public)
			propertyH.RegisterRoutes(public)
			roomH.RegisterRoutes(public)
		}

		// 用户端接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		{
			authH.RegisterProtectedRoutes(user)

			// 下单接口单独限频
			orderH.RegisterRoutes(user, middleware.OrderRateLimit(redisClient))
		}

		// 房东端接口（需要房东认证）
		tenant := v1.Group("/tenant")
		tenant.Use(middleware.TenantAuth(jwtManager))
		tenant.Use(middleware.NewOperationLogger(operationLogRepo).Log())
		{
			propertyH.RegisterTenantRoutes(tenant)
			roomH.RegisterTenantRoutes(tenant)
			orderH.RegisterTenantRoutes(tenant)
			reportH.RegisterTenantRoutes(tenant)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})

	return &appDeps{
		orderService: orderSvc,
		propertyRepo: propertyRepo,
	}
}
