package routes

import (
	"equipment-qms/internal/controllers"
	"equipment-qms/internal/listeners"
	"equipment-qms/internal/monitor"
	"equipment-qms/internal/repositories"
	"equipment-qms/internal/services"
	"equipment-qms/pkg/config"
	"equipment-qms/pkg/database"
	"equipment-qms/pkg/eventbus"
	"equipment-qms/pkg/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Deps - все, что роутеру нужно снаружи. Clock пустой в проде, в тестах фиксируется.
type Deps struct {
	DB      *database.DB
	Cache   repositories.CacheRepositoryInterface
	Bus     *eventbus.Bus
	Metrics *metrics.Metrics
	Config  *config.Config
	Clock   services.Clock
	Logger  *zap.Logger
}

// InitRouter собирает репозитории, сервисы и контроллеры и вешает маршруты.
// Возвращает монитор проверок: запускает и останавливает его вызывающая сторона.
func InitRouter(e *echo.Echo, deps Deps) *monitor.InspectionMonitor {
	logger := deps.Logger
	logger.Info("InitRouter: Начало создания маршрутов")

	cfg := deps.Config
	loc := cfg.Schedule.Location()
	cache := deps.Cache
	if cache == nil {
		cache = repositories.NewNoopCacheRepository()
	}

	// --- 1. РЕПОЗИТОРИИ ---
	equipmentRepo := repositories.NewEquipmentRepository(deps.DB, logger)

	// --- 2. СЕРВИСЫ ---
	policy := services.NewLifecyclePolicy(loc, cfg.Schedule.NextInspectionIn)
	equipmentService := services.NewEquipmentService(equipmentRepo, cache, deps.Bus, policy, deps.Clock, logger)
	dashboardService := services.NewDashboardService(equipmentRepo, cache, cfg.Dashboard.CacheTTL, logger)
	analyticsService := services.NewAnalyticsService(equipmentRepo, cfg.Schedule, loc, deps.Clock, logger)
	reportService := services.NewReportService(equipmentRepo, loc, cfg.Schedule.UpcomingWindow, deps.Clock, logger)

	inspectionMonitor := monitor.New(equipmentRepo, monitor.Options{
		Schedule:       cfg.Schedule.MonitorSchedule,
		Location:       loc,
		UpcomingWindow: cfg.Schedule.UpcomingWindow,
		Clock:          deps.Clock,
	}, deps.Metrics, logger)

	if deps.Bus != nil {
		listeners.NewAuditListener(deps.Metrics, logger).Register(deps.Bus)
	}

	// --- 3. РОУТЕРЫ ---
	api := e.Group("/api")

	runEquipmentRouter(api, controllers.NewEquipmentController(equipmentService, logger))
	runDashboardRouter(api, controllers.NewDashboardController(dashboardService, logger))
	runAnalyticsRouter(api, controllers.NewAnalyticsController(analyticsService, deps.Clock, logger))
	runMonitoringRouter(api, controllers.NewMonitoringController(inspectionMonitor, logger))
	runReportRouter(api, controllers.NewReportController(reportService, loc, logger))
	runSystemRouter(e, deps.DB, deps.Metrics)

	logger.Info("InitRouter: Создание маршрутов завершено")
	return inspectionMonitor
}
