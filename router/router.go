package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/mf-tracker/controllers"
	"github.com/yeremiapane/mf-tracker/hub"
	"github.com/yeremiapane/mf-tracker/middlewares"
	"github.com/yeremiapane/mf-tracker/notifications"
	"github.com/yeremiapane/mf-tracker/services"
)

// Deps are the collaborators the handlers are built from.
type Deps struct {
	DB            *gorm.DB
	Notifications *notifications.Service
	Hub           *hub.Hub
	Settings      *services.ReminderSettingsService
	Market        *services.MarketService
	RateLimiter   *middlewares.RateLimiter
	CORSOrigin    string
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.RateLimit())
	}

	healthCtrl := controllers.NewHealthController(d.DB)
	userCtrl := controllers.NewUserController(d.DB)
	investmentCtrl := controllers.NewInvestmentController(d.DB, d.Notifications, d.Settings)
	reminderCtrl := controllers.NewReminderController(d.DB)
	notificationCtrl := controllers.NewNotificationController(d.Notifications, d.Hub)
	settingsCtrl := controllers.NewSettingsController(d.Settings)
	marketCtrl := controllers.NewMarketController(d.Market)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/", healthCtrl.Root)
	r.GET("/ping", healthCtrl.Ping)

	api := r.Group("/api")
	api.GET("/debug/db", healthCtrl.DebugDB)

	users := api.Group("/users")
	{
		strict := middlewares.NewStrictRateLimiter()
		users.POST("", strict.RateLimit(), userCtrl.Register)
		users.POST("/login", strict.RateLimit(), userCtrl.Login)
	}

	investments := api.Group("/investments")
	{
		investments.POST("", investmentCtrl.CreateInvestment)
		investments.GET("", investmentCtrl.GetInvestments)
	}

	reminders := api.Group("/reminders")
	{
		reminders.POST("", reminderCtrl.CreateReminder)
		reminders.GET("", reminderCtrl.GetReminders)
		reminders.PUT("/:id", reminderCtrl.UpdateReminder)
		reminders.DELETE("/:id", reminderCtrl.DeleteReminder)
	}

	notifs := api.Group("/notifications")
	{
		notifs.GET("", notificationCtrl.GetNotifications)
		notifs.POST("", notificationCtrl.CreateNotification)
		notifs.DELETE("", notificationCtrl.ClearNotifications)
		notifs.POST("/read-all", notificationCtrl.MarkAllRead)
		notifs.GET("/ws", middlewares.WebSocketAuthMiddleware(), notificationCtrl.Stream)
		notifs.GET("/:id", notificationCtrl.GetNotification)
		notifs.PATCH("/:id/read", notificationCtrl.MarkRead)
		notifs.PUT("/:id", notificationCtrl.UpdateNotification)
		notifs.DELETE("/:id", notificationCtrl.DeleteNotification)
	}

	api.GET("/settings/reminders", settingsCtrl.GetReminderSettings)
	api.PUT("/settings/reminders", settingsCtrl.UpdateReminderSettings)

	api.GET("/market/:scheme", marketCtrl.GetScheme)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := api.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/users/me", userCtrl.GetProfile)
		auth.POST("/users/logout", userCtrl.Logout)
		auth.GET("/users", middlewares.AdminOnly(), userCtrl.GetAllUsers)
	}

	return r
}
