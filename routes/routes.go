package routes

import (
	"nutrilens/controllers"
	"nutrilens/middlewares"
	"nutrilens/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the wired services the router exposes.
type Deps struct {
	DB          *gorm.DB
	Auth        *services.AuthService
	Users       *services.UserService
	Food        *services.FoodService
	Medicine    *services.MedicineService
	Symptoms    *services.SymptomService
	History     *services.HistoryService
	Contacts    *services.ContactService
	Alerts      *services.AlertService
	Push        *services.PushService // optional
	Realtime    *services.RealtimeHub
	CORSOrigins []string
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.Recovery(), middlewares.RequestLogger(), middlewares.CORS(d.CORSOrigins))
	r.MaxMultipartMemory = 12 << 20

	authCtl := controllers.NewAuthController(d.Auth)
	userCtl := controllers.NewUserController(d.Users)
	scanCtl := controllers.NewScanController(d.Food, d.Medicine)
	symptomCtl := controllers.NewSymptomController(d.Symptoms)
	historyCtl := controllers.NewHistoryController(d.History)
	contactCtl := controllers.NewContactController(d.Contacts)
	notifyCtl := controllers.NewNotificationController(d.Alerts)
	deviceCtl := controllers.NewDeviceController(d.Push)
	rtCtl := controllers.NewRealtimeController(d.Realtime, d.CORSOrigins)

	r.GET("/healthz", controllers.Healthz(d.DB))
	r.POST("/contact", contactCtl.Submit)

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.POST("/verify-mfa", authCtl.VerifyMFA)
		auth.POST("/forgot-password", authCtl.ForgotPassword)
		auth.POST("/reset-password", authCtl.ResetPassword)
	}

	protected := r.Group("/")
	protected.Use(middlewares.AuthMiddleware())

	user := protected.Group("/user")
	{
		user.GET("/profile", userCtl.GetProfile)
		user.PUT("/profile", userCtl.UpdateProfile)
		user.POST("/onboarding", userCtl.CompleteOnboarding)
		user.DELETE("", userCtl.DeleteAccount)
		user.GET("/alerts", notifyCtl.ListAlerts)
		user.POST("/devices", deviceCtl.Register)
		user.POST("/notifications/toggle", notifyCtl.Toggle)
	}

	scan := protected.Group("/scan")
	{
		scan.POST("/food", scanCtl.ScanFood)
		scan.GET("/food/:id", scanCtl.GetFoodScan)
		scan.POST("/medicine", scanCtl.ScanMedicine)
		scan.GET("/medicine/:id", scanCtl.GetMedicineScan)
	}

	protected.POST("/symptoms", symptomCtl.Check)

	history := protected.Group("/history")
	{
		history.GET("", historyCtl.List)
		history.GET("/stats", historyCtl.Stats)
		history.GET("/:id", historyCtl.Get)
		history.DELETE("/:id", historyCtl.Delete)
		history.DELETE("", historyCtl.Clear)
	}

	protected.GET("/ws/alerts", rtCtl.AlertsWS)

	return r
}
