package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"collocshare/internal/handlers"
	"collocshare/internal/logging"
	"collocshare/internal/middleware"
	"collocshare/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Logger.Info("No .env file found, using system environment")
	}
	logging.Init()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logging.Logger.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		logging.Logger.WithError(err).Fatal("Failed to connect to database")
	}
	if err := services.AutoMigrate(db); err != nil {
		logging.Logger.WithError(err).Fatal("Failed to run database migrations")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	cache, err := services.NewRedisCache(redisURL)
	if err != nil {
		logging.Logger.WithError(err).Fatal("Failed to connect to redis")
	}
	defer cache.Close()

	email := services.NewEmailService()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.JSONErrorHandler
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())

	authHandler := handlers.NewAuthHandler(db, cache, email)
	colocationHandler := handlers.NewColocationHandler(db)
	invitationHandler := handlers.NewInvitationHandler(db, cache, email)
	expenseHandler := handlers.NewExpenseHandler(db, cache)
	settlementHandler := handlers.NewSettlementHandler(db, cache)
	balanceHandler := handlers.NewBalanceHandler(db, cache)
	shoppingHandler := handlers.NewShoppingHandler(db, cache)
	recurringHandler := handlers.NewRecurringExpenseHandler(db)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/request-otp", authHandler.RequestOTP)
	api.POST("/auth/verify-otp", authHandler.VerifyOTP)
	api.GET("/invitations/:token", invitationHandler.CheckInvitation)

	// Authenticated routes
	protected := api.Group("", middleware.RequireAuth())

	protected.GET("/colocations", colocationHandler.ListColocations)
	protected.POST("/colocations", colocationHandler.CreateColocation)
	protected.GET("/colocations/:id", colocationHandler.GetColocation)
	protected.DELETE("/colocations/:id", colocationHandler.DeleteColocation)
	protected.DELETE("/colocations/:id/members/:userId", colocationHandler.RemoveMember)

	protected.POST("/colocations/:id/invite", invitationHandler.Invite)
	protected.POST("/invitations/:token/accept", invitationHandler.AcceptInvitation)

	protected.GET("/colocations/:id/expenses", expenseHandler.ListExpenses)
	protected.POST("/colocations/:id/expenses", expenseHandler.CreateExpense)
	protected.GET("/expenses/:expenseId", expenseHandler.GetExpense)
	protected.PUT("/expenses/:expenseId", expenseHandler.UpdateExpense)
	protected.DELETE("/expenses/:expenseId", expenseHandler.DeleteExpense)

	protected.GET("/colocations/:id/settlements", settlementHandler.ListSettlements)
	protected.POST("/colocations/:id/settlements", settlementHandler.CreateSettlement)

	protected.GET("/colocations/:id/balance", balanceHandler.GetBalance)
	protected.GET("/colocations/:id/balance/legacy", balanceHandler.GetLegacyBalance)

	protected.GET("/colocations/:id/shopping", shoppingHandler.ListItems)
	protected.POST("/colocations/:id/shopping", shoppingHandler.CreateItem)
	protected.GET("/shopping/:itemId", shoppingHandler.GetItem)
	protected.PUT("/shopping/:itemId", shoppingHandler.UpdateItem)
	protected.DELETE("/shopping/:itemId", shoppingHandler.DeleteItem)
	protected.POST("/shopping/:itemId/purchase", shoppingHandler.PurchaseItem)
	protected.POST("/shopping/:itemId/to-expense", shoppingHandler.ToExpense)

	protected.GET("/colocations/:id/recurring", recurringHandler.ListRecurring)
	protected.POST("/colocations/:id/recurring", recurringHandler.CreateRecurring)
	protected.DELETE("/recurring/:recurringId", recurringHandler.DeleteRecurring)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logging.Logger.Infof("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
