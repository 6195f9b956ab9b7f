package router

import (
	"github.com/gin-gonic/gin"

	"github.com/fanguan/pos-app/controllers"
	"github.com/fanguan/pos-app/middlewares"
	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/store"
)

// SetupRouter wires the display-facing API. The store and catalog are
// injected; controllers never reach for ambient state.
func SetupRouter(st *store.Store, cat *models.Catalog, operatorPassword string) (*gin.Engine, error) {
	r := gin.New()

	r.Use(middlewares.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())

	authCtrl, err := controllers.NewAuthController(operatorPassword)
	if err != nil {
		return nil, err
	}
	catalogCtrl := controllers.NewCatalogController(cat)
	counterCtrl := controllers.NewCounterController(st, cat)
	kitchenCtrl := controllers.NewKitchenController(st)

	r.POST("/auth/login", middlewares.NewLoginRateLimiter(), authCtrl.Login)

	r.GET("/catalog", catalogCtrl.GetCatalog)
	r.GET("/catalog/categories/:category_id/items", catalogCtrl.GetCategoryItems)

	counter := r.Group("/counter")
	{
		counter.GET("/session", counterCtrl.GetSession)
		counter.POST("/category", counterCtrl.SelectCategory)
		counter.POST("/cart/items", counterCtrl.AddItem)
		counter.POST("/cart/combo", counterCtrl.AddCombo)
		counter.POST("/cart/weight", counterCtrl.AddWeight)
		counter.PATCH("/cart/lines", counterCtrl.ChangeQuantity)
		counter.DELETE("/cart/lines/:section/:line_id", counterCtrl.RemoveLine)
		counter.DELETE("/cart", counterCtrl.ClearCart)
		counter.POST("/submit", counterCtrl.Submit)
		counter.GET("/orders", counterCtrl.History)
		counter.POST("/orders/:order_id/append", counterCtrl.EnterAppend)
		counter.POST("/append/cancel", counterCtrl.CancelAppend)
		counter.POST("/orders/:order_id/payment/:section", counterCtrl.TogglePayment)
	}

	kitchen := r.Group("/kitchen")
	{
		kitchen.GET("/orders", kitchenCtrl.GetOrders)
		kitchen.POST("/orders/:order_id/lines/:section/:index/toggle", kitchenCtrl.ToggleLineCompletion)
		kitchen.POST("/orders/:order_id/payment/:section", kitchenCtrl.TogglePayment)
		kitchen.POST("/orders/:order_id/complete", kitchenCtrl.Complete)
	}

	admin := r.Group("/admin", middlewares.AuthMiddleware())
	{
		admin.POST("/sequence/reset", counterCtrl.ResetSequence)
		admin.POST("/history/clear", counterCtrl.ClearHistory)
	}

	r.GET("/ws", controllers.KDSHandler(st))

	return r, nil
}
