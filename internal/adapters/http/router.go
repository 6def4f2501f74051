package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the three form routes plus health and metrics.
func SetupRouter(handler *FormHandler, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "form-allocation",
		})
	})
	router.GET("/metrics", gin.WrapH(metricsHandler))

	api := router.Group("/api")
	{
		api.POST("/forms", handler.CreateForm)
		api.POST("/submit/:ref", handler.SubmitForm)
	}

	router.GET("/form/:ref", handler.RenderForm)

	return router
}
