package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"trade-montecarlo/internal/api/handlers"
	"trade-montecarlo/internal/api/middleware"
	"trade-montecarlo/internal/config"
	"trade-montecarlo/internal/data"
)

// Options wires the router's collaborators.
type Options struct {
	Runner   handlers.Runner
	Cache    *data.ResultCache
	Defaults config.SimulationConfig
	Logger   log.FieldLogger
	Origins  []string
	MaxCells int
}

// NewRouter builds the HTTP API.
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.CORS(opts.Origins...))
	router.Use(middleware.Logger(opts.Logger))
	router.Use(middleware.ErrorHandler(opts.Logger))

	simHandler := handlers.NewSimulationHandler(opts.Runner, opts.Cache, opts.Defaults, opts.Logger)
	if opts.MaxCells != 0 {
		simHandler.SetMaxCells(opts.MaxCells)
	}
	defaultsHandler := handlers.NewDefaultsHandler(opts.Defaults)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/defaults", defaultsHandler.GetDefaults)

		v1.POST("/simulate", simHandler.Simulate)
		v1.POST("/simulate/compare", simHandler.Compare)

		v1.GET("/simulations/:id/terminal", simHandler.GetTerminal)
		v1.GET("/simulations/:id/ensemble", simHandler.GetEnsemble)
		v1.GET("/simulations/:id/histogram.png", simHandler.GetHistogram)
	}

	router.NoRoute(middleware.NotFound)
	return router
}
