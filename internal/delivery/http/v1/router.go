package v1

import (
	"net/http"

	"contact-relay/config"
	"contact-relay/internal/delivery/http/middleware"
	"contact-relay/internal/delivery/http/response"
	"contact-relay/internal/domain"
	"contact-relay/internal/usecase"
	"contact-relay/pkg/apperror"
	"contact-relay/pkg/ratelimit"
	"contact-relay/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// MsgMethodNotAllowed is returned for any method other than the route's own
const MsgMethodNotAllowed = "Method Not Allowed"

type RouterDeps struct {
	ContactUC   domain.ContactUsecase
	HealthUC    usecase.HealthUsecase
	Limiter     *ratelimit.Limiter
	SecLog      *security.SecurityLogger
	FormOptions FormOptions
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	production := deps.Config != nil && deps.Config.IsProduction()
	var origins []string
	if deps.Config != nil {
		origins = deps.Config.AllowedOrigins
	}

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(origins, !production)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(production))
	r.Use(middleware.ErrorHandler())

	r.NoMethod(func(c *gin.Context) {
		c.Error(apperror.MethodNotAllowed(MsgMethodNotAllowed))
	})

	contact := NewContactHandler(deps.ContactUC, deps.FormOptions, deps.SecLog)
	limit := middleware.ContactRateLimit(deps.Limiter, deps.SecLog)

	// Path used by the static site
	r.POST("/api/send-email", limit, contact.SubmitContact)

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		if deps.HealthUC == nil {
			response.Success(c, http.StatusOK, "System operational", nil)
			return
		}
		status, healthy := deps.HealthUC.Check(c.Request.Context())
		if !healthy {
			response.Success(c, http.StatusServiceUnavailable, "System degraded", status)
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	// Public routes
	v1.POST("/contact", limit, contact.SubmitContact)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
