package bootstrap

import (
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountshttp "github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/http"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/service"
	httpapi "github.com/GoSim-25-26J-441/go-accounts-backend/internal/api/http"
	apimw "github.com/GoSim-25-26J-441/go-accounts-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/auth"
	authmw "github.com/GoSim-25-26J-441/go-accounts-backend/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/directory"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	Directory      directory.Directory
	Guard          auth.Guard
	// Firebase switches caller identity to verified ID tokens; nil means the
	// X-Auth-User header is trusted.
	Firebase *firebaseauth.Client
	Logger   *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	if dep.Logger == nil {
		dep.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimw.RequestIDMiddleware(dep.Logger))
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Directory)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/v1.0")
	if dep.RateLimitRPS > 0 {
		api.Use(apimw.RateLimit(dep.RateLimitRPS, dep.RateLimitBurst))
	}
	if dep.Firebase != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.Firebase))
	} else {
		api.Use(auth.HeaderIdentity())
	}

	accounts := service.NewAccountService(dep.Directory, dep.Guard, dep.Logger)
	accountshttp.New(accounts, dep.Logger).Register(api.Group("/accounts"))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", auth.HeaderAuthUser, apimw.HeaderRequestID},
		ExposeHeaders: []string{apimw.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
