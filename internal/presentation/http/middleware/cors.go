package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appconfig "github.com/Jsunwilke/Focal-Point-sub000/pkg/config"
)

// CORSMiddleware provides enhanced CORS configuration
func CORSMiddleware() gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
			"http://[::1]:3000", // IPv6 localhost
			"http://[::1]:5173", // IPv6 localhost
		},
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Tenant-ID", "X-Admin-Token", "X-Requested-With",
			"Cache-Control",
		},
		AllowCredentials: true,
		ExposeHeaders: []string{
			"Content-Type", "Cache-Control", "Connection",
		},
	}
	if len(appconfig.ExtraAllowedOrigins) > 0 {
		config.AllowOrigins = append(config.AllowOrigins, appconfig.ExtraAllowedOrigins...)
	}

	return cors.New(config)
}
