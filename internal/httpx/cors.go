package httpx

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// OriginPolicy reports whether a browser origin may call the API. "*" allows
// any origin. The websocket upgrader shares it with CORS.
func OriginPolicy(origins []string) func(origin string) bool {
	if lo.Contains(origins, "*") {
		return func(string) bool { return true }
	}
	allowed := lo.SliceToMap(origins, func(o string) (string, struct{}) { return o, struct{}{} })
	return func(origin string) bool {
		_, ok := allowed[origin]
		return ok
	}
}

// CORS answers preflight requests and echoes allowed origins. Requests from
// other origins are refused with 403.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  OriginPolicy(origins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
