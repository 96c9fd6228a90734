package httpx

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rid, _ := c.Get("rid")
		log.Printf("[http] rid=%v %s %s status=%d dur=%s",
			rid, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Errors is the single place where handler errors become HTTP responses.
// Handlers call c.Error(err) and return; the last error wins. With debug set
// the underlying cause is included as "detail".
func Errors(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				rid, _ := c.Get("rid")
				log.Printf("[http] rid=%v panic: %v", rid, r)
				body := gin.H{"error": "internal server error"}
				if debug {
					body["detail"] = r
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		ae := apperr.As(c.Errors.Last().Err)
		if ae.Status >= http.StatusInternalServerError {
			rid, _ := c.Get("rid")
			log.Printf("[http] rid=%v %s %s error: %v", rid, c.Request.Method, c.Request.URL.Path, ae)
		}
		body := gin.H{"error": ae.Message}
		if debug && ae.Err != nil {
			body["detail"] = ae.Err.Error()
		}
		c.JSON(ae.Status, body)
	}
}
