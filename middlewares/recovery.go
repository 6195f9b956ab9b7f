package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fanguan/pos-app/utils"
)

// Recovery intercepts uncaught panics and answers with a dismissible
// diagnostic payload instead of a dead connection, so the display can
// show an overlay and stay interactive after the operator dismisses it.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				utils.ErrorLogger.Printf("Panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status":      false,
					"message":     "internal fault",
					"diagnostic":  fmt.Sprintf("%v", r),
					"dismissible": true,
				})
			}
		}()
		c.Next()
	}
}
