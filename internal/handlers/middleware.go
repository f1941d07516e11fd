package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const adminKeyHeader = "X-Admin-Key"

// AdminAuth checks the X-Admin-Key header against a bcrypt hash. With no hash
// configured every admin request is refused.
func AdminAuth(keyHash string) gin.HandlerFunc {
	if keyHash == "" {
		log.Warn("ADMIN_API_KEY_HASH is empty, admin endpoints are disabled")
	}
	return func(c *gin.Context) {
		key := c.GetHeader(adminKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin key required", "code": "unauthorized"})
			return
		}
		if keyHash == "" || bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
			log.WithField("path", c.FullPath()).Warn("Rejected admin request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin key", "code": "unauthorized"})
			return
		}
		c.Set("admin", true)
		c.Next()
	}
}
