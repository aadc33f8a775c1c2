package bridgehttp

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// authenticate allows the request through on a valid session or a valid
// Bearer token against the catalog's configured api_token; it never checks
// Basic credentials since the bridge has no local user directory — unlike
// internal/http/middleware/auth.go's three-way check, am3 has nothing to
// authenticate Basic credentials against.
func (s *Server) authenticate(c *gin.Context) {
	if s.cfg.APIToken == "" {
		// No token configured: the bridge is explicitly unauthenticated,
		// for operators who terminate it behind their own reverse proxy.
		c.Next()
		return
	}
	if s.isSessionAuthenticated(c) || s.isBearerTokenValid(c) {
		c.Next()
		return
	}
	c.AbortWithStatus(http.StatusUnauthorized)
}

func (s *Server) isSessionAuthenticated(c *gin.Context) bool {
	session := sessions.Default(c)
	authed, _ := session.Get("authed").(bool)
	if !authed {
		return false
	}
	const sessionTTL = 15 * 60
	now := time.Now().Unix()
	lastTouch, _ := session.Get("last_touch").(int64)
	if lastTouch == 0 || now-lastTouch > sessionTTL {
		session.Set("last_touch", now)
		_ = session.Save()
	}
	return true
}

func (s *Server) isBearerTokenValid(c *gin.Context) bool {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, prefix))
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) == 1
}
