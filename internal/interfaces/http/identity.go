package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
)

const actorKey = "actor"

// IdentityConfig names the headers set by the authenticating proxy
type IdentityConfig struct {
	UserIDHeader string
	RoleHeader   string
	NameHeader   string
}

// DefaultIdentityConfig returns the default header names
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		UserIDHeader: "X-User-ID",
		RoleHeader:   "X-User-Role",
		NameHeader:   "X-User-Name",
	}
}

// identityMiddleware stores the caller in the gin context. A missing or
// unparseable id yields a zero actor, which the services reject.
func identityMiddleware(cfg IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var actor entity.Actor
		if raw := strings.TrimSpace(c.GetHeader(cfg.UserIDHeader)); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				actor.UserID = id
			}
		}
		actor.RoleCode = strings.TrimSpace(c.GetHeader(cfg.RoleHeader))
		actor.Name = strings.TrimSpace(c.GetHeader(cfg.NameHeader))

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}
