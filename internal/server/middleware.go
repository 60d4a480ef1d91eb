package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// RequireAdmin gates admin routes behind a bearer token signed with the
// admin secret and carrying role=admin.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AdminJWTSecret == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.cfg.AdminJWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role, _ := claims["role"].(string)
		if role != "admin" {
			AbortWithError(c, ErrForbidden)
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Set("admin_subject", sub)
		}
		c.Next()
	}
}

// DonationRateLimit throttles the donation intake endpoints per client
// address. It fails open when redis is unavailable so a limiter outage
// never blocks donations.
func (s *Server) DonationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:donation:" + c.ClientIP()

		res, err := s.donationLimiter.Allow(
			c.Request.Context(),
			key,
			s.cfg.DonationRateLimit,
			s.cfg.DonationRateBurst,
		)
		if err != nil {
			s.log.Warn("donation rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !res.Allowed {
			if res.RetryAfter > 0 {
				retrySeconds := int64(res.RetryAfter.Seconds())
				if retrySeconds < 1 {
					retrySeconds = 1
				}
				c.Header("Retry-After", strconv.FormatInt(retrySeconds, 10))
			}
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
