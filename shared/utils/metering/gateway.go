package metering

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"pressgrid-backend/shared/utils/alerts"
	"pressgrid-backend/shared/utils/apikey"

	"github.com/gin-gonic/gin"
)

// ContextOrgKey is where the gateway stores the resolved organization
// snapshot for downstream handlers. Every public read must scope its
// queries by this organization; there is no global read in the public API.
const ContextOrgKey = "public_org"

// UsageWarningHeader carries the non-blocking soft-limit signal
const UsageWarningHeader = "X-Usage-Warning"

// KeyResolver authenticates a bearer token to an organization snapshot
type KeyResolver interface {
	ResolveOrganization(ctx context.Context, token string) (*apikey.OrgSnapshot, error)
}

// AlertPublisher surfaces soft-limit crossings to operations
type AlertPublisher interface {
	PublishQuotaAlert(ctx context.Context, alert alerts.QuotaAlert) error
}

// Gateway authenticates API keys and enforces plan quotas on every public
// v1 request. Hard limits block with 403; soft limits only warn. Any store
// failure on this path fails closed: a metered endpoint never silently
// skips quota enforcement because infrastructure hiccupped.
type Gateway struct {
	keys        KeyResolver
	usage       UsageStore
	softPercent int
	alerts      AlertPublisher
}

// NewGateway wires the gateway from its collaborators. alertPublisher may
// be nil; soft-limit crossings then only set the response header.
func NewGateway(keys KeyResolver, usage UsageStore, softPercent int, alertPublisher AlertPublisher) *Gateway {
	if softPercent <= 0 || softPercent >= 100 {
		softPercent = 80
	}
	return &Gateway{
		keys:        keys,
		usage:       usage,
		softPercent: softPercent,
		alerts:      alertPublisher,
	}
}

// OrgFromContext returns the organization snapshot the gateway attached
func OrgFromContext(c *gin.Context) (*apikey.OrgSnapshot, bool) {
	value, exists := c.Get(ContextOrgKey)
	if !exists {
		return nil, false
	}
	snapshot, ok := value.(*apikey.OrgSnapshot)
	return snapshot, ok
}

// Middleware runs the per-request state machine: extract key, resolve
// organization, check the hard limit, increment atomically, annotate the
// request. An increment already applied is not rolled back if the client
// disconnects mid-flight; usage bills work attempted.
func (g *Gateway) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key is required"})
			c.Abort()
			return
		}

		snapshot, err := g.keys.ResolveOrganization(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, apikey.ErrInvalidKey) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			} else {
				// Fail closed: store trouble during authentication denies.
				log.Printf("❌ API key resolution failed: %v", err)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not verify API key"})
			}
			c.Abort()
			return
		}

		hardLimit := HardLimitFor(snapshot.Plan, snapshot.CustomRequestLimit)
		if hardLimit != Unlimited {
			current, err := g.usage.CurrentCount(c.Request.Context(), snapshot.ID, snapshot.UsagePeriodStart)
			if err != nil {
				log.Printf("❌ Usage lookup failed for %s: %v", snapshot.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Usage check failed"})
				c.Abort()
				return
			}

			if current >= hardLimit {
				c.JSON(http.StatusForbidden, gin.H{
					"error": fmt.Sprintf("Monthly limit of %s views reached on the %s plan",
						FormatCount(hardLimit), snapshot.Plan),
				})
				c.Abort()
				return
			}

			newCount, err := g.usage.Increment(c.Request.Context(), snapshot.ID, snapshot.UsagePeriodStart)
			if err != nil {
				log.Printf("❌ Usage increment failed for %s: %v", snapshot.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Usage check failed"})
				c.Abort()
				return
			}

			g.signalSoftLimit(c, snapshot, newCount, hardLimit)
		} else {
			// Unlimited plans are still counted for reporting.
			if _, err := g.usage.Increment(c.Request.Context(), snapshot.ID, snapshot.UsagePeriodStart); err != nil {
				log.Printf("❌ Usage increment failed for %s: %v", snapshot.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Usage check failed"})
				c.Abort()
				return
			}
		}

		c.Set(ContextOrgKey, snapshot)
		c.Next()
	}
}

// signalSoftLimit sets the warning header once past the threshold and
// publishes an ops alert at the exact crossing. Soft limits never reject.
func (g *Gateway) signalSoftLimit(c *gin.Context, snapshot *apikey.OrgSnapshot, used, hardLimit int64) {
	softLimit := SoftLimitFor(hardLimit, g.softPercent)
	if softLimit == Unlimited || used < softLimit {
		return
	}

	c.Header(UsageWarningHeader, fmt.Sprintf("%s of %s monthly views used",
		FormatCount(used), FormatCount(hardLimit)))

	if used == softLimit && g.alerts != nil {
		alert := alerts.QuotaAlert{
			OrganizationID:   snapshot.ID,
			OrganizationName: snapshot.Name,
			Plan:             snapshot.Plan,
			Used:             used,
			Limit:            hardLimit,
			At:               time.Now().UTC(),
		}
		if err := g.alerts.PublishQuotaAlert(c.Request.Context(), alert); err != nil {
			log.Printf("❌ Failed to publish quota alert for %s: %v", snapshot.ID, err)
		}
	}
}

// extractBearerToken pulls the API key out of the Authorization header
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return ""
	}

	return tokenParts[1]
}
