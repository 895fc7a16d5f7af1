package alerts

import (
	"context"
	"time"

	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/cache"

	"github.com/google/uuid"
)

// QuotaAlertChannel is the Redis pub/sub channel soft-limit crossings are
// published on. The content-service ops hub subscribes and fans the alerts
// out to connected dashboards.
const QuotaAlertChannel = "quota_alerts"

// QuotaAlert is the payload for one soft-limit crossing
type QuotaAlert struct {
	OrganizationID   uuid.UUID   `json:"organization_id"`
	OrganizationName string      `json:"organization_name"`
	Plan             models.Plan `json:"plan"`
	Used             int64       `json:"used"`
	Limit            int64       `json:"limit"`
	At               time.Time   `json:"at"`
}

// Publisher pushes quota alerts through Redis pub/sub
type Publisher struct {
	cache *cache.CacheManager
}

func NewPublisher(cacheManager *cache.CacheManager) *Publisher {
	return &Publisher{cache: cacheManager}
}

// PublishQuotaAlert broadcasts a soft-limit crossing. Alerting is advisory;
// callers log failures and move on.
func (p *Publisher) PublishQuotaAlert(ctx context.Context, alert QuotaAlert) error {
	return p.cache.Publish(ctx, QuotaAlertChannel, alert)
}
