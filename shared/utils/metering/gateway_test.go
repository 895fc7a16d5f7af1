package metering

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/alerts"
	"pressgrid-backend/shared/utils/apikey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	snapshots map[string]*apikey.OrgSnapshot
	err       error
}

func (f *fakeResolver) ResolveOrganization(ctx context.Context, token string) (*apikey.OrgSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	snapshot, ok := f.snapshots[token]
	if !ok {
		return nil, apikey.ErrInvalidKey
	}
	return snapshot, nil
}

// fakeUsageStore counts in memory with the same atomicity contract as the
// SQL implementation.
type fakeUsageStore struct {
	count        atomic.Int64
	countErr     error
	incrementErr error
}

func (f *fakeUsageStore) CurrentCount(ctx context.Context, organizationID uuid.UUID, periodStart time.Time) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count.Load(), nil
}

func (f *fakeUsageStore) Increment(ctx context.Context, organizationID uuid.UUID, periodStart time.Time) (int64, error) {
	if f.incrementErr != nil {
		return 0, f.incrementErr
	}
	return f.count.Add(1), nil
}

type fakeAlertPublisher struct {
	mu     sync.Mutex
	alerts []alerts.QuotaAlert
}

func (f *fakeAlertPublisher) PublishQuotaAlert(ctx context.Context, alert alerts.QuotaAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeAlertPublisher) published() []alerts.QuotaAlert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]alerts.QuotaAlert(nil), f.alerts...)
}

func freeSnapshot() *apikey.OrgSnapshot {
	return &apikey.OrgSnapshot{
		ID:               uuid.New(),
		Name:             "Demo Press",
		Plan:             models.PlanFree,
		UsagePeriodStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newGatewayRouter(gateway *Gateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/ping", gateway.Middleware(), func(c *gin.Context) {
		org, ok := OrgFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no org in context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"organization": org.Name})
	})
	return router
}

func doRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGateway_MissingKey(t *testing.T) {
	gateway := NewGateway(&fakeResolver{}, &fakeUsageStore{}, 80, nil)
	router := newGatewayRouter(gateway)

	w := doRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API key is required")
}

func TestGateway_InvalidKey(t *testing.T) {
	gateway := NewGateway(&fakeResolver{snapshots: map[string]*apikey.OrgSnapshot{}}, &fakeUsageStore{}, 80, nil)
	router := newGatewayRouter(gateway)

	w := doRequest(router, "pg_unknown")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestGateway_ResolverFailureFailsClosed(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("store down")}
	gateway := NewGateway(resolver, &fakeUsageStore{}, 80, nil)
	router := newGatewayRouter(gateway)

	w := doRequest(router, "pg_any")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Could not verify API key")
}

func TestGateway_HardLimitBoundary(t *testing.T) {
	snapshot := freeSnapshot()
	resolver := &fakeResolver{snapshots: map[string]*apikey.OrgSnapshot{"pg_demo": snapshot}}

	// One request below the limit goes through as the final allowed view.
	usage := &fakeUsageStore{}
	usage.count.Store(2499)
	gateway := NewGateway(resolver, usage, 80, nil)
	router := newGatewayRouter(gateway)

	w := doRequest(router, "pg_demo")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2500), usage.count.Load())

	// The very next request is over the limit and names it.
	w = doRequest(router, "pg_demo")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Monthly limit of 2,500 views reached on the FREE plan")
	assert.Equal(t, int64(2500), usage.count.Load(), "a denied request must not consume quota")
}

func TestGateway_UsageLookupFailure(t *testing.T) {
	resolver := &fakeResolver{snapshots: map[string]*apikey.OrgSnapshot{"pg_demo": freeSnapshot()}}
	usage := &fakeUsageStore{countErr: errors.New("db down")}
	gateway := NewGateway(resolver, usage, 80, nil)
	router := newGatewayRouter(gateway)

	w := doRequest(router, "pg_demo")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGateway_IncrementFailure(t *testing.T) {
	resolver := &fakeResolver{snapshots: map[string]*apikey.OrgSnapshot{"pg_demo": freeSnapshot()}}
	usage := &fakeUsageStore{incrementErr: errors.New("db down")}
	gateway := NewGateway(resolver, usage, 80, nil)
	router := newGatewayRouter(gateway)

	w := doRequest(router, "pg_demo")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGateway_SoftLimitWarning(t *testing.T) {
	snapshot := freeSnapshot()
	resolver := &fakeResolver{snapshots: map[string]*apikey.OrgSnapshot{"pg_demo": snapshot}}
	publisher := &fakeAlertPublisher{}

	usage := &fakeUsageStore{}
	usage.count.Store(1998)
	gateway := NewGateway(resolver, usage, 80, publisher)
	router := newGatewayRouter(gateway)

	// Request 1999: below the 2,000 threshold, no warning.
	w := doRequest(router, "pg_demo")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(UsageWarningHeader))
	assert.Empty(t, publisher.published())

	// Request 2000: crosses the threshold, warns and alerts once.
	w = doRequest(router, "pg_demo")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2,000 of 2,500 monthly views used", w.Header().Get(UsageWarningHeader))
	require.Len(t, publisher.published(), 1)
	alert := publisher.published()[0]
	assert.Equal(t, snapshot.ID, alert.OrganizationID)
	assert.Equal(t, int64(2000), alert.Used)
	assert.Equal(t, int64(2500), alert.Limit)

	// Request 2001: still warned, but no duplicate alert.
	w = doRequest(router, "pg_demo")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2,001 of 2,500 monthly views used", w.Header().Get(UsageWarningHeader))
	assert.Len(t, publisher.published(), 1)
}

func TestGateway_UnlimitedPlanStillCounts(t *testing.T) {
	snapshot := freeSnapshot()
	snapshot.Plan = models.PlanCustom
	snapshot.CustomRequestLimit = 0
	resolver := &fakeResolver{snapshots: map[string]*apikey.OrgSnapshot{"pg_demo": snapshot}}

	usage := &fakeUsageStore{}
	usage.count.Store(1000000)
	gateway := NewGateway(resolver, usage, 80, nil)
	router := newGatewayRouter(gateway)

	w := doRequest(router, "pg_demo")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(UsageWarningHeader))
	assert.Equal(t, int64(1000001), usage.count.Load())
}

func TestGateway_ConcurrentRequestsCountExactly(t *testing.T) {
	resolver := &fakeResolver{snapshots: map[string]*apikey.OrgSnapshot{"pg_demo": freeSnapshot()}}
	usage := &fakeUsageStore{}
	gateway := NewGateway(resolver, usage, 80, nil)
	router := newGatewayRouter(gateway)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			doRequest(router, "pg_demo")
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), usage.count.Load(),
		fmt.Sprintf("%d concurrent requests must count exactly %d", n, n))
}
