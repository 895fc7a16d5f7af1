package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pressgrid-backend/shared/config"
	"pressgrid-backend/shared/database"
	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/metering"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var runOnce = flag.Bool("run-once", false, "Run one rollover pass and exit")

func main() {
	flag.Parse()

	log.Println("🔄 Starting usage reset daemon...")

	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()
	db := database.GetDB()

	// Redis cache, for dropping stale API key snapshots after each reset
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	cacheManager := cache.NewCacheManager(redisClient)
	defer cacheManager.Close()
	invalidator := cache.NewInvalidator(cacheManager)

	usageStore := metering.NewGormUsageStore(db)

	if *runOnce {
		if err := rolloverDuePeriods(db, usageStore, invalidator); err != nil {
			log.Fatalf("❌ Rollover failed: %v", err)
		}
		log.Println("✅ Rollover pass completed")
		return
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.UsageResetCronSpec, func() {
		if err := rolloverDuePeriods(db, usageStore, invalidator); err != nil {
			log.Printf("❌ Rollover failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule usage reset: %v", err)
	}

	c.Start()
	log.Printf("✅ Usage reset scheduled: %s", cfg.UsageResetCronSpec)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	stopCtx := c.Stop()
	<-stopCtx.Done()
}

// nextPeriodStart advances a period anchor one calendar month at a time
// until it anchors the month containing now. The daemon may have been down
// for several periods; each skipped month is caught up.
func nextPeriodStart(current, now time.Time) time.Time {
	next := current
	for !next.AddDate(0, 1, 0).After(now) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}

// rolloverDuePeriods starts a fresh usage period for every organization
// whose current period ended, then drops the organization's cached API key
// snapshot. The snapshot embeds the period anchor, so without the
// invalidation an exhausted organization would keep getting quota refusals
// until the snapshot TTL expired.
func rolloverDuePeriods(db *gorm.DB, usageStore *metering.GormUsageStore, invalidator *cache.Invalidator) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().UTC()

	var orgs []models.Organization
	err := db.WithContext(ctx).
		Where("status = ? AND usage_period_start <= ?", "ACTIVE", now.AddDate(0, -1, 0)).
		Find(&orgs).Error
	if err != nil {
		return err
	}

	if len(orgs) == 0 {
		log.Println("🔄 No organizations due for rollover")
		return nil
	}

	for _, org := range orgs {
		newStart := nextPeriodStart(org.UsagePeriodStart, now)

		if err := usageStore.ResetPeriod(ctx, org.ID, newStart); err != nil {
			log.Printf("❌ Failed to reset usage for %s: %v", org.Slug, err)
			continue
		}

		if err := invalidator.APIKeyRevoked(ctx, org.APIKey); err != nil {
			log.Printf("⚠️ Snapshot invalidation failed for %s, stale until TTL expiry: %v", org.Slug, err)
		}

		log.Printf("✅ Usage reset for %s, new period starts %s", org.Slug, newStart.Format("2006-01-02"))
	}

	return nil
}
