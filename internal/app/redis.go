package app

import (
	"strconv"

	"coach-hub/internal/common/logging"
	"coach-hub/internal/ratelimit"
	"coach-hub/internal/redis"
)

func (app *App) initializeRedis() error {
	if !app.Config.RedisEnabled() {
		app.Logger.Info("Redis: Not configured (notification feed cache disabled)")
		return nil
	}

	// Convert config values
	redisDB, _ := strconv.Atoi(app.Config.RedisDB)
	redisPoolSize, _ := strconv.Atoi(app.Config.RedisPoolSize)

	redisConfig := &redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       redisDB,
		PoolSize: redisPoolSize,
	}

	redisClient, err := redis.NewClient(redisConfig)
	if err != nil {
		return err
	}

	app.RedisClient = redisClient
	app.FeedCache = redis.NewFeedCache(redisClient, app.Config.FeedCacheTTL, app.Logger)
	app.checks["redis"] = redisClient

	app.Logger.Info("Redis: Connected", logging.String("address", app.Config.RedisAddress))
	app.Logger.Info("Feed Cache: Enabled", logging.Duration("ttl", app.Config.FeedCacheTTL))

	if app.Config.UploadRateLimited() {
		app.UploadLimiter = ratelimit.NewLimiter(redisClient, &ratelimit.Config{
			Limit:   app.Config.UploadRateLimit,
			Window:  app.Config.UploadRateWindow,
			Enabled: true,
		}, app.Logger)
		app.Logger.Info("Upload rate limit: Enabled",
			logging.Int("limit", app.Config.UploadRateLimit),
			logging.Duration("window", app.Config.UploadRateWindow),
		)
	}
	return nil
}

// watchInvalidations drops in-memory feeds when any instance invalidates
// them, so the next request reads the store or the cache again.
func (app *App) watchInvalidations() {
	go func() {
		err := app.FeedCache.WatchInvalidations(app.ctx, func(inv redis.Invalidation) {
			if n := app.Feeds.Forget(inv.Role, inv.UserID); n > 0 {
				app.Logger.Debug("Dropped invalidated feeds",
					logging.String("role", string(inv.Role)),
					logging.String("user_id", inv.UserID),
					logging.Int("feeds", n),
				)
			}
		})
		if err != nil {
			app.Logger.Warn("Feed invalidation listener stopped", logging.Err(err))
		}
	}()
}
