package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/cache"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/database"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/env"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/refresher"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/router"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/session"
)

func main() {
	app := NewApplication()

	if env.GetEnv("SERVICE_SESSION_ENABLED", "false") == "true" {
		sched := startServiceSessionRefresher()
		defer sched.Stop()
	}

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		BodyLimit: 104857600, // 100 MiB for audio asset uploads
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// startServiceSessionRefresher keeps the server-held service session token
// fresh. Internal jobs use this token when they call session-protected
// routes; the scheduler refreshes it before expiry.
func startServiceSessionRefresher() *refresher.Scheduler {
	ssid := env.GetEnv("SERVICE_SSID", "")
	if ssid == "" {
		ssid = "svc:" + uuid.NewString()
	}

	var mu sync.Mutex
	var token string

	issue := func() error {
		t, err := session.Issue(ssid, "service@musiclibrary.local", "service", "internal", session.TTL())
		if err != nil {
			return err
		}
		mu.Lock()
		token = t
		mu.Unlock()
		return nil
	}

	if err := issue(); err != nil {
		fiberlog.Errorf("[Main] Failed to issue service session token: %v", err)
	}

	sched := refresher.New(refresher.Config{
		Expiry: func(ctx context.Context) (time.Time, error) {
			mu.Lock()
			current := token
			mu.Unlock()
			claims, err := session.Parse(current)
			if err != nil {
				return time.Time{}, err
			}
			return claims.ExpiresAt.Time, nil
		},
		Refresh: func(ctx context.Context) error {
			return issue()
		},
		OnFatal: func(err error) {
			fiberlog.Errorf("[Main] Service session refresh failed fatally: %v", err)
		},
	})
	sched.Start()
	return sched
}
