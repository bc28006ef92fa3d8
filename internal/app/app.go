package app

import (
	"context"
	"net/http"

	"github.com/Abbracx/tses-be/internal/pkg/clock"
	"github.com/Abbracx/tses-be/internal/pkg/config"
	"github.com/Abbracx/tses-be/internal/pkg/goroutine"
	"github.com/Abbracx/tses-be/internal/pkg/hash"
	"github.com/Abbracx/tses-be/internal/pkg/idempotency"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/jwt"
	"github.com/Abbracx/tses-be/internal/pkg/kvstore"
	"github.com/Abbracx/tses-be/internal/pkg/mail"
	"github.com/Abbracx/tses-be/internal/pkg/messaging"
	"github.com/Abbracx/tses-be/internal/pkg/otp"
	"github.com/Abbracx/tses-be/internal/pkg/router"
	"github.com/Abbracx/tses-be/internal/pkg/uid"
	"github.com/Abbracx/tses-be/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	otpGen    otp.Generator
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	kvstore   kvstore.Store
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
