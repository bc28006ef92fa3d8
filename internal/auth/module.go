package auth

import (
	"github.com/Abbracx/tses-be/internal/auth/inbound"
	"github.com/Abbracx/tses-be/internal/auth/outbound/cache"
	"github.com/Abbracx/tses-be/internal/auth/outbound/db"
	"github.com/Abbracx/tses-be/internal/auth/outbound/mq"
	"github.com/Abbracx/tses-be/internal/auth/usecase"
	"github.com/Abbracx/tses-be/internal/pkg/clock"
	"github.com/Abbracx/tses-be/internal/pkg/config"
	"github.com/Abbracx/tses-be/internal/pkg/goroutine"
	"github.com/Abbracx/tses-be/internal/pkg/hash"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/jwt"
	"github.com/Abbracx/tses-be/internal/pkg/kvstore"
	"github.com/Abbracx/tses-be/internal/pkg/messaging"
	"github.com/Abbracx/tses-be/internal/pkg/otp"
	"github.com/Abbracx/tses-be/internal/pkg/router"
	"github.com/Abbracx/tses-be/internal/pkg/uid"
	"github.com/Abbracx/tses-be/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	KVStore    kvstore.Store              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	OTP        otp.Generator              `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	OID        uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	cacheAuth := cache.NewCache(dep.KVStore, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbAuth,
		RepoCache:     cacheAuth,
		RepoMessaging: repoMsg,
		Policy:        usecase.PolicyFromConfig(dep.Config),
		OTP:           dep.OTP,
		UID:           dep.UID,
		OID:           dep.OID,
		HMAC:          dep.HMAC,
		Clock:         dep.Clock,
		Validator:     dep.Validator,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
