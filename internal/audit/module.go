package audit

import (
	"context"

	"github.com/Abbracx/tses-be/internal/audit/inbound"
	"github.com/Abbracx/tses-be/internal/audit/outbound/db"
	"github.com/Abbracx/tses-be/internal/audit/usecase"
	"github.com/Abbracx/tses-be/internal/pkg/clock"
	"github.com/Abbracx/tses-be/internal/pkg/config"
	"github.com/Abbracx/tses-be/internal/pkg/goroutine"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/messaging"
	"github.com/Abbracx/tses-be/internal/pkg/router"
	"github.com/Abbracx/tses-be/internal/pkg/uid"
	"github.com/Abbracx/tses-be/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool              `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Router     *router.Router             `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAudit := db.NewDB(dep.DBConn, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:     dbAudit,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
