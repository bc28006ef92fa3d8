package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Abbracx/tses-be/internal/audit/usecase"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/messaging"
	"github.com/Abbracx/tses-be/internal/pkg/uid"
	"github.com/Abbracx/tses-be/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) AuditLogAppend(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("audit.inbound.mq").Start(ctx, "AuditLogAppend")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: audit log append", "msg_body", string(body))

	var payload event.AuditLogMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of audit log append", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeAuditLog(ctx, usecase.ConsumeAuditLogInput{
		Email:      payload.Email,
		Action:     payload.Action,
		IPAddress:  payload.IPAddress,
		UserAgent:  payload.UserAgent,
		Details:    payload.Details,
		OccurredAt: payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume audit log", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
