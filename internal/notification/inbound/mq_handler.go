package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Abbracx/tses-be/internal/notification/usecase"
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

func (h *MQHandler) OTPEmailNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPEmailNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: otp email notification", "msg_id", msg.ID())

	var payload event.OTPEmailMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp email notification", "msg_id", msg.ID(), "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPEmail(ctx, usecase.ConsumeOTPEmailInput{
		MessageID:     msg.ID(),
		Email:         payload.Email,
		Code:          payload.Code,
		ExpirySeconds: payload.ExpirySeconds,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp email", "msg_id", msg.ID(), "error", err)
		return err
	}

	return nil
}
