package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/GoArmGo/IdentityApp/internal/messaging/payloads"
)

type deliveryOutcome string

const (
	outcomeAck     deliveryOutcome = "ack"
	outcomeReject  deliveryOutcome = "reject"
	outcomeRequeue deliveryOutcome = "requeue"
)

// handleDelivery декодирует сообщение и передает его обработчику.
// Сообщение с битым JSON отклоняется без возврата в очередь, ошибка обработчика возвращает его в очередь.
func handleDelivery(
	ctx context.Context,
	body []byte,
	handler func(context.Context, payloads.UserEventPayload) error,
	logger *slog.Logger,
) deliveryOutcome {
	var event payloads.UserEventPayload
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Error("error unmarshalling message", "error", err, "body", string(body))
		return outcomeReject
	}

	if err := handler(ctx, event); err != nil {
		logger.Error("error processing message", "error", err, "type", event.Type, "user_id", event.UserID)
		return outcomeRequeue
	}
	return outcomeAck
}
