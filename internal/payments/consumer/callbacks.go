// Package consumer applies payment callbacks that providers deliver through
// Kafka instead of HTTP.
package consumer

import (
	"context"

	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/middleware"
	"hotelbooking/pkg/model"
)

type CallbackProcessor interface {
	HandlePaymentCallback(ctx context.Context, req *model.PaymentCallbackRequest) (*model.CallbackResult, error)
}

type CallbackHandler struct {
	processor CallbackProcessor
	secret    string
	log       *logger.Logger
}

// NewCallbackHandler verifies the x-signature header against secret when
// secret is set, the same HMAC the HTTP callback endpoint checks.
func NewCallbackHandler(processor CallbackProcessor, secret string, log *logger.Logger) *CallbackHandler {
	return &CallbackHandler{
		processor: processor,
		secret:    secret,
		log:       log.Component("payment-callbacks"),
	}
}

// Handle is a kafka.MessageHandler. Malformed, unsigned and rejected
// callbacks are permanent failures; storage errors are retried.
func (h *CallbackHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if h.secret != "" {
		signature, _ := msg.GetHeader(kafka.HeaderSignature)
		if !middleware.VerifyPayloadSignature(h.secret, msg.Value, signature) {
			h.log.Warn("Rejected unsigned payment callback",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			return kafka.NewPermanentError("invalid callback signature", nil)
		}
	}

	if id := msg.GetCorrelationID(); id != "" {
		ctx = context.WithValue(ctx, middleware.RequestIDKey, id)
	}

	var req model.PaymentCallbackRequest
	if err := msg.DecodeValue(&req); err != nil {
		return err
	}

	result, err := h.processor.HandlePaymentCallback(ctx, &req)
	if err != nil {
		return err
	}

	h.log.Info("Payment callback consumed",
		"payment_id", result.Payment.ID,
		"status", result.Payment.Status,
		"already_processed", result.AlreadyProcessed,
		"offset", msg.Offset,
	)
	return nil
}
