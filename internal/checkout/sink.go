package checkout

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// LoggingSink writes receipts to the log
type LoggingSink struct {
	logger *zap.Logger
}

// NewLoggingSink creates a sink that logs every confirmed receipt
func NewLoggingSink(logger *zap.Logger) *LoggingSink {
	return &LoggingSink{logger: logger.Named("receipts")}
}

func (s *LoggingSink) Confirm(ctx context.Context, result Result) error {
	if result.Receipt == nil {
		return nil
	}
	s.logger.Info("Order confirmed",
		zap.String("order_id", result.Receipt.OrderID.String()),
		zap.String("session_id", result.SessionID),
		zap.String("overall", string(result.Overall)),
		zap.Int("lines", len(result.Receipt.Lines)),
		zap.String("subtotal", result.Receipt.Subtotal.StringFixed(2)),
		zap.String("savings", result.Receipt.Savings.StringFixed(2)),
		zap.String("tax", result.Receipt.Tax.StringFixed(2)),
		zap.String("total", result.Receipt.Total.StringFixed(2)),
	)
	return nil
}

// Sinks fans a confirmation out to every sink, even when some fail
type Sinks []ConfirmationSink

func (s Sinks) Confirm(ctx context.Context, result Result) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Confirm(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
