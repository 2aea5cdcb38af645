package kafka

import (
	"errors"
	"fmt"
	"strings"

	apperrors "hotelbooking/pkg/errors"
)

var (
	ErrProducerClosed   = errors.New("kafka producer is closed")
	ErrConsumerClosed   = errors.New("kafka consumer is closed")
	ErrInvalidMessage   = errors.New("invalid message")
	ErrEmptyKey         = errors.New("message key cannot be empty")
	ErrEmptyValue       = errors.New("message value cannot be empty")
	ErrNoTopic          = errors.New("no topic configured")
	ErrMaxRetriesExceed = errors.New("max retries exceeded")
)

type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransient covers network trouble and timeouts; the message is retried.
	ErrorTypeTransient
	// ErrorTypePermanent covers bad payloads and rejected requests; the
	// message goes to the DLQ.
	ErrorTypePermanent
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

type KafkaError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *KafkaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

func NewTransientError(message string, err error) *KafkaError {
	return &KafkaError{Type: ErrorTypeTransient, Message: message, Err: err}
}

func NewPermanentError(message string, err error) *KafkaError {
	return &KafkaError{Type: ErrorTypePermanent, Message: message, Err: err}
}

var transientPatterns = []string{
	"connection refused",
	"timeout",
	"deadline exceeded",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"connection reset",
	"temporary failure",
	"server selection error",
	"write conflict",
}

// ClassifyError decides what the consumer does with a failed message.
// Application errors are classified by their HTTP status: 4xx is permanent
// and 5xx is retried. Anything unrecognised is permanent.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var kafkaErr *KafkaError
	if errors.As(err, &kafkaErr) {
		return kafkaErr.Type
	}

	if apperrors.IsAppError(err) {
		if apperrors.IsClientError(err) {
			return ErrorTypePermanent
		}
		return ErrorTypeTransient
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return ErrorTypeTransient
		}
	}

	return ErrorTypePermanent
}

func ShouldRetry(err error, currentRetries, maxRetries int) bool {
	if err == nil || currentRetries >= maxRetries {
		return false
	}
	return ClassifyError(err) == ErrorTypeTransient
}
