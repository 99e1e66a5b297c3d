package errors

import (
	"errors"
	"fmt"
)

// AMQPError represents a general AMQP error
type AMQPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Method  string `json:"method,omitempty"`
	Cause   error  `json:"cause,omitempty"`
}

func (e *AMQPError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("AMQP Error %d in %s: %s", e.Code, e.Method, e.Message)
	}
	return fmt.Sprintf("AMQP Error %d: %s", e.Code, e.Message)
}

func (e *AMQPError) Unwrap() error {
	return e.Cause
}

func (e *AMQPError) As(target interface{}) bool {
	if amqpErr, ok := target.(**AMQPError); ok {
		*amqpErr = e
		return true
	}
	return false
}

// AMQP reply codes (AMQP 0.9.1 specification)
const (
	ReplySuccess = 200

	// Soft errors, close the channel
	ContentTooLarge    = 311
	NoRoute            = 312
	NoConsumers        = 313
	AccessRefused      = 403
	NotFound           = 404
	ResourceLocked     = 405
	PreconditionFailed = 406

	// Hard errors, close the connection
	ConnectionForced = 320
	InvalidPath      = 402
	FrameError       = 501
	SyntaxError      = 502
	CommandInvalid   = 503
	ChannelErrorCode = 504
	UnexpectedFrame  = 505
	ResourceError    = 506
	NotAllowed       = 530
	NotImplemented   = 540
	InternalError    = 541
)

// Usage Errors

// UsageError reports a call the local API does not allow in the current
// channel or connection state. Nothing was sent and the state is unchanged.
type UsageError struct {
	AMQPError
	ChannelID uint16 `json:"channel_id,omitempty"`
}

func NewUsageError(op string, channelID uint16, reason string) *UsageError {
	return &UsageError{
		AMQPError: AMQPError{
			Code:    NotAllowed,
			Message: reason,
			Method:  op,
		},
		ChannelID: channelID,
	}
}

func NewAlreadyClosed(op string, channelID uint16) *UsageError {
	return NewUsageError(op, channelID, fmt.Sprintf("channel %d already closed", channelID))
}

func NewModeError(op string, channelID uint16, mode, required string) *UsageError {
	return NewUsageError(op, channelID, fmt.Sprintf("channel %d is in %s mode, %s requires %s", channelID, mode, op, required))
}

func NewGetInProgress(channelID uint16) *UsageError {
	return NewUsageError("basic.get", channelID, fmt.Sprintf("another get is already outstanding on channel %d", channelID))
}

// Connection Errors

// ConnectionError represents connection-level closures, either initiated by
// the broker or by the client after a connection-level violation.
type ConnectionError struct {
	AMQPError
	ConnectionID string `json:"connection_id,omitempty"`
	ClassID      uint16 `json:"class_id,omitempty"`
	MethodID     uint16 `json:"method_id,omitempty"`
	Server       bool   `json:"server"`
}

func NewConnectionError(code int, message, connectionID string) *ConnectionError {
	return &ConnectionError{
		AMQPError: AMQPError{
			Code:    code,
			Message: message,
		},
		ConnectionID: connectionID,
	}
}

// NewConnectionClosedByServer wraps a connection.close sent by the broker.
func NewConnectionClosedByServer(connectionID string, code int, text string, classID, methodID uint16) *ConnectionError {
	err := NewConnectionError(code, text, connectionID)
	err.ClassID = classID
	err.MethodID = methodID
	err.Server = true
	return err
}

func NewConnectionForced(connectionID, reason string) *ConnectionError {
	return NewConnectionError(ConnectionForced, fmt.Sprintf("Connection forced closed: %s", reason), connectionID)
}

func NewAccessRefused(connectionID, reason string) *ConnectionError {
	return NewConnectionError(AccessRefused, fmt.Sprintf("Access refused: %s", reason), connectionID)
}

// Channel Errors

// ChannelError represents a channel closed by the broker with a reply code.
// It is not a ProtocolError: test for it with IsServerClosure (or
// IsChannelError), not IsProtocolError.
type ChannelError struct {
	AMQPError
	ConnectionID string `json:"connection_id,omitempty"`
	ChannelID    uint16 `json:"channel_id"`
	ClassID      uint16 `json:"class_id,omitempty"`
	MethodID     uint16 `json:"method_id,omitempty"`
}

func NewChannelError(code int, message, connectionID string, channelID uint16) *ChannelError {
	return &ChannelError{
		AMQPError: AMQPError{
			Code:    code,
			Message: message,
		},
		ConnectionID: connectionID,
		ChannelID:    channelID,
	}
}

// NewChannelClosedByServer wraps a channel.close sent by the broker.
func NewChannelClosedByServer(connectionID string, channelID uint16, code int, text string, classID, methodID uint16) *ChannelError {
	err := NewChannelError(code, text, connectionID, channelID)
	err.ClassID = classID
	err.MethodID = methodID
	return err
}

// Protocol Errors

// ProtocolError represents a wire-level inconsistency: a frame that is not
// legal in the receiving state, a malformed frame, or a frame for a channel
// that does not exist.
type ProtocolError struct {
	AMQPError
	ChannelID uint16 `json:"channel_id,omitempty"`
	FrameType byte   `json:"frame_type,omitempty"`
	ClassID   uint16 `json:"class_id,omitempty"`
	MethodID  uint16 `json:"method_id,omitempty"`
}

func NewProtocolError(code int, message string, frameType byte, classID, methodID uint16) *ProtocolError {
	return &ProtocolError{
		AMQPError: AMQPError{
			Code:    code,
			Message: message,
		},
		FrameType: frameType,
		ClassID:   classID,
		MethodID:  methodID,
	}
}

func NewFrameError(message string, frameType byte, cause error) *ProtocolError {
	err := NewProtocolError(FrameError, fmt.Sprintf("Frame error: %s", message), frameType, 0, 0)
	err.Cause = cause
	return err
}

func NewSyntaxError(message string, cause error) *ProtocolError {
	err := NewProtocolError(SyntaxError, fmt.Sprintf("Syntax error: %s", message), 0, 0, 0)
	err.Cause = cause
	return err
}

// NewUnexpectedFrame reports a frame that the channel state does not accept.
func NewUnexpectedFrame(channelID uint16, frameType byte, state, got string) *ProtocolError {
	err := NewProtocolError(UnexpectedFrame, fmt.Sprintf("Unexpected frame: %s in state %s", got, state), frameType, 0, 0)
	err.ChannelID = channelID
	return err
}

func NewBodyOverflow(channelID uint16, declared uint64, received uint64) *ProtocolError {
	message := fmt.Sprintf("Body overflow: declared %d bytes, received %d", declared, received)
	err := NewProtocolError(FrameError, message, 3, 0, 0)
	err.ChannelID = channelID
	return err
}

func NewUnknownChannel(channelID uint16, frameType byte) *ProtocolError {
	err := NewProtocolError(ChannelErrorCode, fmt.Sprintf("Frame on closed channel %d", channelID), frameType, 0, 0)
	err.ChannelID = channelID
	return err
}

// NewChannelStateError reports a frame delivered to a channel in a terminal state.
func NewChannelStateError(channelID uint16, state string) *ProtocolError {
	err := NewProtocolError(ChannelErrorCode, fmt.Sprintf("Channel %d in %s state", channelID, state), 0, 0, 0)
	err.ChannelID = channelID
	return err
}

// Transport Errors

// TransportError reports a failure of the underlying byte stream.
type TransportError struct {
	AMQPError
	ConnectionID string `json:"connection_id,omitempty"`
	Op           string `json:"op"`
}

func NewTransportError(connectionID, op string, cause error) *TransportError {
	return &TransportError{
		AMQPError: AMQPError{
			Code:    ConnectionForced,
			Message: fmt.Sprintf("transport %s failed", op),
			Cause:   cause,
		},
		ConnectionID: connectionID,
		Op:           op,
	}
}

// Configuration Errors

// ConfigError represents configuration-specific errors
type ConfigError struct {
	AMQPError
	Section string `json:"section"`
	Key     string `json:"key,omitempty"`
}

func NewConfigError(message, section, key string, cause error) *ConfigError {
	return &ConfigError{
		AMQPError: AMQPError{
			Code:    InternalError,
			Message: message,
			Cause:   cause,
		},
		Section: section,
		Key:     key,
	}
}

func NewConfigValidationError(section, key, reason string) *ConfigError {
	message := fmt.Sprintf("Configuration validation failed for %s.%s: %s", section, key, reason)
	return NewConfigError(message, section, key, nil)
}

// Helper functions for common error checking

// IsUsageError checks if an error is a UsageError
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}

// IsProtocolError checks if an error is a ProtocolError
func IsProtocolError(err error) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr)
}

// IsTransportError checks if an error is a TransportError
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsConnectionError checks if an error is a ConnectionError
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsChannelError checks if an error is a ChannelError
func IsChannelError(err error) bool {
	var chanErr *ChannelError
	return errors.As(err, &chanErr)
}

// IsServerClosure reports whether the broker closed the channel or the
// connection.
func IsServerClosure(err error) bool {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Server
	}
	return IsChannelError(err)
}

// IsFatal reports whether the error leaves the connection unusable.
func IsFatal(err error) bool {
	return IsProtocolError(err) || IsTransportError(err) || IsConnectionError(err)
}

// IsNotFound checks if an error indicates a resource was not found
func IsNotFound(err error) bool {
	return GetErrorCode(err) == NotFound
}

// IsPreconditionFailed checks if an error indicates a precondition failed
func IsPreconditionFailed(err error) bool {
	return GetErrorCode(err) == PreconditionFailed
}

// IsAccessRefused checks if an error indicates access was refused
func IsAccessRefused(err error) bool {
	return GetErrorCode(err) == AccessRefused
}

// GetErrorCode returns the AMQP error code if the error is an AMQPError
func GetErrorCode(err error) int {
	var amqpErr *AMQPError
	if errors.As(err, &amqpErr) {
		return amqpErr.Code
	}
	return 0
}
