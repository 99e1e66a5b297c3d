package protocol

import (
	"encoding/binary"
	"fmt"
)

// Class IDs
const (
	ClassConnection = 10
	ClassChannel    = 20
	ClassExchange   = 40
	ClassQueue      = 50
	ClassBasic      = 60
	ClassConfirm    = 85
	ClassTx         = 90
)

// Method IDs for connection class
const (
	ConnectionStart     = 10
	ConnectionStartOK   = 11
	ConnectionSecure    = 20
	ConnectionSecureOK  = 21
	ConnectionTune      = 30
	ConnectionTuneOK    = 31
	ConnectionOpen      = 40
	ConnectionOpenOK    = 41
	ConnectionClose     = 50
	ConnectionCloseOK   = 51
	ConnectionBlocked   = 60
	ConnectionUnblocked = 61
)

// Method IDs for channel class
const (
	ChannelOpen    = 10
	ChannelOpenOK  = 11
	ChannelFlow    = 20
	ChannelFlowOK  = 21
	ChannelClose   = 40
	ChannelCloseOK = 41
)

// Method IDs for exchange class
const (
	ExchangeDeclare   = 10
	ExchangeDeclareOK = 11
	ExchangeDelete    = 20
	ExchangeDeleteOK  = 21
	ExchangeBind      = 30
	ExchangeBindOK    = 31
	ExchangeUnbind    = 40
	ExchangeUnbindOK  = 51
)

// Method IDs for queue class
const (
	QueueDeclare   = 10
	QueueDeclareOK = 11
	QueueBind      = 20
	QueueBindOK    = 21
	QueuePurge     = 30
	QueuePurgeOK   = 31
	QueueDelete    = 40
	QueueDeleteOK  = 41
	QueueUnbind    = 50
	QueueUnbindOK  = 51
)

// Method IDs for basic class
const (
	BasicQos          = 10
	BasicQosOK        = 11
	BasicConsume      = 20
	BasicConsumeOK    = 21
	BasicCancel       = 30
	BasicCancelOK     = 31
	BasicPublish      = 40
	BasicReturn       = 50
	BasicDeliver      = 60
	BasicGet          = 70
	BasicGetOK        = 71
	BasicGetEmpty     = 72
	BasicAck          = 80
	BasicReject       = 90
	BasicRecoverAsync = 100
	BasicRecover      = 110
	BasicRecoverOK    = 111
	BasicNack         = 120
)

// Method IDs for confirm class
const (
	ConfirmSelect   = 10
	ConfirmSelectOK = 11
)

// Method IDs for tx class
const (
	TxSelect     = 10
	TxSelectOK   = 11
	TxCommit     = 20
	TxCommitOK   = 21
	TxRollback   = 30
	TxRollbackOK = 31
)

// MethodKey identifies a method by class and method id.
type MethodKey struct {
	Class  uint16
	Method uint16
}

func (k MethodKey) String() string {
	if spec, ok := methodRegistry[k]; ok {
		return spec.name
	}
	return fmt.Sprintf("unknown(%d.%d)", k.Class, k.Method)
}

// Method is an AMQP method. Serialize and Deserialize cover the argument
// list only; EncodeMethod and DecodeMethod add the class and method ids.
type Method interface {
	Key() MethodKey
	Serialize() ([]byte, error)
	Deserialize(data []byte) error
}

type methodSpec struct {
	name    string
	content bool
	new     func() Method
}

var methodRegistry = map[MethodKey]methodSpec{
	{ClassConnection, ConnectionStart}:     {"connection.start", false, func() Method { return &ConnectionStartMethod{} }},
	{ClassConnection, ConnectionStartOK}:   {"connection.start-ok", false, func() Method { return &ConnectionStartOKMethod{} }},
	{ClassConnection, ConnectionSecure}:    {"connection.secure", false, func() Method { return &ConnectionSecureMethod{} }},
	{ClassConnection, ConnectionSecureOK}:  {"connection.secure-ok", false, func() Method { return &ConnectionSecureOKMethod{} }},
	{ClassConnection, ConnectionTune}:      {"connection.tune", false, func() Method { return &ConnectionTuneMethod{} }},
	{ClassConnection, ConnectionTuneOK}:    {"connection.tune-ok", false, func() Method { return &ConnectionTuneOKMethod{} }},
	{ClassConnection, ConnectionOpen}:      {"connection.open", false, func() Method { return &ConnectionOpenMethod{} }},
	{ClassConnection, ConnectionOpenOK}:    {"connection.open-ok", false, func() Method { return &ConnectionOpenOKMethod{} }},
	{ClassConnection, ConnectionClose}:     {"connection.close", false, func() Method { return &ConnectionCloseMethod{} }},
	{ClassConnection, ConnectionCloseOK}:   {"connection.close-ok", false, func() Method { return &ConnectionCloseOKMethod{} }},
	{ClassConnection, ConnectionBlocked}:   {"connection.blocked", false, func() Method { return &ConnectionBlockedMethod{} }},
	{ClassConnection, ConnectionUnblocked}: {"connection.unblocked", false, func() Method { return &ConnectionUnblockedMethod{} }},

	{ClassChannel, ChannelOpen}:    {"channel.open", false, func() Method { return &ChannelOpenMethod{} }},
	{ClassChannel, ChannelOpenOK}:  {"channel.open-ok", false, func() Method { return &ChannelOpenOKMethod{} }},
	{ClassChannel, ChannelFlow}:    {"channel.flow", false, func() Method { return &ChannelFlowMethod{} }},
	{ClassChannel, ChannelFlowOK}:  {"channel.flow-ok", false, func() Method { return &ChannelFlowOKMethod{} }},
	{ClassChannel, ChannelClose}:   {"channel.close", false, func() Method { return &ChannelCloseMethod{} }},
	{ClassChannel, ChannelCloseOK}: {"channel.close-ok", false, func() Method { return &ChannelCloseOKMethod{} }},

	{ClassExchange, ExchangeDeclare}:   {"exchange.declare", false, func() Method { return &ExchangeDeclareMethod{} }},
	{ClassExchange, ExchangeDeclareOK}: {"exchange.declare-ok", false, func() Method { return &ExchangeDeclareOKMethod{} }},
	{ClassExchange, ExchangeDelete}:    {"exchange.delete", false, func() Method { return &ExchangeDeleteMethod{} }},
	{ClassExchange, ExchangeDeleteOK}:  {"exchange.delete-ok", false, func() Method { return &ExchangeDeleteOKMethod{} }},
	{ClassExchange, ExchangeBind}:      {"exchange.bind", false, func() Method { return &ExchangeBindMethod{} }},
	{ClassExchange, ExchangeBindOK}:    {"exchange.bind-ok", false, func() Method { return &ExchangeBindOKMethod{} }},
	{ClassExchange, ExchangeUnbind}:    {"exchange.unbind", false, func() Method { return &ExchangeUnbindMethod{} }},
	{ClassExchange, ExchangeUnbindOK}:  {"exchange.unbind-ok", false, func() Method { return &ExchangeUnbindOKMethod{} }},

	{ClassQueue, QueueDeclare}:   {"queue.declare", false, func() Method { return &QueueDeclareMethod{} }},
	{ClassQueue, QueueDeclareOK}: {"queue.declare-ok", false, func() Method { return &QueueDeclareOKMethod{} }},
	{ClassQueue, QueueBind}:      {"queue.bind", false, func() Method { return &QueueBindMethod{} }},
	{ClassQueue, QueueBindOK}:    {"queue.bind-ok", false, func() Method { return &QueueBindOKMethod{} }},
	{ClassQueue, QueuePurge}:     {"queue.purge", false, func() Method { return &QueuePurgeMethod{} }},
	{ClassQueue, QueuePurgeOK}:   {"queue.purge-ok", false, func() Method { return &QueuePurgeOKMethod{} }},
	{ClassQueue, QueueDelete}:    {"queue.delete", false, func() Method { return &QueueDeleteMethod{} }},
	{ClassQueue, QueueDeleteOK}:  {"queue.delete-ok", false, func() Method { return &QueueDeleteOKMethod{} }},
	{ClassQueue, QueueUnbind}:    {"queue.unbind", false, func() Method { return &QueueUnbindMethod{} }},
	{ClassQueue, QueueUnbindOK}:  {"queue.unbind-ok", false, func() Method { return &QueueUnbindOKMethod{} }},

	{ClassBasic, BasicQos}:          {"basic.qos", false, func() Method { return &BasicQosMethod{} }},
	{ClassBasic, BasicQosOK}:        {"basic.qos-ok", false, func() Method { return &BasicQosOKMethod{} }},
	{ClassBasic, BasicConsume}:      {"basic.consume", false, func() Method { return &BasicConsumeMethod{} }},
	{ClassBasic, BasicConsumeOK}:    {"basic.consume-ok", false, func() Method { return &BasicConsumeOKMethod{} }},
	{ClassBasic, BasicCancel}:       {"basic.cancel", false, func() Method { return &BasicCancelMethod{} }},
	{ClassBasic, BasicCancelOK}:     {"basic.cancel-ok", false, func() Method { return &BasicCancelOKMethod{} }},
	{ClassBasic, BasicPublish}:      {"basic.publish", true, func() Method { return &BasicPublishMethod{} }},
	{ClassBasic, BasicReturn}:       {"basic.return", true, func() Method { return &BasicReturnMethod{} }},
	{ClassBasic, BasicDeliver}:      {"basic.deliver", true, func() Method { return &BasicDeliverMethod{} }},
	{ClassBasic, BasicGet}:          {"basic.get", false, func() Method { return &BasicGetMethod{} }},
	{ClassBasic, BasicGetOK}:        {"basic.get-ok", true, func() Method { return &BasicGetOKMethod{} }},
	{ClassBasic, BasicGetEmpty}:     {"basic.get-empty", false, func() Method { return &BasicGetEmptyMethod{} }},
	{ClassBasic, BasicAck}:          {"basic.ack", false, func() Method { return &BasicAckMethod{} }},
	{ClassBasic, BasicReject}:       {"basic.reject", false, func() Method { return &BasicRejectMethod{} }},
	{ClassBasic, BasicRecoverAsync}: {"basic.recover-async", false, func() Method { return &BasicRecoverAsyncMethod{} }},
	{ClassBasic, BasicRecover}:      {"basic.recover", false, func() Method { return &BasicRecoverMethod{} }},
	{ClassBasic, BasicRecoverOK}:    {"basic.recover-ok", false, func() Method { return &BasicRecoverOKMethod{} }},
	{ClassBasic, BasicNack}:         {"basic.nack", false, func() Method { return &BasicNackMethod{} }},

	{ClassConfirm, ConfirmSelect}:   {"confirm.select", false, func() Method { return &ConfirmSelectMethod{} }},
	{ClassConfirm, ConfirmSelectOK}: {"confirm.select-ok", false, func() Method { return &ConfirmSelectOKMethod{} }},

	{ClassTx, TxSelect}:     {"tx.select", false, func() Method { return &TxSelectMethod{} }},
	{ClassTx, TxSelectOK}:   {"tx.select-ok", false, func() Method { return &TxSelectOKMethod{} }},
	{ClassTx, TxCommit}:     {"tx.commit", false, func() Method { return &TxCommitMethod{} }},
	{ClassTx, TxCommitOK}:   {"tx.commit-ok", false, func() Method { return &TxCommitOKMethod{} }},
	{ClassTx, TxRollback}:   {"tx.rollback", false, func() Method { return &TxRollbackMethod{} }},
	{ClassTx, TxRollbackOK}: {"tx.rollback-ok", false, func() Method { return &TxRollbackOKMethod{} }},
}

// MethodName returns the dotted protocol name, e.g. "queue.declare-ok".
func MethodName(m Method) string {
	return m.Key().String()
}

// HasContent reports whether the method is followed by a content header
// and body frames.
func HasContent(m Method) bool {
	return methodRegistry[m.Key()].content
}

// EncodeMethod encodes class id, method id and arguments.
func EncodeMethod(m Method) ([]byte, error) {
	args, err := m.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", MethodName(m), err)
	}
	key := m.Key()
	payload := make([]byte, 4+len(args))
	binary.BigEndian.PutUint16(payload[0:2], key.Class)
	binary.BigEndian.PutUint16(payload[2:4], key.Method)
	copy(payload[4:], args)
	return payload, nil
}

// DecodeMethod decodes a method frame payload.
func DecodeMethod(payload []byte) (Method, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("method payload too short: %d bytes", len(payload))
	}
	key := MethodKey{
		Class:  binary.BigEndian.Uint16(payload[0:2]),
		Method: binary.BigEndian.Uint16(payload[2:4]),
	}
	spec, ok := methodRegistry[key]
	if !ok {
		return nil, &UnknownMethodError{Key: key}
	}
	m := spec.new()
	if err := m.Deserialize(payload[4:]); err != nil {
		return nil, fmt.Errorf("deserialize %s: %w", spec.name, err)
	}
	return m, nil
}

// UnknownMethodError is returned for class/method pairs outside AMQP 0-9-1.
type UnknownMethodError struct {
	Key MethodKey
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %d.%d", e.Key.Class, e.Key.Method)
}

func serializeArgs(write func(w *argWriter)) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)
	w := newArgWriter(buf)
	write(w)
	if err := w.finish(); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func deserializeArgs(data []byte, read func(r *argReader)) error {
	r := newArgReader(data)
	read(r)
	return r.err
}

func noArgs(*argWriter) {}

func readNoArgs(*argReader) {}

// Connection class

// ConnectionStartMethod represents the connection.start method
type ConnectionStartMethod struct {
	VersionMajor     byte
	VersionMinor     byte
	ServerProperties Table
	Mechanisms       string
	Locales          string
}

func (m *ConnectionStartMethod) Key() MethodKey { return MethodKey{ClassConnection, ConnectionStart} }
func (m *ConnectionStartMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.octet(m.VersionMajor)
		w.octet(m.VersionMinor)
		w.table(m.ServerProperties)
		w.longstr([]byte(m.Mechanisms))
		w.longstr([]byte(m.Locales))
	})
}
func (m *ConnectionStartMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.VersionMajor = r.octet()
		m.VersionMinor = r.octet()
		m.ServerProperties = r.table()
		m.Mechanisms = string(r.longstr())
		m.Locales = string(r.longstr())
	})
}

// ConnectionStartOKMethod represents the connection.start-ok method
type ConnectionStartOKMethod struct {
	ClientProperties Table
	Mechanism        string
	Response         []byte
	Locale           string
}

func (m *ConnectionStartOKMethod) Key() MethodKey {
	return MethodKey{ClassConnection, ConnectionStartOK}
}
func (m *ConnectionStartOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.table(m.ClientProperties)
		w.shortstr(m.Mechanism)
		w.longstr(m.Response)
		w.shortstr(m.Locale)
	})
}
func (m *ConnectionStartOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.ClientProperties = r.table()
		m.Mechanism = r.shortstr()
		m.Response = r.longstr()
		m.Locale = r.shortstr()
	})
}

// ConnectionSecureMethod represents the connection.secure method
type ConnectionSecureMethod struct {
	Challenge []byte
}

func (m *ConnectionSecureMethod) Key() MethodKey { return MethodKey{ClassConnection, ConnectionSecure} }
func (m *ConnectionSecureMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.longstr(m.Challenge) })
}
func (m *ConnectionSecureMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Challenge = r.longstr() })
}

// ConnectionSecureOKMethod represents the connection.secure-ok method
type ConnectionSecureOKMethod struct {
	Response []byte
}

func (m *ConnectionSecureOKMethod) Key() MethodKey {
	return MethodKey{ClassConnection, ConnectionSecureOK}
}
func (m *ConnectionSecureOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.longstr(m.Response) })
}
func (m *ConnectionSecureOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Response = r.longstr() })
}

// ConnectionTuneMethod represents the connection.tune method
type ConnectionTuneMethod struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (m *ConnectionTuneMethod) Key() MethodKey { return MethodKey{ClassConnection, ConnectionTune} }
func (m *ConnectionTuneMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.ChannelMax)
		w.long(m.FrameMax)
		w.short(m.Heartbeat)
	})
}
func (m *ConnectionTuneMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.ChannelMax = r.short()
		m.FrameMax = r.long()
		m.Heartbeat = r.short()
	})
}

// ConnectionTuneOKMethod represents the connection.tune-ok method
type ConnectionTuneOKMethod struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (m *ConnectionTuneOKMethod) Key() MethodKey { return MethodKey{ClassConnection, ConnectionTuneOK} }
func (m *ConnectionTuneOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.ChannelMax)
		w.long(m.FrameMax)
		w.short(m.Heartbeat)
	})
}
func (m *ConnectionTuneOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.ChannelMax = r.short()
		m.FrameMax = r.long()
		m.Heartbeat = r.short()
	})
}

// ConnectionOpenMethod represents the connection.open method
type ConnectionOpenMethod struct {
	VirtualHost string
	Reserved1   string
	Reserved2   bool
}

func (m *ConnectionOpenMethod) Key() MethodKey { return MethodKey{ClassConnection, ConnectionOpen} }
func (m *ConnectionOpenMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.shortstr(m.VirtualHost)
		w.shortstr(m.Reserved1)
		w.bit(m.Reserved2)
	})
}
func (m *ConnectionOpenMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.VirtualHost = r.shortstr()
		m.Reserved1 = r.shortstr()
		m.Reserved2 = r.bit()
	})
}

// ConnectionOpenOKMethod represents the connection.open-ok method
type ConnectionOpenOKMethod struct {
	Reserved1 string
}

func (m *ConnectionOpenOKMethod) Key() MethodKey { return MethodKey{ClassConnection, ConnectionOpenOK} }
func (m *ConnectionOpenOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.shortstr(m.Reserved1) })
}
func (m *ConnectionOpenOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Reserved1 = r.shortstr() })
}

// ConnectionCloseMethod represents the connection.close method
type ConnectionCloseMethod struct {
	ReplyCode uint16
	ReplyText string
	ClassID   uint16
	MethodID  uint16
}

func (m *ConnectionCloseMethod) Key() MethodKey { return MethodKey{ClassConnection, ConnectionClose} }
func (m *ConnectionCloseMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.ReplyCode)
		w.shortstr(m.ReplyText)
		w.short(m.ClassID)
		w.short(m.MethodID)
	})
}
func (m *ConnectionCloseMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.ReplyCode = r.short()
		m.ReplyText = r.shortstr()
		m.ClassID = r.short()
		m.MethodID = r.short()
	})
}

// ConnectionCloseOKMethod represents the connection.close-ok method
type ConnectionCloseOKMethod struct{}

func (m *ConnectionCloseOKMethod) Key() MethodKey {
	return MethodKey{ClassConnection, ConnectionCloseOK}
}
func (m *ConnectionCloseOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *ConnectionCloseOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// ConnectionBlockedMethod represents the connection.blocked method
type ConnectionBlockedMethod struct {
	Reason string
}

func (m *ConnectionBlockedMethod) Key() MethodKey {
	return MethodKey{ClassConnection, ConnectionBlocked}
}
func (m *ConnectionBlockedMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.shortstr(m.Reason) })
}
func (m *ConnectionBlockedMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Reason = r.shortstr() })
}

// ConnectionUnblockedMethod represents the connection.unblocked method
type ConnectionUnblockedMethod struct{}

func (m *ConnectionUnblockedMethod) Key() MethodKey {
	return MethodKey{ClassConnection, ConnectionUnblocked}
}
func (m *ConnectionUnblockedMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *ConnectionUnblockedMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// Channel class

// ChannelOpenMethod represents the channel.open method
type ChannelOpenMethod struct {
	Reserved1 string
}

func (m *ChannelOpenMethod) Key() MethodKey { return MethodKey{ClassChannel, ChannelOpen} }
func (m *ChannelOpenMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.shortstr(m.Reserved1) })
}
func (m *ChannelOpenMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Reserved1 = r.shortstr() })
}

// ChannelOpenOKMethod represents the channel.open-ok method
type ChannelOpenOKMethod struct {
	Reserved1 []byte
}

func (m *ChannelOpenOKMethod) Key() MethodKey { return MethodKey{ClassChannel, ChannelOpenOK} }
func (m *ChannelOpenOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.longstr(m.Reserved1) })
}
func (m *ChannelOpenOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Reserved1 = r.longstr() })
}

// ChannelFlowMethod represents the channel.flow method
type ChannelFlowMethod struct {
	Active bool
}

func (m *ChannelFlowMethod) Key() MethodKey { return MethodKey{ClassChannel, ChannelFlow} }
func (m *ChannelFlowMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.bit(m.Active) })
}
func (m *ChannelFlowMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Active = r.bit() })
}

// ChannelFlowOKMethod represents the channel.flow-ok method
type ChannelFlowOKMethod struct {
	Active bool
}

func (m *ChannelFlowOKMethod) Key() MethodKey { return MethodKey{ClassChannel, ChannelFlowOK} }
func (m *ChannelFlowOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.bit(m.Active) })
}
func (m *ChannelFlowOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Active = r.bit() })
}

// ChannelCloseMethod represents the channel.close method
type ChannelCloseMethod struct {
	ReplyCode uint16
	ReplyText string
	ClassID   uint16
	MethodID  uint16
}

func (m *ChannelCloseMethod) Key() MethodKey { return MethodKey{ClassChannel, ChannelClose} }
func (m *ChannelCloseMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.ReplyCode)
		w.shortstr(m.ReplyText)
		w.short(m.ClassID)
		w.short(m.MethodID)
	})
}
func (m *ChannelCloseMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.ReplyCode = r.short()
		m.ReplyText = r.shortstr()
		m.ClassID = r.short()
		m.MethodID = r.short()
	})
}

// ChannelCloseOKMethod represents the channel.close-ok method
type ChannelCloseOKMethod struct{}

func (m *ChannelCloseOKMethod) Key() MethodKey             { return MethodKey{ClassChannel, ChannelCloseOK} }
func (m *ChannelCloseOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *ChannelCloseOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// Exchange class

// ExchangeDeclareMethod represents the exchange.declare method
type ExchangeDeclareMethod struct {
	Reserved1  uint16
	Exchange   string
	Type       string
	Passive    bool
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  Table
}

func (m *ExchangeDeclareMethod) Key() MethodKey { return MethodKey{ClassExchange, ExchangeDeclare} }
func (m *ExchangeDeclareMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Exchange)
		w.shortstr(m.Type)
		w.bit(m.Passive)
		w.bit(m.Durable)
		w.bit(m.AutoDelete)
		w.bit(m.Internal)
		w.bit(m.NoWait)
		w.table(m.Arguments)
	})
}
func (m *ExchangeDeclareMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Exchange = r.shortstr()
		m.Type = r.shortstr()
		m.Passive = r.bit()
		m.Durable = r.bit()
		m.AutoDelete = r.bit()
		m.Internal = r.bit()
		m.NoWait = r.bit()
		m.Arguments = r.table()
	})
}

// ExchangeDeclareOKMethod represents the exchange.declare-ok method
type ExchangeDeclareOKMethod struct{}

func (m *ExchangeDeclareOKMethod) Key() MethodKey             { return MethodKey{ClassExchange, ExchangeDeclareOK} }
func (m *ExchangeDeclareOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *ExchangeDeclareOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// ExchangeDeleteMethod represents the exchange.delete method
type ExchangeDeleteMethod struct {
	Reserved1 uint16
	Exchange  string
	IfUnused  bool
	NoWait    bool
}

func (m *ExchangeDeleteMethod) Key() MethodKey { return MethodKey{ClassExchange, ExchangeDelete} }
func (m *ExchangeDeleteMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Exchange)
		w.bit(m.IfUnused)
		w.bit(m.NoWait)
	})
}
func (m *ExchangeDeleteMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Exchange = r.shortstr()
		m.IfUnused = r.bit()
		m.NoWait = r.bit()
	})
}

// ExchangeDeleteOKMethod represents the exchange.delete-ok method
type ExchangeDeleteOKMethod struct{}

func (m *ExchangeDeleteOKMethod) Key() MethodKey             { return MethodKey{ClassExchange, ExchangeDeleteOK} }
func (m *ExchangeDeleteOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *ExchangeDeleteOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// ExchangeBindMethod represents the exchange.bind method
type ExchangeBindMethod struct {
	Reserved1   uint16
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (m *ExchangeBindMethod) Key() MethodKey { return MethodKey{ClassExchange, ExchangeBind} }
func (m *ExchangeBindMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Destination)
		w.shortstr(m.Source)
		w.shortstr(m.RoutingKey)
		w.bit(m.NoWait)
		w.table(m.Arguments)
	})
}
func (m *ExchangeBindMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Destination = r.shortstr()
		m.Source = r.shortstr()
		m.RoutingKey = r.shortstr()
		m.NoWait = r.bit()
		m.Arguments = r.table()
	})
}

// ExchangeBindOKMethod represents the exchange.bind-ok method
type ExchangeBindOKMethod struct{}

func (m *ExchangeBindOKMethod) Key() MethodKey             { return MethodKey{ClassExchange, ExchangeBindOK} }
func (m *ExchangeBindOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *ExchangeBindOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// ExchangeUnbindMethod represents the exchange.unbind method
type ExchangeUnbindMethod struct {
	Reserved1   uint16
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (m *ExchangeUnbindMethod) Key() MethodKey { return MethodKey{ClassExchange, ExchangeUnbind} }
func (m *ExchangeUnbindMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Destination)
		w.shortstr(m.Source)
		w.shortstr(m.RoutingKey)
		w.bit(m.NoWait)
		w.table(m.Arguments)
	})
}
func (m *ExchangeUnbindMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Destination = r.shortstr()
		m.Source = r.shortstr()
		m.RoutingKey = r.shortstr()
		m.NoWait = r.bit()
		m.Arguments = r.table()
	})
}

// ExchangeUnbindOKMethod represents the exchange.unbind-ok method
type ExchangeUnbindOKMethod struct{}

func (m *ExchangeUnbindOKMethod) Key() MethodKey             { return MethodKey{ClassExchange, ExchangeUnbindOK} }
func (m *ExchangeUnbindOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *ExchangeUnbindOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// Queue class

// QueueDeclareMethod represents the queue.declare method
type QueueDeclareMethod struct {
	Reserved1  uint16
	Queue      string
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  Table
}

func (m *QueueDeclareMethod) Key() MethodKey { return MethodKey{ClassQueue, QueueDeclare} }
func (m *QueueDeclareMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Queue)
		w.bit(m.Passive)
		w.bit(m.Durable)
		w.bit(m.Exclusive)
		w.bit(m.AutoDelete)
		w.bit(m.NoWait)
		w.table(m.Arguments)
	})
}
func (m *QueueDeclareMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Queue = r.shortstr()
		m.Passive = r.bit()
		m.Durable = r.bit()
		m.Exclusive = r.bit()
		m.AutoDelete = r.bit()
		m.NoWait = r.bit()
		m.Arguments = r.table()
	})
}

// QueueDeclareOKMethod represents the queue.declare-ok method
type QueueDeclareOKMethod struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

func (m *QueueDeclareOKMethod) Key() MethodKey { return MethodKey{ClassQueue, QueueDeclareOK} }
func (m *QueueDeclareOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.shortstr(m.Queue)
		w.long(m.MessageCount)
		w.long(m.ConsumerCount)
	})
}
func (m *QueueDeclareOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Queue = r.shortstr()
		m.MessageCount = r.long()
		m.ConsumerCount = r.long()
	})
}

// QueueBindMethod represents the queue.bind method
type QueueBindMethod struct {
	Reserved1  uint16
	Queue      string
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  Table
}

func (m *QueueBindMethod) Key() MethodKey { return MethodKey{ClassQueue, QueueBind} }
func (m *QueueBindMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Queue)
		w.shortstr(m.Exchange)
		w.shortstr(m.RoutingKey)
		w.bit(m.NoWait)
		w.table(m.Arguments)
	})
}
func (m *QueueBindMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Queue = r.shortstr()
		m.Exchange = r.shortstr()
		m.RoutingKey = r.shortstr()
		m.NoWait = r.bit()
		m.Arguments = r.table()
	})
}

// QueueBindOKMethod represents the queue.bind-ok method
type QueueBindOKMethod struct{}

func (m *QueueBindOKMethod) Key() MethodKey                { return MethodKey{ClassQueue, QueueBindOK} }
func (m *QueueBindOKMethod) Serialize() ([]byte, error)    { return serializeArgs(noArgs) }
func (m *QueueBindOKMethod) Deserialize(data []byte) error { return deserializeArgs(data, readNoArgs) }

// QueuePurgeMethod represents the queue.purge method
type QueuePurgeMethod struct {
	Reserved1 uint16
	Queue     string
	NoWait    bool
}

func (m *QueuePurgeMethod) Key() MethodKey { return MethodKey{ClassQueue, QueuePurge} }
func (m *QueuePurgeMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Queue)
		w.bit(m.NoWait)
	})
}
func (m *QueuePurgeMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Queue = r.shortstr()
		m.NoWait = r.bit()
	})
}

// QueuePurgeOKMethod represents the queue.purge-ok method
type QueuePurgeOKMethod struct {
	MessageCount uint32
}

func (m *QueuePurgeOKMethod) Key() MethodKey { return MethodKey{ClassQueue, QueuePurgeOK} }
func (m *QueuePurgeOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.long(m.MessageCount) })
}
func (m *QueuePurgeOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.MessageCount = r.long() })
}

// QueueDeleteMethod represents the queue.delete method
type QueueDeleteMethod struct {
	Reserved1 uint16
	Queue     string
	IfUnused  bool
	IfEmpty   bool
	NoWait    bool
}

func (m *QueueDeleteMethod) Key() MethodKey { return MethodKey{ClassQueue, QueueDelete} }
func (m *QueueDeleteMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Queue)
		w.bit(m.IfUnused)
		w.bit(m.IfEmpty)
		w.bit(m.NoWait)
	})
}
func (m *QueueDeleteMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Queue = r.shortstr()
		m.IfUnused = r.bit()
		m.IfEmpty = r.bit()
		m.NoWait = r.bit()
	})
}

// QueueDeleteOKMethod represents the queue.delete-ok method
type QueueDeleteOKMethod struct {
	MessageCount uint32
}

func (m *QueueDeleteOKMethod) Key() MethodKey { return MethodKey{ClassQueue, QueueDeleteOK} }
func (m *QueueDeleteOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.long(m.MessageCount) })
}
func (m *QueueDeleteOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.MessageCount = r.long() })
}

// QueueUnbindMethod represents the queue.unbind method
type QueueUnbindMethod struct {
	Reserved1  uint16
	Queue      string
	Exchange   string
	RoutingKey string
	Arguments  Table
}

func (m *QueueUnbindMethod) Key() MethodKey { return MethodKey{ClassQueue, QueueUnbind} }
func (m *QueueUnbindMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Queue)
		w.shortstr(m.Exchange)
		w.shortstr(m.RoutingKey)
		w.table(m.Arguments)
	})
}
func (m *QueueUnbindMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Queue = r.shortstr()
		m.Exchange = r.shortstr()
		m.RoutingKey = r.shortstr()
		m.Arguments = r.table()
	})
}

// QueueUnbindOKMethod represents the queue.unbind-ok method
type QueueUnbindOKMethod struct{}

func (m *QueueUnbindOKMethod) Key() MethodKey             { return MethodKey{ClassQueue, QueueUnbindOK} }
func (m *QueueUnbindOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *QueueUnbindOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// Basic class

// BasicQosMethod represents the basic.qos method
type BasicQosMethod struct {
	PrefetchSize  uint32
	PrefetchCount uint16
	Global        bool
}

func (m *BasicQosMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicQos} }
func (m *BasicQosMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.long(m.PrefetchSize)
		w.short(m.PrefetchCount)
		w.bit(m.Global)
	})
}
func (m *BasicQosMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.PrefetchSize = r.long()
		m.PrefetchCount = r.short()
		m.Global = r.bit()
	})
}

// BasicQosOKMethod represents the basic.qos-ok method
type BasicQosOKMethod struct{}

func (m *BasicQosOKMethod) Key() MethodKey                { return MethodKey{ClassBasic, BasicQosOK} }
func (m *BasicQosOKMethod) Serialize() ([]byte, error)    { return serializeArgs(noArgs) }
func (m *BasicQosOKMethod) Deserialize(data []byte) error { return deserializeArgs(data, readNoArgs) }

// BasicConsumeMethod represents the basic.consume method
type BasicConsumeMethod struct {
	Reserved1   uint16
	Queue       string
	ConsumerTag string
	NoLocal     bool
	NoAck       bool
	Exclusive   bool
	NoWait      bool
	Arguments   Table
}

func (m *BasicConsumeMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicConsume} }
func (m *BasicConsumeMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Queue)
		w.shortstr(m.ConsumerTag)
		w.bit(m.NoLocal)
		w.bit(m.NoAck)
		w.bit(m.Exclusive)
		w.bit(m.NoWait)
		w.table(m.Arguments)
	})
}
func (m *BasicConsumeMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Queue = r.shortstr()
		m.ConsumerTag = r.shortstr()
		m.NoLocal = r.bit()
		m.NoAck = r.bit()
		m.Exclusive = r.bit()
		m.NoWait = r.bit()
		m.Arguments = r.table()
	})
}

// BasicConsumeOKMethod represents the basic.consume-ok method
type BasicConsumeOKMethod struct {
	ConsumerTag string
}

func (m *BasicConsumeOKMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicConsumeOK} }
func (m *BasicConsumeOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.shortstr(m.ConsumerTag) })
}
func (m *BasicConsumeOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.ConsumerTag = r.shortstr() })
}

// BasicCancelMethod represents the basic.cancel method. The broker sends it
// too when a queue being consumed from is deleted.
type BasicCancelMethod struct {
	ConsumerTag string
	NoWait      bool
}

func (m *BasicCancelMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicCancel} }
func (m *BasicCancelMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.shortstr(m.ConsumerTag)
		w.bit(m.NoWait)
	})
}
func (m *BasicCancelMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.ConsumerTag = r.shortstr()
		m.NoWait = r.bit()
	})
}

// BasicCancelOKMethod represents the basic.cancel-ok method
type BasicCancelOKMethod struct {
	ConsumerTag string
}

func (m *BasicCancelOKMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicCancelOK} }
func (m *BasicCancelOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.shortstr(m.ConsumerTag) })
}
func (m *BasicCancelOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.ConsumerTag = r.shortstr() })
}

// BasicPublishMethod represents the basic.publish method
type BasicPublishMethod struct {
	Reserved1  uint16
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

func (m *BasicPublishMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicPublish} }
func (m *BasicPublishMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Exchange)
		w.shortstr(m.RoutingKey)
		w.bit(m.Mandatory)
		w.bit(m.Immediate)
	})
}
func (m *BasicPublishMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Exchange = r.shortstr()
		m.RoutingKey = r.shortstr()
		m.Mandatory = r.bit()
		m.Immediate = r.bit()
	})
}

// BasicReturnMethod represents the basic.return method
type BasicReturnMethod struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func (m *BasicReturnMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicReturn} }
func (m *BasicReturnMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.ReplyCode)
		w.shortstr(m.ReplyText)
		w.shortstr(m.Exchange)
		w.shortstr(m.RoutingKey)
	})
}
func (m *BasicReturnMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.ReplyCode = r.short()
		m.ReplyText = r.shortstr()
		m.Exchange = r.shortstr()
		m.RoutingKey = r.shortstr()
	})
}

// BasicDeliverMethod represents the basic.deliver method
type BasicDeliverMethod struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

func (m *BasicDeliverMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicDeliver} }
func (m *BasicDeliverMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.shortstr(m.ConsumerTag)
		w.longlong(m.DeliveryTag)
		w.bit(m.Redelivered)
		w.shortstr(m.Exchange)
		w.shortstr(m.RoutingKey)
	})
}
func (m *BasicDeliverMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.ConsumerTag = r.shortstr()
		m.DeliveryTag = r.longlong()
		m.Redelivered = r.bit()
		m.Exchange = r.shortstr()
		m.RoutingKey = r.shortstr()
	})
}

// BasicGetMethod represents the basic.get method
type BasicGetMethod struct {
	Reserved1 uint16
	Queue     string
	NoAck     bool
}

func (m *BasicGetMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicGet} }
func (m *BasicGetMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.short(m.Reserved1)
		w.shortstr(m.Queue)
		w.bit(m.NoAck)
	})
}
func (m *BasicGetMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.Reserved1 = r.short()
		m.Queue = r.shortstr()
		m.NoAck = r.bit()
	})
}

// BasicGetOKMethod represents the basic.get-ok method
type BasicGetOKMethod struct {
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32
}

func (m *BasicGetOKMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicGetOK} }
func (m *BasicGetOKMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.longlong(m.DeliveryTag)
		w.bit(m.Redelivered)
		w.shortstr(m.Exchange)
		w.shortstr(m.RoutingKey)
		w.long(m.MessageCount)
	})
}
func (m *BasicGetOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.DeliveryTag = r.longlong()
		m.Redelivered = r.bit()
		m.Exchange = r.shortstr()
		m.RoutingKey = r.shortstr()
		m.MessageCount = r.long()
	})
}

// BasicGetEmptyMethod represents the basic.get-empty method
type BasicGetEmptyMethod struct {
	Reserved1 string
}

func (m *BasicGetEmptyMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicGetEmpty} }
func (m *BasicGetEmptyMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.shortstr(m.Reserved1) })
}
func (m *BasicGetEmptyMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Reserved1 = r.shortstr() })
}

// BasicAckMethod represents the basic.ack method
type BasicAckMethod struct {
	DeliveryTag uint64
	Multiple    bool
}

func (m *BasicAckMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicAck} }
func (m *BasicAckMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.longlong(m.DeliveryTag)
		w.bit(m.Multiple)
	})
}
func (m *BasicAckMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.DeliveryTag = r.longlong()
		m.Multiple = r.bit()
	})
}

// BasicRejectMethod represents the basic.reject method
type BasicRejectMethod struct {
	DeliveryTag uint64
	Requeue     bool
}

func (m *BasicRejectMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicReject} }
func (m *BasicRejectMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.longlong(m.DeliveryTag)
		w.bit(m.Requeue)
	})
}
func (m *BasicRejectMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.DeliveryTag = r.longlong()
		m.Requeue = r.bit()
	})
}

// BasicRecoverAsyncMethod represents the deprecated basic.recover-async method
type BasicRecoverAsyncMethod struct {
	Requeue bool
}

func (m *BasicRecoverAsyncMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicRecoverAsync} }
func (m *BasicRecoverAsyncMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.bit(m.Requeue) })
}
func (m *BasicRecoverAsyncMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Requeue = r.bit() })
}

// BasicRecoverMethod represents the basic.recover method
type BasicRecoverMethod struct {
	Requeue bool
}

func (m *BasicRecoverMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicRecover} }
func (m *BasicRecoverMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.bit(m.Requeue) })
}
func (m *BasicRecoverMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.Requeue = r.bit() })
}

// BasicRecoverOKMethod represents the basic.recover-ok method
type BasicRecoverOKMethod struct{}

func (m *BasicRecoverOKMethod) Key() MethodKey             { return MethodKey{ClassBasic, BasicRecoverOK} }
func (m *BasicRecoverOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *BasicRecoverOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// BasicNackMethod represents the basic.nack method
type BasicNackMethod struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (m *BasicNackMethod) Key() MethodKey { return MethodKey{ClassBasic, BasicNack} }
func (m *BasicNackMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) {
		w.longlong(m.DeliveryTag)
		w.bit(m.Multiple)
		w.bit(m.Requeue)
	})
}
func (m *BasicNackMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) {
		m.DeliveryTag = r.longlong()
		m.Multiple = r.bit()
		m.Requeue = r.bit()
	})
}

// Confirm class

// ConfirmSelectMethod represents the confirm.select method
type ConfirmSelectMethod struct {
	NoWait bool
}

func (m *ConfirmSelectMethod) Key() MethodKey { return MethodKey{ClassConfirm, ConfirmSelect} }
func (m *ConfirmSelectMethod) Serialize() ([]byte, error) {
	return serializeArgs(func(w *argWriter) { w.bit(m.NoWait) })
}
func (m *ConfirmSelectMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, func(r *argReader) { m.NoWait = r.bit() })
}

// ConfirmSelectOKMethod represents the confirm.select-ok method
type ConfirmSelectOKMethod struct{}

func (m *ConfirmSelectOKMethod) Key() MethodKey             { return MethodKey{ClassConfirm, ConfirmSelectOK} }
func (m *ConfirmSelectOKMethod) Serialize() ([]byte, error) { return serializeArgs(noArgs) }
func (m *ConfirmSelectOKMethod) Deserialize(data []byte) error {
	return deserializeArgs(data, readNoArgs)
}

// Tx class

// TxSelectMethod represents the tx.select method
type TxSelectMethod struct{}

func (m *TxSelectMethod) Key() MethodKey                { return MethodKey{ClassTx, TxSelect} }
func (m *TxSelectMethod) Serialize() ([]byte, error)    { return serializeArgs(noArgs) }
func (m *TxSelectMethod) Deserialize(data []byte) error { return deserializeArgs(data, readNoArgs) }

// TxSelectOKMethod represents the tx.select-ok method
type TxSelectOKMethod struct{}

func (m *TxSelectOKMethod) Key() MethodKey                { return MethodKey{ClassTx, TxSelectOK} }
func (m *TxSelectOKMethod) Serialize() ([]byte, error)    { return serializeArgs(noArgs) }
func (m *TxSelectOKMethod) Deserialize(data []byte) error { return deserializeArgs(data, readNoArgs) }

// TxCommitMethod represents the tx.commit method
type TxCommitMethod struct{}

func (m *TxCommitMethod) Key() MethodKey                { return MethodKey{ClassTx, TxCommit} }
func (m *TxCommitMethod) Serialize() ([]byte, error)    { return serializeArgs(noArgs) }
func (m *TxCommitMethod) Deserialize(data []byte) error { return deserializeArgs(data, readNoArgs) }

// TxCommitOKMethod represents the tx.commit-ok method
type TxCommitOKMethod struct{}

func (m *TxCommitOKMethod) Key() MethodKey                { return MethodKey{ClassTx, TxCommitOK} }
func (m *TxCommitOKMethod) Serialize() ([]byte, error)    { return serializeArgs(noArgs) }
func (m *TxCommitOKMethod) Deserialize(data []byte) error { return deserializeArgs(data, readNoArgs) }

// TxRollbackMethod represents the tx.rollback method
type TxRollbackMethod struct{}

func (m *TxRollbackMethod) Key() MethodKey                { return MethodKey{ClassTx, TxRollback} }
func (m *TxRollbackMethod) Serialize() ([]byte, error)    { return serializeArgs(noArgs) }
func (m *TxRollbackMethod) Deserialize(data []byte) error { return deserializeArgs(data, readNoArgs) }

// TxRollbackOKMethod represents the tx.rollback-ok method
type TxRollbackOKMethod struct{}

func (m *TxRollbackOKMethod) Key() MethodKey                { return MethodKey{ClassTx, TxRollbackOK} }
func (m *TxRollbackOKMethod) Serialize() ([]byte, error)    { return serializeArgs(noArgs) }
func (m *TxRollbackOKMethod) Deserialize(data []byte) error { return deserializeArgs(data, readNoArgs) }
