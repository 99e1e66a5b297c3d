package rpc

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/digitalnomadru/bunny/client"
	"github.com/digitalnomadru/bunny/codec"
	"github.com/digitalnomadru/bunny/protocol"
)

// Handler answers one request. The returned headers are sent with the
// reply; a returned error is sent back in the error header instead.
type Handler func(ctx context.Context, req *client.Message) (body []byte, headers protocol.Table, err error)

// Server consumes requests from a queue and publishes each handler result
// to the request's reply-to address.
type Server struct {
	ch      *client.Channel
	queue   string
	handler Handler
	logger  *zap.Logger

	ctx         context.Context
	consumerTag string
	handled     int
}

// NewServer creates a server for queue on ch. The queue must exist.
func NewServer(ch *client.Channel, queue string, handler Handler, opts ...Option) *Server {
	o := newOptions(ch, opts)
	return &Server{
		ch:      ch,
		queue:   queue,
		handler: handler,
		logger: o.logger.With(
			zap.Uint16("channel_id", ch.ID()),
			zap.String("queue", queue)),
	}
}

// Handled returns the number of requests answered so far.
func (s *Server) Handled() int { return s.handled }

// ConsumerTag returns the tag of the request consumer, empty before Start.
func (s *Server) ConsumerTag() string { return s.consumerTag }

// Start begins consuming requests. Handlers run whenever the client's frame
// loop runs; ctx is passed to them.
func (s *Server) Start(ctx context.Context) error {
	if s.consumerTag != "" {
		return nil
	}
	s.ctx = ctx
	tag, err := s.ch.Consume(ctx, s.onRequest, s.queue, "", 0, nil)
	if err != nil {
		return fmt.Errorf("rpc: consume %s: %w", s.queue, err)
	}
	s.consumerTag = tag
	s.logger.Info("RPC server started", zap.String("consumer_tag", tag))
	return nil
}

// Serve starts the server if needed and runs the client until ctx ends or
// the connection fails.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return s.ch.Client().Run(ctx, 0)
}

// Stop cancels the request consumer.
func (s *Server) Stop(ctx context.Context) error {
	if s.consumerTag == "" {
		return nil
	}
	tag := s.consumerTag
	s.consumerTag = ""
	s.logger.Info("RPC server stopping", zap.String("consumer_tag", tag), zap.Int("handled", s.handled))
	return s.ch.Cancel(ctx, tag, false)
}

func (s *Server) onRequest(msg *client.Message, ch *client.Channel, _ *client.Client) {
	log := s.logger.With(
		zap.Uint64("delivery_tag", msg.DeliveryTag()),
		zap.String("correlation_id", msg.CorrelationID()))

	replyTo := msg.ReplyTo()
	if replyTo == "" {
		log.Warn("Dropping request without reply-to")
		s.ack(ch, msg, log)
		return
	}

	body, headers, err := s.handler(s.ctx, msg)
	reply := headers.Clone()
	if reply == nil {
		reply = protocol.Table{}
	}
	if err != nil {
		log.Debug("Handler failed", zap.Error(err))
		body = nil
		reply = protocol.Table{HeaderError: err.Error()}
	}
	if id := msg.CorrelationID(); id != "" {
		reply[protocol.HeaderCorrelationID] = id
	}

	if _, err := ch.Publish(body, reply, "", replyTo, false, false); err != nil {
		log.Error("Failed to publish reply", zap.Error(err))
		return
	}
	s.handled++
	s.ack(ch, msg, log)
}

func (s *Server) ack(ch *client.Channel, msg *client.Message, log *zap.Logger) {
	if err := ch.Ack(msg, false); err != nil {
		log.Error("Failed to ack request", zap.Error(err))
	}
}

// Handle adapts a typed function to a Handler. Requests are decoded by
// their content type, falling back to def; replies are encoded with def.
func Handle[Req, Resp any](def codec.Codec, fn func(ctx context.Context, req Req) (Resp, error)) Handler {
	return func(ctx context.Context, msg *client.Message) ([]byte, protocol.Table, error) {
		dec, err := decoderFor(msg, def)
		if err != nil {
			return nil, nil, err
		}
		var req Req
		if err := dec.Unmarshal(msg.Content(), &req); err != nil {
			return nil, nil, fmt.Errorf("decode request: %w", err)
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		body, err := def.Marshal(resp)
		if err != nil {
			return nil, nil, fmt.Errorf("encode reply: %w", err)
		}
		return body, protocol.Table{protocol.HeaderContentType: def.ContentType()}, nil
	}
}
