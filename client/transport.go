package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/interfaces"
)

// Transport is the byte stream a Client speaks AMQP over. Any net.Conn
// satisfies it. A read that hits the read deadline means no data yet.
type Transport interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer opens a transport to the broker.
type Dialer func(ctx context.Context) (Transport, error)

// NewDialer returns a Dialer for the TCP or TLS endpoint in cfg.
func NewDialer(cfg interfaces.ConnectionConfig) Dialer {
	return func(ctx context.Context) (Transport, error) {
		return DialTransport(ctx, cfg)
	}
}

// DialTransport connects to cfg.Host:cfg.Port, wrapping the socket in TLS
// when enabled.
func DialTransport(ctx context.Context, cfg interfaces.ConnectionConfig) (Transport, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectionTimeout,
		KeepAlive: 30 * time.Second,
	}

	var conn net.Conn
	var err error
	if cfg.TLSEnabled {
		tlsConfig, tlsErr := buildTLSConfig(cfg)
		if tlsErr != nil {
			return nil, tlsErr
		}
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, amqperrors.NewTransportError("", "dial "+addr, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
		if cfg.ReadBufferSize > 0 {
			_ = tcp.SetReadBuffer(cfg.ReadBufferSize)
		}
		if cfg.WriteBufferSize > 0 {
			_ = tcp.SetWriteBuffer(cfg.WriteBufferSize)
		}
	}
	return conn, nil
}

func buildTLSConfig(cfg interfaces.ConnectionConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		ServerName: cfg.TLSServerName,
		MinVersion: tls.VersionTLS12,
	}
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = cfg.Host
	}

	if cfg.TLSCAFile != "" {
		pem, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, amqperrors.NewConfigError("failed to read CA file", "connection", "tls_ca_file", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, amqperrors.NewConfigValidationError("connection", "tls_ca_file", "no certificates found")
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.TLSCertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, amqperrors.NewConfigError("failed to load client certificate", "connection", "tls_cert_file", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// isTimeout reports whether a read stopped at its deadline.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// pastDeadline interrupts a blocked read immediately.
var pastDeadline = time.Unix(1, 0)

func describeTransport(t Transport) string {
	if conn, ok := t.(net.Conn); ok && conn.RemoteAddr() != nil {
		return fmt.Sprintf("%s->%s", conn.LocalAddr(), conn.RemoteAddr())
	}
	return fmt.Sprintf("%T", t)
}
