package pushchannel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS transport
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "auction"
	AuctionID     string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "auction",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Subject returns <prefix>.<auction_id>.<event>
func (c NATSConfig) Subject(event string) string {
	return fmt.Sprintf("%s.%s.%s", c.SubjectPrefix, subjectToken(c.AuctionID), event)
}

// EventFromSubject is the inverse of Subject
func (c NATSConfig) EventFromSubject(subject string) (string, bool) {
	prefix := fmt.Sprintf("%s.%s.", c.SubjectPrefix, subjectToken(c.AuctionID))
	if !strings.HasPrefix(subject, prefix) {
		return "", false
	}
	event := strings.TrimPrefix(subject, prefix)
	return event, event != "" && !strings.Contains(event, ".")
}

func subjectToken(s string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}

// NATSChannel is a Channel over core NATS pub/sub, scoped to one auction
type NATSChannel struct {
	Dispatcher

	nc     *nats.Conn
	sub    *nats.Subscription
	config NATSConfig
}

// ConnectNATS connects and subscribes to every event of the configured auction
func ConnectNATS(config NATSConfig) (*NATSChannel, error) {
	opts := []nats.Option{
		nats.Name("gavel-bidwatch"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	c, err := NewNATSChannel(nc, config)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

// NewNATSChannel subscribes on an existing connection
func NewNATSChannel(nc *nats.Conn, config NATSConfig) (*NATSChannel, error) {
	c := &NATSChannel{nc: nc, config: config}

	// one subscription keeps cross-event ordering
	wildcard := fmt.Sprintf("%s.%s.*", config.SubjectPrefix, subjectToken(config.AuctionID))
	sub, err := nc.Subscribe(wildcard, c.handleMsg)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", wildcard, err)
	}
	c.sub = sub

	log.Info().
		Str("subject", wildcard).
		Str("auction_id", config.AuctionID).
		Msg("push channel subscribed")
	return c, nil
}

func (c *NATSChannel) handleMsg(msg *nats.Msg) {
	event, ok := c.config.EventFromSubject(msg.Subject)
	if !ok {
		log.Warn().Str("subject", msg.Subject).Msg("unexpected subject")
		return
	}
	c.Dispatch(Envelope{Event: event, Data: msg.Data})
}

// Emit publishes payload on the event's subject
func (c *NATSChannel) Emit(event string, payload any) error {
	if c.nc.IsClosed() {
		return ErrClosed
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	if err := c.nc.Publish(c.config.Subject(event), data); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

func (c *NATSChannel) Close() error {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			log.Debug().Err(err).Msg("unsubscribe failed")
		}
	}
	c.nc.Close()
	return nil
}
