package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/metrics"
	"orderdesk/internal/service"
)

const (
	maxBackoff = 5 * time.Second
	// maxReason bounds the x-dlq-reason header in bytes.
	maxReason = 1000
)

type Config struct {
	Brokers     []string
	GroupID     string
	Topic       string
	DLQ         string
	MaxRetries  int
	BaseBackoff time.Duration
}

// MessageHandler processes one intake payload. messageID is stable across
// redeliveries of the same message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, messageID string, payload []byte) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	cfg    Config
	reader messageReader
	dlq    messageWriter
	svc    MessageHandler
	sleep  func(ctx context.Context, d time.Duration) bool
}

func NewConsumer(cfg Config, svc MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        100 * time.Millisecond,
		CommitInterval: 0,
	})

	var dlq messageWriter
	if cfg.DLQ != "" {
		dlq = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.DLQ,
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		}
	}
	return newConsumer(cfg, r, dlq, svc)
}

func newConsumer(cfg Config, r messageReader, dlq messageWriter, svc MessageHandler) *Consumer {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	return &Consumer{cfg: cfg, reader: r, dlq: dlq, svc: svc, sleep: sleepCtx}
}

// Subscribe consumes the intake topic until ctx is done. A message is
// committed once it was handled or parked on the DLQ.
func (c *Consumer) Subscribe(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			logrus.WithError(err).Error("kafka fetch failed")
			if !c.sleep(ctx, 300*time.Millisecond) {
				return nil
			}
			continue
		}

		log := logrus.WithFields(logrus.Fields{
			"topic":     m.Topic,
			"partition": m.Partition,
			"offset":    m.Offset,
		})
		log.Debug("intake message fetched")

		attempts, last := c.process(ctx, m)
		if last == nil {
			metrics.IntakeMessages.WithLabelValues("ok").Inc()
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				log.WithError(err).Error("commit failed")
			}
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		if c.dlq != nil {
			if err := c.dlq.WriteMessages(ctx, c.dlqMessage(m, last, attempts)); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.WithError(err).Error("write to DLQ failed")
				c.sleep(ctx, 500*time.Millisecond)
				continue
			}
			metrics.IntakeMessages.WithLabelValues("dlq").Inc()
			log.WithError(last).WithField("attempts", attempts).Warn("intake message moved to DLQ")
		} else {
			metrics.IntakeMessages.WithLabelValues("dropped").Inc()
			log.WithError(last).Warn("DLQ disabled, intake message dropped")
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Error("commit after DLQ failed")
		}
	}
}

// process runs the handler with retries and returns the attempt count and
// the last error, nil on success.
func (c *Consumer) process(ctx context.Context, m kafka.Message) (int, error) {
	var last error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if !c.sleep(ctx, backoff(attempt, c.cfg.BaseBackoff)) {
			return attempt, ctx.Err()
		}
		last = c.svc.HandleMessage(ctx, messageID(m), m.Value)
		if last == nil {
			return attempt + 1, nil
		}
		if isNonRetryable(last) {
			return attempt + 1, last
		}
		metrics.IntakeMessages.WithLabelValues("retry").Inc()
		logrus.WithError(last).WithField("attempt", attempt+1).Warn("intake message failed, retrying")
	}
	return c.cfg.MaxRetries + 1, last
}

// messageID names a message by its position in the log.
func messageID(m kafka.Message) string {
	return fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset)
}

func (c *Consumer) dlqMessage(m kafka.Message, cause error, attempts int) kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers)+5)
	headers = append(headers, m.Headers...)
	headers = append(headers,
		kafka.Header{Key: "x-dlq-reason", Value: []byte(trimErr(cause))},
		kafka.Header{Key: "x-dlq-attempts", Value: []byte(strconv.Itoa(attempts))},
		kafka.Header{Key: "x-dlq-ts", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		kafka.Header{Key: "x-dlq-source-topic", Value: []byte(c.cfg.Topic)},
		kafka.Header{Key: "x-dlq-group", Value: []byte(c.cfg.GroupID)},
	)
	return kafka.Message{Key: m.Key, Value: m.Value, Headers: headers}
}

func (c *Consumer) Close() error {
	var first error
	if c.reader != nil {
		if err := c.reader.Close(); err != nil {
			first = err
		}
	}
	if c.dlq != nil {
		if err := c.dlq.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func backoff(n int, base time.Duration) time.Duration {
	if n <= 0 {
		return 0
	}
	if n > 16 {
		return maxBackoff
	}
	d := base * (1 << (n - 1))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func trimErr(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if len(s) <= maxReason {
		return s
	}
	cut := maxReason
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// isNonRetryable reports errors that will fail the same way on every retry.
func isNonRetryable(err error) bool {
	return errors.Is(err, service.ErrDecode) ||
		errors.Is(err, service.ErrValidation) ||
		errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrConflict)
}
