package kafka

import (
	"context"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/utils"
)

const (
	maxHandlerAttempts = 3
	handlerBaseBackoff = 500 * time.Millisecond
)

// Handler processes one message payload. Errors trigger a bounded retry with
// exponential backoff; exhaustion drops the message after logging.
type Handler func(ctx context.Context, payload []byte) error

// Consumer reads the registered topics through consumer-group readers. On a
// fatal fault it marks itself disconnected, waits, then reconnects and
// re-subscribes every registered topic before resuming.
type Consumer struct {
	brokers        []string
	groupID        string
	reconnectDelay time.Duration
	logger         *logging.Logger

	mu        sync.Mutex
	handlers  map[string]Handler
	connected bool
}

// NewConsumer builds a Consumer for the given brokers and group.
func NewConsumer(brokers []string, groupID string, reconnectDelay time.Duration, logger *logging.Logger) *Consumer {
	return &Consumer{
		brokers:        brokers,
		groupID:        groupID,
		reconnectDelay: reconnectDelay,
		logger:         logger,
		handlers:       make(map[string]Handler),
	}
}

// Subscribe registers a handler for a topic. Must be called before Start.
func (c *Consumer) Subscribe(topic string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = h
}

// Connected reports whether the consumer currently holds live readers.
func (c *Consumer) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Consumer) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// Start runs the consume loop until ctx is done.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			runCtx, cancel := context.WithCancel(ctx)
			fatal := make(chan error, len(c.handlers))
			var runWg sync.WaitGroup

			c.setConnected(true)
			c.mu.Lock()
			for topic, h := range c.handlers {
				runWg.Add(1)
				go c.consume(runCtx, topic, h, fatal, &runWg)
			}
			c.mu.Unlock()
			c.logger.Infof("Kafka consumer started (group %s)", c.groupID)

			select {
			case <-ctx.Done():
				cancel()
				runWg.Wait()
				c.setConnected(false)
				c.logger.Info("Kafka consumer stopped")
				return
			case err := <-fatal:
				c.setConnected(false)
				c.logger.Errorf("Kafka consumer fault: %v, reconnecting in %s", err, c.reconnectDelay)
				cancel()
				runWg.Wait()
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.reconnectDelay):
				}
			}
		}
	}()
}

// consume reads one topic until cancellation or a fatal reader fault.
func (c *Consumer) consume(ctx context.Context, topic string, h Handler, fatal chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  c.brokers,
		GroupID:  c.groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case fatal <- err:
			default:
			}
			return
		}

		if err := utils.Retry(ctx, c.logger, maxHandlerAttempts, handlerBaseBackoff, func() error {
			return h(ctx, msg.Value)
		}); err != nil {
			// No dead-letter queue: the message is dropped after logging.
			c.logger.WithFields(map[string]interface{}{
				"topic":     topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Errorf("Message dropped after retries: %v", err)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Errorf("Commit failed on %s: %v", topic, err)
		}
	}
}
