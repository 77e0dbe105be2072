package queue

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"fraudshield/internal/domain"
)

type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return NewKafkaWithProducer(producer, topic), nil
}

func NewKafkaWithProducer(p sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{
		producer: p,
		topic:    topic,
	}
}

// Publish sends msg keyed by user so one user's events stay ordered.
func (k *Kafka) Publish(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(msg.UserID),
		Value: sarama.ByteEncoder(data),
	})

	return err
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}

const retryDelay = 2 * time.Second

type KafkaConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler Handler
	log     zerolog.Logger
	failed  atomic.Bool
}

func NewKafkaConsumer(brokers []string, groupID, topic string, log zerolog.Logger) (*KafkaConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &KafkaConsumer{
		group: group,
		topic: topic,
		log:   log.With().Str("component", "consumer").Str("topic", topic).Logger(),
	}, nil
}

// Consume blocks until ctx is cancelled. After a handler failure the claim
// is abandoned and consumption resumes from the last committed offset.
func (c *KafkaConsumer) Consume(ctx context.Context, handler Handler) error {
	c.handler = handler

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			c.failed.Store(false)
			if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
				return err
			}
			if c.failed.Load() {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(retryDelay):
				}
			}
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.group.Close()
}

func (c *KafkaConsumer) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (c *KafkaConsumer) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (c *KafkaConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			var env Envelope
			if err := json.Unmarshal(msg.Value, &env); err != nil {
				c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("skipping malformed envelope")
				session.MarkMessage(msg, "")
				continue
			}

			if err := c.handler(session.Context(), env); err != nil {
				c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("handler failed, will redeliver")
				c.failed.Store(true)
				return nil
			}

			session.MarkMessage(msg, "")
		}
	}
}
