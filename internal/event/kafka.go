package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/channel-feed/config"
	"github.com/d60-Lab/channel-feed/pkg/logger"
)

// MessageWriter kafka.Writer 的最小子集，便于测试替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder 把总线上的事件转发到 Kafka，供下游通知等系统消费
type KafkaForwarder struct {
	writer MessageWriter
}

// NewKafkaWriter 按配置构造生产者
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

func NewKafkaForwarder(w MessageWriter) *KafkaForwarder {
	return &KafkaForwarder{writer: w}
}

// Handle 可直接注册为总线订阅者。同一 TargetID 的事件落到同一分区。
func (f *KafkaForwarder) Handle(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TargetID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(ev.Name)},
		},
	})
	if err != nil {
		logger.Error("forward event to kafka failed",
			zap.String("event", string(ev.Name)),
			zap.String("target", ev.TargetID),
			zap.Error(err))
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
