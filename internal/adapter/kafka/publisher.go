// Package kafka mirrors ingested prediction records to a topic so
// downstream consumers (reanalysis jobs, alerting) see writes as they land.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/config"
	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces prediction records to the configured topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes and publishes multiple records in a single
// WriteMessages call. Messages are keyed by basin so one basin's records
// stay ordered within a partition.
func (p *Publisher) PublishBatch(ctx context.Context, obs []domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(obs))
	for i := range obs {
		msg, err := serializeToMessage(obs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// message is the wire form of one prediction record.
type message struct {
	Location string  `json:"location"`
	Date     string  `json:"date"`
	Version  string  `json:"version"`
	ModelNo  int32   `json:"model_no"`
	Value    float64 `json:"value"`
}

// serializeToMessage marshals an observation into a Kafka message.
func serializeToMessage(o domain.Observation) (kafkago.Message, error) {
	data, err := json.Marshal(message{
		Location: o.Location,
		Date:     o.Date.Format(time.DateOnly),
		Version:  o.Version,
		ModelNo:  o.ModelNo,
		Value:    o.Value,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(o.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "version", Value: []byte(o.Version)},
			{Key: "ingested_at", Value: []byte(domain.Now().Format(time.RFC3339))},
		},
	}, nil
}
