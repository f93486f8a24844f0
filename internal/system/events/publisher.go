/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package events publishes domain events about duplicate review to Kafka.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/metrics"
)

// Event is the JSON envelope written to the topic.
type Event struct {
	ID        string      `json:"event_id"`
	Type      string      `json:"event_type"`
	TenantID  string      `json:"tenant_id,omitempty"`
	DatasetID int64       `json:"dataset_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Publisher delivers events. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by dataset id so events of one dataset stay ordered.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for the configured brokers and topic.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {

	event = withDefaults(event)
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s event", event.Type)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.DatasetID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		return errors.Wrapf(err, "failed to publish %s event to %s", event.Type, p.topic)
	}
	metrics.EventsPublished.WithLabelValues(event.Type, "success").Inc()
	log.GetLogger().Debug("Published event", log.String("event_type", event.Type),
		log.Int64("dataset_id", event.DatasetID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// NewPublisher returns a Kafka publisher, or a no-op publisher when no brokers are configured.
func NewPublisher(cfg config.KafkaConfig) Publisher {

	if len(cfg.Brokers) == 0 {
		log.GetLogger().Info("No Kafka brokers configured. Duplicate events will not be published.")
		return NoopPublisher{}
	}
	return NewKafkaPublisher(cfg)
}

var (
	defaultPublisher Publisher = NoopPublisher{}
	publisherMu      sync.RWMutex
)

// SetPublisher replaces the process wide publisher.
func SetPublisher(p Publisher) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	defaultPublisher = p
}

// GetPublisher returns the process wide publisher.
func GetPublisher() Publisher {
	publisherMu.RLock()
	defer publisherMu.RUnlock()
	return defaultPublisher
}

// PublishAsync publishes in the background with its own timeout. Failures are logged.
func PublishAsync(p Publisher, event Event) {

	event = withDefaults(event)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			log.GetLogger().Warn("Failed to publish event", log.String("event_type", event.Type),
				log.Int64("dataset_id", event.DatasetID), log.Error(err))
		}
	}()
}

func withDefaults(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}
