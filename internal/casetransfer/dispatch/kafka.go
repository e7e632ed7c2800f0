package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/pkg/platform/sentinel"
)

const operationHeader = "operation"

// KafkaDispatcher produces one record per command, keyed by target reference
// so every event for a case lands on the same partition.
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
}

func NewKafka(client *kgo.Client, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{client: client, topic: topic}
}

// Dispatch returns once the broker acknowledged the record.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, _ models.Credential, cmd models.DispatchCommand) error {
	payload, err := Encode(cmd)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(cmd.TargetReference),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: operationHeader, Value: []byte(cmd.Operation)},
		},
	}
	if err := d.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s for case %s: %w: %w", cmd.Operation, cmd.TargetReference, sentinel.ErrUnavailable, err)
	}
	return nil
}

// EnsureTopic creates topic if the broker does not have it yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(client)
	responses, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, resp := range responses {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}
