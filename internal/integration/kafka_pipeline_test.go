//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/incident-data-service/internal/adapter/csvsource"
	"github.com/couchcryptid/incident-data-service/internal/adapter/kafka"
	"github.com/couchcryptid/incident-data-service/internal/config"
	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/observability"
	"github.com/couchcryptid/incident-data-service/internal/pipeline"
	"github.com/couchcryptid/incident-data-service/internal/store"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "incidents-snapshot-test"

const incidentsCSV = `Source_file,Common_Features_headline,Published_Date,Common_Features_incident_location,News_Type
article_1.json,Chain snatching in Hanamkonda,2024-03-02T08:15:00Z,"17.9689,79.5941",Theft
article_2.json,Murder case solved,2024-03-05,"17.3850,78.4867",Murder
article_3.json,Ganja seized at checkpost,2024-03-07,,Narcotics
`

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("incident-data-service-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type publishedIncident struct {
	Incident domain.Incident
	Key      string
	Headers  map[string]string
}

func readPublished(ctx context.Context, t *testing.T, broker string, n int) []publishedIncident {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]publishedIncident, 0, n)
	for range n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from snapshot topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var inc domain.Incident
		require.NoError(t, json.Unmarshal(msg.Value, &inc))
		out = append(out, publishedIncident{Incident: inc, Key: string(msg.Key), Headers: headers})
	}
	return out
}

// TestSnapshotPublishedOnLoad drives a cold store query through the real
// pipeline and checks that the loaded snapshot lands on Kafka.
func TestSnapshotPublishedOnLoad(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	csvPath := filepath.Join(t.TempDir(), "incidents.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(incidentsCSV), 0o600))

	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testTopic,
		BatchSize:    2,
	}
	logger := observability.DiscardLogger()
	metrics := observability.NewMetricsForTesting()

	writer := kafka.NewWriter(cfg, metrics, logger)
	t.Cleanup(func() { _ = writer.Close() })

	resolverCfg := domain.DefaultResolverConfig()
	resolverCfg.Seed = 42
	transformer := pipeline.NewTransformer(resolverCfg, nil, domain.DefaultClassifier(), logger)
	p := pipeline.New(csvsource.New(csvPath), transformer, writer, logger, metrics)
	incidents := store.New(p, logger, metrics)

	res, err := incidents.Query(ctx, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, res.Incidents, 3)

	published := readPublished(ctx, t, broker, 3)
	for i, msg := range published {
		want := res.Incidents[i]
		assert.Equal(t, want.ID, msg.Key)
		assert.Equal(t, res.SnapshotID, msg.Headers["snapshot_id"])
		assert.Equal(t, want.NewsType, msg.Headers["news_type"])
		assert.Equal(t, want.Category, msg.Headers["category"])
		assert.Equal(t, want.ID, msg.Incident.ID)
		assert.InDelta(t, want.Latitude, msg.Incident.Latitude, 1e-9)
	}

	assert.Equal(t, "Drug-Related", published[2].Incident.Category)
	assert.Equal(t, domain.GeoSourceSynthesized, published[2].Incident.GeoSource)
}

// TestUnreachableBrokerDoesNotFailLoad checks that publishing is best-effort.
func TestUnreachableBrokerDoesNotFailLoad(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	csvPath := filepath.Join(t.TempDir(), "incidents.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(incidentsCSV), 0o600))

	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: testTopic, BatchSize: 10}
	logger := observability.DiscardLogger()
	metrics := observability.NewMetricsForTesting()

	writer := kafka.NewWriter(cfg, metrics, logger)
	t.Cleanup(func() { _ = writer.Close() })

	transformer := pipeline.NewTransformer(domain.DefaultResolverConfig(), nil, domain.DefaultClassifier(), logger)
	p := pipeline.New(csvsource.New(csvPath), transformer, writer, logger, metrics)

	got, err := p.Load(ctx, "snap-offline")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
