package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
)

type LogMessage struct {
	Level     string            `json:"level"`
	Module    string            `json:"module"`
	Message   string            `json:"message"`
	TraceID   string            `json:"trace_id"`
	Env       string            `json:"env"`
	Timestamp time.Time         `json:"timestamp"`
	Extra     map[string]string `json:"extra"`
}

// LogPipeline drains request-log messages from Kafka and bulk-indexes them
// into Elasticsearch. It is started as a separate worker process so the API
// never blocks on the search cluster.
type LogPipeline struct {
	Brokers []string
	Topic   string
	GroupID string
	Index   string
}

const (
	logBatchSize    = 100
	logBatchTimeout = 5 * time.Second
)

// Run consumes until ctx is cancelled, flushing in batches of logBatchSize
// or every logBatchTimeout, whichever comes first.
func (p *LogPipeline) Run(ctx context.Context) error {
	if len(p.Brokers) == 0 || (len(p.Brokers) == 1 && p.Brokers[0] == "") {
		return errors.New("log pipeline: no Kafka brokers configured")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: p.Brokers,
		Topic:   p.Topic,
		GroupID: p.GroupID,
	})
	defer reader.Close()

	es, err := elasticsearch.NewDefaultClient()
	if err != nil {
		return err
	}

	log.Printf("log pipeline: %s -> es index %q", p.Topic, p.Index)

	batch := make([]LogMessage, 0, logBatchSize)
	timer := time.NewTimer(logBatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		var buf bytes.Buffer
		for _, msg := range batch {
			doc, err := json.Marshal(msg)
			if err != nil {
				log.Printf("log pipeline: marshal error: %v", err)
				continue
			}
			buf.WriteString("{\"index\":{}}\n")
			buf.Write(doc)
			buf.WriteString("\n")
		}
		res, err := es.Bulk(bytes.NewReader(buf.Bytes()), es.Bulk.WithIndex(p.Index))
		if err != nil {
			log.Printf("log pipeline: bulk index error: %v", err)
		} else {
			res.Body.Close()
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case <-timer.C:
			flush()
			timer.Reset(logBatchTimeout)
		default:
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					flush()
					return ctx.Err()
				}
				log.Printf("log pipeline: kafka read error: %v", err)
				continue
			}

			var msg LogMessage
			if err := json.Unmarshal(m.Value, &msg); err != nil {
				log.Printf("log pipeline: decode error: %v", err)
				continue
			}
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			batch = append(batch, msg)
			if len(batch) >= logBatchSize {
				flush()
				timer.Reset(logBatchTimeout)
			}
		}
	}
}
