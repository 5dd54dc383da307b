package testing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/elasticsearch"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ElasticsearchImage matches the go-elasticsearch client version in go.mod.
const ElasticsearchImage = "docker.elastic.co/elasticsearch/elasticsearch:8.19.0"

type ESContainer struct {
	Container testcontainers.Container
	Address   string
}

// StartElasticsearch runs a single node with security off for the duration of tb.
func StartElasticsearch(ctx context.Context, tb testing.TB) *ESContainer {
	tb.Helper()
	skipShort(tb, "elasticsearch")

	es, err := elasticsearch.Run(ctx, ElasticsearchImage,
		elasticsearch.WithPassword(""),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/").WithPort("9200").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		tb.Fatalf("start elasticsearch: %v", err)
	}
	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(es); err != nil {
			tb.Logf("terminate elasticsearch: %v", err)
		}
	})

	host, err := es.Host(ctx)
	if err != nil {
		tb.Fatalf("elasticsearch host: %v", err)
	}
	port, err := es.MappedPort(ctx, "9200")
	if err != nil {
		tb.Fatalf("elasticsearch port: %v", err)
	}

	return &ESContainer{
		Container: es,
		Address:   fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}
