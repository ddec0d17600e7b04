package redis

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prohmpiriya/event-inventory/pkg/config"
	"github.com/prohmpiriya/event-inventory/pkg/saga"
)

func testConfig() *config.RedisConfig {
	cfg := &config.RedisConfig{
		Host:        "localhost",
		Port:        6379,
		PoolSize:    5,
		DialTimeout: time.Second,
	}
	if host := os.Getenv("TEST_REDIS_HOST"); host != "" {
		cfg.Host = host
	}
	if password := os.Getenv("TEST_REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
	return cfg
}

func TestClientOptions(t *testing.T) {
	cfg := &config.RedisConfig{
		Host:         "redis.example.com",
		Port:         6380,
		Password:     "secret",
		DB:           2,
		PoolSize:     20,
		MinIdleConns: 4,
		ReadTimeout:  time.Second,
	}

	opts := clientOptions(cfg)
	if opts.Addr != "redis.example.com:6380" {
		t.Errorf("Addr = %q, want redis.example.com:6380", opts.Addr)
	}
	if opts.DB != 2 || opts.PoolSize != 20 || opts.MinIdleConns != 4 {
		t.Errorf("unexpected pool options: %+v", opts)
	}
	if opts.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %v, want 1s", opts.ReadTimeout)
	}
}

func TestConnect_NilConfig(t *testing.T) {
	if _, err := Connect(context.Background(), nil, ConnectOptions{}); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := &config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        1,
		DialTimeout: 200 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Connect(ctx, cfg, ConnectOptions{Retries: 1, Backoff: 10 * time.Millisecond})
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1 after 2 attempts") {
		t.Errorf("unexpected error: %v", err)
	}
}

// Integration tests - require Redis to be running

func TestClient_HealthCheck_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx := context.Background()
	client, err := Connect(ctx, testConfig(), ConnectOptions{})
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestSagaStore_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx := context.Background()
	client, err := Connect(ctx, testConfig(), ConnectOptions{})
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	defer client.Close()

	store := client.SagaStore("test:saga:"+time.Now().Format("150405.000000")+":", time.Minute)

	instance := saga.NewInstance("create-booking", map[string]string{"event_id": "7"})
	if err := store.Save(ctx, instance); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, instance); !errors.Is(err, saga.ErrSagaAlreadyExists) {
		t.Errorf("Expected ErrSagaAlreadyExists, got %v", err)
	}

	instance.SetStatus(saga.StatusRunning)
	if err := store.Update(ctx, instance); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.Get(ctx, instance.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != saga.StatusRunning {
		t.Errorf("Expected status running, got %s", got.Status)
	}

	byEvent, err := store.GetByLabel(ctx, "event_id", "7", 0)
	if err != nil {
		t.Fatalf("GetByLabel failed: %v", err)
	}
	if len(byEvent) != 1 {
		t.Errorf("Expected 1 instance, got %d", len(byEvent))
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, saga.ErrSagaNotFound) {
		t.Errorf("Expected ErrSagaNotFound, got %v", err)
	}
	if err := store.Update(ctx, saga.NewInstance("create-booking", nil)); !errors.Is(err, saga.ErrSagaNotFound) {
		t.Errorf("Expected ErrSagaNotFound for update of unknown instance, got %v", err)
	}
}
