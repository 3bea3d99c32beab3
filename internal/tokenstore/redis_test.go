package tokenstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pribylovaa/go-resume-portfolio/internal/models"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты Redis-бэкенда:
// — поднимают реальный Redis через testcontainers-go;
// — проверяют полный цикл Session и то, что Clear удаляет оба ключа.
//
// Запуск:
//   GO_TEST_INTEGRATION=1 go test ./internal/tokenstore -run Redis -v -count=1

func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestIntegration_Redis_SessionFlow(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	r, err := NewRedis(ctx, url, "test:session:")
	require.NoError(t, err)
	s := New(r)
	defer s.Close()

	_, err = s.Tokens(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveTokens(ctx, models.TokenPair{Access: "A1", Refresh: "R1"}))
	require.NoError(t, s.SaveUser(ctx, models.User{ID: 3, Email: "x@y.z"}))

	raw, err := r.rdb.Get(ctx, "test:session:tokens").Result()
	require.NoError(t, err)
	require.JSONEq(t, `{"access":"A1","refresh":"R1"}`, raw)

	require.NoError(t, s.Clear(ctx))

	n, err := r.rdb.Exists(ctx, "test:session:tokens", "test:session:user").Result()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestIntegration_Redis_BadAddr(t *testing.T) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, "redis://127.0.0.1:1/0", "")
	require.Error(t, err)
}
