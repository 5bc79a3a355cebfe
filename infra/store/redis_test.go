package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis launches a disposable Redis container and returns its address.
func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("EVT_SKIP_DOCKER") != "" {
		t.Skip("docker tests disabled")
	}
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	addr := startRedis(t)
	s, err := OpenRedis(context.Background(), RedisConfig{Addr: addr, Prefix: "evt-test"})
	require.NoError(t, err)
	defer s.Close()
	testStoreContract(t, s)
}

func TestOpenRedisRequiresAddr(t *testing.T) {
	_, err := OpenRedis(context.Background(), RedisConfig{})
	require.Error(t, err)
}
