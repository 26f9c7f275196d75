// Package util holds helpers for integration tests that need real brokers.
package util

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MosquittoImage is the broker image started by Mosquitto.
const MosquittoImage = "eclipse-mosquitto:2.0"

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
log_dest stdout
`

// Mosquitto starts a throwaway broker and returns its tcp:// URL. The
// container is terminated when the test ends. The test is skipped when no
// container runtime is reachable.
func Mosquitto(t testing.TB) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        MosquittoImage,
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				Reader:            strings.NewReader(mosquittoConf),
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	endpoint, err := cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		t.Fatalf("mosquitto endpoint: %v", err)
	}
	if err := waitReady(ctx, endpoint); err != nil {
		t.Fatalf("mosquitto not ready: %v", err)
	}
	return endpoint
}

func waitReady(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe-" + uuid.NewString())
	var last error
	for {
		cli := paho.NewClient(opts)
		tok := cli.Connect()
		if tok.WaitTimeout(time.Second) && tok.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		last = tok.Error()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), last)
		case <-time.After(100 * time.Millisecond):
		}
	}
}
