package toptest

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ory/dockertest"
)

type DockerServiceConfig[T any] struct {
	DockerImage    string
	DockerImageTag string
	InternalPort   int
	Environment    map[string]string
	Builder        func(host string, port int) (T, error)
}

func (d DockerServiceConfig[T]) Env() []string {
	env := []string{}
	for k, v := range d.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	return env
}

// GetDockerService starts the configured container and retries Builder until
// it succeeds. The test is skipped in short mode or when Docker is not
// reachable.
func GetDockerService[T any](
	t *testing.T,
	config DockerServiceConfig[T],
) T {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping long-running test in short mode.")
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Docker is not available: %s", err)
	}

	if err := pool.Client.Ping(); err != nil {
		t.Skipf("Could not connect to Docker: %s", err)
	}
	pool.MaxWait = time.Minute * 2

	resource, err := pool.Run(
		config.DockerImage,
		config.DockerImageTag,
		config.Env(),
	)
	if err != nil {
		t.Fatalf("Could not start resource: %s", err)
	}

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Fatalf("Could not purge resource: %s", err)
		}
	})

	u, err := url.Parse("tcp://" + resource.GetHostPort(fmt.Sprintf("%d/tcp", config.InternalPort)))
	if err != nil {
		t.Fatalf("Error parsing service address: %s", err)
	}

	host := u.Hostname()
	if dockerURL, err := url.Parse(os.Getenv("DOCKER_HOST")); err == nil && dockerURL.Scheme == "tcp" {
		// Remote daemons publish ports on their own address
		host = dockerURL.Hostname()
	}

	port, _ := strconv.Atoi(u.Port())

	var service T
	if err := pool.Retry(func() error {
		var err error
		service, err = config.Builder(host, port)

		return err
	}); err != nil {
		t.Fatalf("Could not connect to service: %s", err)
	}

	return service
}
