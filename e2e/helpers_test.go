package e2e_test

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	binaryDir      string
	binaryBuildErr error
	binaryOnce     sync.Once
	sharedTempDir  string
)

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	var err error
	sharedTempDir, err = os.MkdirTemp("", "shelf-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// ServerConfig holds configuration for starting the shelf server.
type ServerConfig struct {
	Port          int
	JournalType   string // none, sqlite, postgres
	JournalDSN    string
	JournalTable  string
	StoragePath   string
	MaxUploadSize int64
}

// buildBinaries compiles shelf and shelf-cli once per test run and returns
// the directory holding them.
func buildBinaries(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping e2e tests in short mode")
	}

	binaryOnce.Do(func() {
		binaryDir = filepath.Join(sharedTempDir, "bin")

		for _, pkg := range []string{"shelf", "shelf-cli"} {
			cmd := exec.Command("go", "build", "-o", filepath.Join(binaryDir, pkg), "./cmd/"+pkg)
			cmd.Dir = getProjectRoot(t)
			output, err := cmd.CombinedOutput()
			if err != nil {
				binaryBuildErr = fmt.Errorf("build %s: %w\nOutput: %s", pkg, err, output)
				return
			}
		}
	})

	if binaryBuildErr != nil {
		t.Fatalf("failed to build binaries: %v", binaryBuildErr)
	}

	return binaryDir
}

// getProjectRoot returns the directory holding go.mod.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile writes a server config file and returns its path.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	journalType := cfg.JournalType
	if journalType == "" {
		journalType = "none"
	}
	table := cfg.JournalTable
	if table == "" {
		table = "shelf_journal"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `server:
  port: %d
  max_upload_size: %d

storage:
  path: "%s"

journal:
  type: %s
  dsn: "%s"
  table: %s

log:
  level: error
`,
		cfg.Port,
		cfg.MaxUploadSize,
		cfg.StoragePath,
		journalType,
		cfg.JournalDSN,
		table,
	)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(sb.String()), 0o600), "write config file")

	return configPath
}

// startServer runs "shelf serve" and waits until it answers. The process is
// stopped with SIGTERM when the test ends. Returns the base URL and the
// config file path.
func startServer(t *testing.T, cfg ServerConfig) (string, string) {
	t.Helper()

	bin := buildBinaries(t)
	configPath := createConfigFile(t, cfg)

	cmd := exec.Command(filepath.Join(bin, "shelf"), "serve", "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	require.NoError(t, cmd.Start(), "start server")
	t.Cleanup(func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	})

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	waitForServer(t, baseURL, 10*time.Second)

	return baseURL, configPath
}

// runShelf runs the server binary with args and returns its stdout.
func runShelf(t *testing.T, args ...string) string {
	t.Helper()
	return run(t, "shelf", nil, args...)
}

// runCLI runs shelf-cli with args and returns its stdout.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	return run(t, "shelf-cli", []string{"HOME=" + t.TempDir()}, args...)
}

func run(t *testing.T, binary string, env []string, args ...string) string {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(filepath.Join(buildBinaries(t), binary), args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	require.NoError(t, cmd.Run(), "%s %v: %s", binary, args, stderr.String())
	return stdout.String()
}

// waitForServer polls the server until it responds or times out.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/")
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server failed to start within %v", timeout)
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "find open port")

	port := l.Addr().(*net.TCPAddr).Port

	require.NoError(t, l.Close(), "close port")

	return port
}
