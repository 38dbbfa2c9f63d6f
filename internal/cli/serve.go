package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/guiyumin/igget/internal/core/config"
	"github.com/guiyumin/igget/internal/core/logging"
	"github.com/guiyumin/igget/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveDaemon bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [stop|status]",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the resolve and download endpoints.

Examples:
  igget serve              # Start server on port 8080
  igget serve -p 9000      # Start server on port 9000
  igget serve -d           # Start server as background daemon
  igget serve status       # Show daemon status
  igget serve stop         # Stop the daemon

API Endpoints:
  GET  /api/health               # Health check
  GET  /api/i18n                 # Localized messages
  GET  /api/metrics              # Counters as JSON
  GET  /metrics                  # Counters in Prometheus format
  POST /api/instagram/fetch      # {"url": "..."} -> media metadata
  POST /api/instagram/download   # {"url": "...", "type": "image|video"} -> file`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"stop", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			switch args[0] {
			case "stop":
				return stopDaemon()
			case "status":
				return daemonStatus()
			default:
				return fmt.Errorf("unknown serve subcommand %q", args[0])
			}
		}
		return runServe()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP listen port (default: 8080)")
	serveCmd.Flags().BoolVarP(&serveDaemon, "daemon", "d", false, "run as background daemon")

	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg := config.LoadOrDefault()
	if langFlag != "" {
		cfg.Language = strings.ToLower(langFlag)
	}

	// Resolve port (flag > config > default)
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if serveDaemon {
		return startDaemon(cfg.Server.Port)
	}

	level := cfg.SlogLevel()
	if verboseFlag {
		level = slog.LevelDebug
	}
	logger := logging.Init(os.Stderr, level, cfg.LogFormat)

	return runServer(cfg, logger)
}

func runServer(cfg *config.Config, logger *slog.Logger) error {
	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	return srv.Start()
}

func startDaemon(port int) error {
	// Check if already running
	if pid := getDaemonPID(); pid > 0 {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d)", pid)
		}
		// Stale PID file
		os.Remove(getPIDFilePath())
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"serve", "-p", strconv.Itoa(port)}
	if langFlag != "" {
		args = append(args, "--lang", langFlag)
	}
	if verboseFlag {
		args = append(args, "--verbose")
	}

	if err := os.MkdirAll(filepath.Dir(getLogFilePath()), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(getLogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil

	// Detach from parent
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	if err := savePID(cmd.Process.Pid); err != nil {
		cmd.Process.Kill()
		logFile.Close()
		return fmt.Errorf("failed to save PID: %w", err)
	}

	fmt.Printf("igget server started as daemon (PID %d)\n", cmd.Process.Pid)
	fmt.Printf("  Port: %d\n", port)
	fmt.Printf("  Log:  %s\n", getLogFilePath())
	fmt.Printf("\nUse 'igget serve stop' to stop the daemon\n")

	return nil
}

func stopDaemon() error {
	pid := getDaemonPID()
	if pid <= 0 {
		return fmt.Errorf("daemon is not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		os.Remove(getPIDFilePath())
		return fmt.Errorf("daemon process not found")
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		os.Remove(getPIDFilePath())
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	// Wait for process to exit
	for i := 0; i < 30; i++ {
		if !processExists(pid) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	os.Remove(getPIDFilePath())
	fmt.Println("Daemon stopped")
	return nil
}

func daemonStatus() error {
	pid := getDaemonPID()
	if pid <= 0 {
		fmt.Println("Daemon is not running")
		return nil
	}

	if !processExists(pid) {
		os.Remove(getPIDFilePath())
		fmt.Println("Daemon is not running (stale PID file removed)")
		return nil
	}

	fmt.Printf("Daemon is running (PID %d)\n", pid)
	fmt.Printf("Log file: %s\n", getLogFilePath())
	return nil
}

func getPIDFilePath() string {
	configDir, err := config.ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "igget-serve.pid")
	}
	return filepath.Join(configDir, "serve.pid")
}

func getLogFilePath() string {
	configDir, err := config.ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "igget-serve.log")
	}
	return filepath.Join(configDir, "serve.log")
}

func savePID(pid int) error {
	pidFile := getPIDFilePath()
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(pid)), 0644)
}

func getDaemonPID() int {
	data, err := os.ReadFile(getPIDFilePath())
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess always succeeds on Unix; signal 0 probes liveness
	return process.Signal(syscall.Signal(0)) == nil
}
