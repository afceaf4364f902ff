package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}

	logger := NewLogger(cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Error("mudra stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	seeded, err := st.Signs().Seed(gesture.DefaultDictionary())
	if err != nil {
		return fmt.Errorf("seed signs: %w", err)
	}
	if seeded {
		logger.Info("seeded default signs", "count", len(gesture.DefaultDictionary()))
	}

	settings, err := st.Settings().All()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := cfg.ApplySettings(settings); err != nil {
		return fmt.Errorf("apply stored settings: %w", err)
	}

	dict, err := st.Signs().Dictionary()
	if err != nil {
		return fmt.Errorf("load signs: %w", err)
	}
	if err := dict.Validate(); err != nil {
		return err
	}

	plugins := plugin.NewManager(cfg.PluginDir, logger)
	if err := plugins.Discover(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.PluginDir, "error", err)
	}
	dispatcher := app.NewDispatcher(st, plugins, plugin.NewExecutor(cfg.PluginTimeout), logger)
	defer dispatcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		live   *app.App
		camera capture.Camera
	)
	if cfg.CameraID >= 0 {
		live, camera, err = startLive(cfg, dict, dispatcher, logger)
		if err != nil {
			logger.Warn("live recognition unavailable", "camera", cfg.CameraID, "error", err)
		} else {
			defer live.Stop()
		}
	}

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		logger.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		Dictionary:  dict,
		Recognition: cfg.Recognition,
		Store:       st,
		Plugins:     plugins,
		Sink:        dispatcher,
		Camera:      camera,
		StaticDir:   webDir,
		Logger:      logger,
	})

	if !cfg.Tray {
		return srv.Run(ctx, cfg.Addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, cfg.Addr)
		stop()
	}()
	runTray(ctx, stop, live, cfg.Addr, logger)
	stop()
	return <-errCh
}

// startLive opens the configured camera behind the MediaPipe tracker.
func startLive(cfg config.Config, dict gesture.Dictionary, dispatcher *app.Dispatcher, logger *slog.Logger) (*app.App, capture.Camera, error) {
	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("hand tracker: %w", err)
	}

	camera := capture.NewDevice(capture.DefaultDeviceConfig(cfg.CameraID))
	live, err := app.New(app.Config{
		Camera:          camera,
		Detector:        det,
		Dictionary:      dict,
		Recognition:     cfg.Recognition,
		MotionThreshold: cfg.MotionThreshold,
		MotionLinger:    capture.DefaultLinger,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	if err != nil {
		det.Close()
		return nil, nil, err
	}
	if err := live.Start(); err != nil {
		det.Close()
		return nil, nil, fmt.Errorf("start recognition: %w", err)
	}
	return live, camera, nil
}

// runTray blocks on the system tray until Quit is chosen or ctx ends.
func runTray(ctx context.Context, quit context.CancelFunc, live *app.App, addr string, logger *slog.Logger) {
	t := tray.New()
	t.OnQuit(quit)
	t.OnSettings(func() {
		if err := openBrowser(settingsURL(addr)); err != nil {
			logger.Warn("failed to open settings", "error", err)
		}
	})
	if live != nil {
		t.OnToggle(live.SetEnabled)
		t.OnClearSequence(live.Recognizer().ClearSequence)
		unsubscribe := live.Subscribe(t.HandleEvent)
		defer unsubscribe()
	}

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(home, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
