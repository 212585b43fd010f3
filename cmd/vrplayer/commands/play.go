package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/api"
	"github.com/bryanchriswhite/VRPlayer/internal/config"
	"github.com/bryanchriswhite/VRPlayer/internal/decoder"
	"github.com/bryanchriswhite/VRPlayer/internal/display"
	"github.com/bryanchriswhite/VRPlayer/internal/input"
	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/output"
	"github.com/bryanchriswhite/VRPlayer/internal/overlay"
	"github.com/bryanchriswhite/VRPlayer/internal/player"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	noWindow   bool
	noStream   bool
	fullscreen bool
	prettyLogs bool
	openViewer bool
)

var playCmd = &cobra.Command{
	Use:   "play [FILE]",
	Short: "Play a VR video or panorama",
	Long: `Open FILE (optional) and start the player.

The stereo view is shown in an X11 window when a display is available and
streamed as MJPEG on the API port. Files can also be opened later with the
O key, the /api/open endpoint or the web viewer.`,
	Example: `  # Play a side-by-side 180° video
  vrplayer play ~/Videos/concert_180_sbs.mp4

  # Stream only, no window
  vrplayer play --no-window pano.jpg

  # Start fullscreen on port 9090
  vrplayer play --fullscreen --port 9090 clip.mp4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolVar(&noWindow, "no-window", false, "do not open the X11 window")
	playCmd.Flags().BoolVar(&noStream, "no-stream", false, "do not serve the MJPEG stream")
	playCmd.Flags().BoolVar(&fullscreen, "fullscreen", false, "start the window fullscreen")
	playCmd.Flags().BoolVar(&prettyLogs, "pretty", true, "human readable log output")
	playCmd.Flags().BoolVar(&openViewer, "open-browser", false, "open the web viewer in the default browser")
}

func runPlay(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	if fullscreen {
		cfg.Display.Fullscreen = true
	}

	logger.Init(cfg.LogLevel, prettyLogs)
	log := logger.WithComponent("play")
	log.Info().
		Str("config", configMgr.GetConfigPath()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	scaler, err := projection.ParseFilter(cfg.Projection.Filter)
	if err != nil {
		return err
	}
	keymap, err := input.NewKeymap(cfg.Keys)
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}
	announcer := overlay.NewManager(cfg.Announce.Duration())

	eyeW, eyeH := display.EyeSize(cfg.Display.Width, cfg.Display.Height)
	opts := player.Options{
		FPS:       cfg.Display.FPS,
		EyeWidth:  eyeW,
		EyeHeight: eyeH,
		Workers:   cfg.Projection.Workers,
		Scaler:    scaler,
		FOV:       cfg.Camera.FOV,
		Keymap:    keymap,
		Overlay:   announcer,
		Decoder: decoder.New(decoder.Options{
			FFmpegPath:  cfg.Decoder.FFmpeg,
			FFprobePath: cfg.Decoder.FFprobe,
			Loop:        cfg.Decoder.Loop,
		}),
	}

	var window *display.Manager
	if cfg.Display.Enabled && !noWindow {
		window, err = display.NewManager(&cfg.Display)
		if err != nil {
			log.Warn().Err(err).Msg("No display window, continuing with the stream only")
			window = nil
		} else {
			opts.Fullscreen = window
		}
	}

	inhibitor, err := display.NewInhibitor("vrplayer")
	if err != nil {
		log.Warn().Err(err).Msg("Screensaver inhibition unavailable")
	} else {
		opts.Inhibitor = inhibitor
		defer inhibitor.Close()
	}

	p, err := player.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	if window != nil {
		if err := window.Start(); err != nil {
			return fmt.Errorf("failed to open window: %w", err)
		}
		defer window.Stop()
		p.AddOutput(window)
		go forwardWindowEvents(window, p)
	}

	var stream *output.MJPEGOutput
	if cfg.Stream.Enabled && !noStream {
		stream = output.NewMJPEGOutput(output.Config{
			Width:   eyeW * 2,
			Height:  eyeH,
			FPS:     cfg.Display.FPS,
			Quality: cfg.Stream.Quality,
		})
		if err := stream.Start(); err != nil {
			return fmt.Errorf("failed to start MJPEG output: %w", err)
		}
		defer stream.Stop()
		p.AddOutput(stream)
	}

	// Hot reload covers the settings that make sense at runtime.
	configMgr.OnConfigChange(func(c *config.Config) {
		logger.SetLevel(c.LogLevel)
		announcer.SetDuration(c.Announce.Duration())
		log.Info().Str("log_level", c.LogLevel).Msg("Configuration reloaded")
	})
	if err := configMgr.Watch(); err != nil {
		log.Warn().Err(err).Msg("Config hot reload disabled")
	}

	server := api.NewServer(p, configMgr, stream)
	go func() {
		if err := server.Start(cfg.ServerPort); err != nil {
			log.Error().Err(err).Msg("Server error")
			p.Quit()
		}
	}()

	if len(args) == 1 {
		if err := p.Open(args[0]); err != nil {
			return err
		}
	}

	viewerURL := fmt.Sprintf("http://localhost:%d", cfg.ServerPort)
	if openViewer && stream != nil {
		if err := browser.OpenURL(viewerURL); err != nil {
			log.Warn().Err(err).Msg("Could not open browser")
		}
	}

	log.Info().
		Str("viewer", viewerURL).
		Str("api", fmt.Sprintf("http://localhost:%d/api", cfg.ServerPort)).
		Bool("window", window != nil).
		Msg("VRPlayer is running, press Ctrl+C or Q to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = p.Run(ctx)

	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("Server shutdown")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func forwardWindowEvents(window *display.Manager, p *player.Player) {
	log := logger.WithComponent("play")
	for {
		select {
		case <-p.Done():
			return
		case ev, ok := <-window.Events():
			if !ok {
				return
			}
			if err := p.HandleDisplayEvent(ev); err != nil {
				log.Debug().Err(err).Str("key", ev.Key).Msg("Input ignored")
			}
		}
	}
}
