package commands

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/camera"
	"github.com/bryanchriswhite/VRPlayer/internal/config"
	"github.com/bryanchriswhite/VRPlayer/internal/decoder"
	"github.com/bryanchriswhite/VRPlayer/internal/display"
	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
	"github.com/spf13/cobra"
)

var (
	renderOut   string
	renderKind  string
	renderAt    time.Duration
	renderYaw   float64
	renderPitch float64
)

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Render one frame of FILE to PNG files",
	Long: `Render a single frame offline, without a window. For each eye the
shared render target and the camera view are written, followed by the
composed stereo frame.`,
	Example: `  # Render the first frame with the detected projection
  vrplayer render concert.mp4 --out /tmp/frames

  # Render 90 seconds in as fisheye, looking 30° to the right
  vrplayer render concert.mp4 --at 90s --projection fisheye180 --yaw 30`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOut, "out", "o", ".", "output directory")
	renderCmd.Flags().StringVarP(&renderKind, "projection", "p", "", "force a projection (sbs180, fisheye180, tb360)")
	renderCmd.Flags().DurationVar(&renderAt, "at", 0, "video position to render")
	renderCmd.Flags().Float64Var(&renderYaw, "yaw", 0, "camera yaw in degrees")
	renderCmd.Flags().Float64Var(&renderPitch, "pitch", 0, "camera pitch in degrees")
}

func runRender(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)
	log := logger.WithComponent("render")

	path := decoder.PathFromURI(args[0])
	if _, err := os.Stat(path); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	content, release, err := loadStill(ctx, cfg, path, renderAt)
	if err != nil {
		return err
	}
	defer release()

	selector := projection.NewSelector()
	strategy, err := selector.OnContentLoaded(content)
	if err != nil {
		return err
	}
	if renderKind != "" {
		kind, err := projection.ParseKind(renderKind)
		if err != nil {
			return err
		}
		if strategy, err = selector.OnForceKind(kind); err != nil {
			return err
		}
	}

	scaler, err := projection.ParseFilter(cfg.Projection.Filter)
	if err != nil {
		return err
	}
	compositor := projection.NewCompositor(projection.CompositorOptions{
		Scaler:  scaler,
		Workers: cfg.Projection.Workers,
	})
	if err := compositor.Reconfigure(content); err != nil {
		return err
	}

	cam := camera.New(cfg.Camera.FOV, cfg.Projection.Workers)
	if strategy.Kind().Layout() == projection.Panoramic360 {
		cam.SetCenter(camera.Center360)
	} else {
		cam.SetCenter(camera.Center180)
	}
	cam.Rotate(renderYaw, renderPitch)

	if err := os.MkdirAll(renderOut, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	eyeW, eyeH := display.EyeSize(cfg.Display.Width, cfg.Display.Height)
	var views [2]*image.RGBA
	if err := compositor.BeginFrame(); err != nil {
		return err
	}
	for _, eye := range projection.Eyes {
		plan, err := strategy.ComputePlan(eye)
		if err != nil {
			return err
		}
		if err := compositor.Render(eye, plan); err != nil {
			return err
		}
		target := compositor.Target()
		if err := writePNG(filepath.Join(renderOut, "target-"+eye.String()+".png"), target.RGBA); err != nil {
			return err
		}

		view := image.NewRGBA(image.Rect(0, 0, eyeW, eyeH))
		if err := cam.Render(ctx, view, target.RGBA); err != nil {
			return err
		}
		if err := writePNG(filepath.Join(renderOut, "eye-"+eye.String()+".png"), view); err != nil {
			return err
		}
		views[eye] = view
	}

	stereo := image.NewRGBA(image.Rect(0, 0, eyeW*2, eyeH))
	display.Compose(stereo, views[projection.Left], views[projection.Right], false)
	if err := writePNG(filepath.Join(renderOut, "stereo.png"), stereo); err != nil {
		return err
	}

	log.Info().
		Str("projection", strategy.Kind().String()).
		Int("width", content.Width()).
		Int("height", content.Height()).
		Str("out", renderOut).
		Msg("Frame rendered")
	return nil
}

// loadStill returns one frame of path: the frame at position for videos,
// or the image itself when the decoder rejects the file.
func loadStill(ctx context.Context, cfg *config.Config, path string, at time.Duration) (projection.Content, func(), error) {
	dec := decoder.New(decoder.Options{
		FFmpegPath:  cfg.Decoder.FFmpeg,
		FFprobePath: cfg.Decoder.FFprobe,
	})

	var ev decoder.Event
	select {
	case ev = <-dec.Prepare(ctx, path):
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	if ev.Err != nil {
		if !decoder.Unplayable(ev.Err) {
			return nil, nil, ev.Err
		}
		img, err := decoder.LoadImage(path)
		if err != nil {
			return nil, nil, fmt.Errorf("not a video (%v) nor an image (%v)", ev.Err, err)
		}
		return img, func() {}, nil
	}

	media := ev.Media
	release := func() { media.Close() }

	var before image.Image
	if v, ok := media.(*decoder.Video); ok {
		if err := v.Pause(); err != nil {
			release()
			return nil, nil, err
		}
		before = v.Texture()
		if err := v.Seek(at); err != nil {
			release()
			return nil, nil, err
		}
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if tex := media.Texture(); tex != nil && tex != before {
			return media, release, nil
		}
		select {
		case <-ctx.Done():
			release()
			return nil, nil, fmt.Errorf("no frame decoded: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
