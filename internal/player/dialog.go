package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
)

var (
	// ErrNoPicker is returned when no file dialog tool is installed.
	ErrNoPicker = errors.New("player: no file dialog available")

	// ErrPickCancelled is returned when the user closes the dialog.
	ErrPickCancelled = errors.New("player: file selection cancelled")
)

// FilePicker asks the user for a file, starting in dir.
type FilePicker interface {
	Pick(ctx context.Context, dir string) (string, error)
}

// ZenityPicker shows a GTK file dialog through the zenity tool.
type ZenityPicker struct {
	// Path defaults to zenity on PATH.
	Path string
}

// Pick runs zenity --file-selection.
func (z ZenityPicker) Pick(ctx context.Context, dir string) (string, error) {
	bin := z.Path
	if bin == "" {
		bin = "zenity"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoPicker, err)
	}

	args := []string{"--file-selection", "--title=Open video or image",
		"--file-filter=Media | *.mp4 *.mkv *.webm *.mov *.avi *.jpg *.jpeg *.png *.webp *.bmp *.tif *.tiff *.gif",
		"--file-filter=All files | *"}
	if dir != "" {
		args = append(args, "--filename="+dir+string(filepath.Separator))
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", ErrPickCancelled
		}
		return "", fmt.Errorf("zenity: %w", err)
	}
	picked := strings.TrimSpace(stdout.String())
	if picked == "" {
		return "", ErrPickCancelled
	}
	return picked, nil
}

// OpenDialog asks for a file in the background, starting in the folder of
// the previous pick, and opens it.
func (p *Player) OpenDialog() error {
	var dir string
	if err := p.call(func() error { dir = p.lastDir; return nil }); err != nil {
		return err
	}

	go func() {
		log := logger.WithComponent("player")
		path, err := p.opts.Picker.Pick(p.ctx, dir)
		switch {
		case errors.Is(err, ErrPickCancelled):
			log.Debug().Msg("File selection cancelled")
			return
		case err != nil:
			log.Warn().Err(err).Msg("File dialog failed")
			p.overlay.Announce("No file dialog available")
			return
		}
		p.enqueue(func() { p.lastDir = filepath.Dir(path) })
		p.Open(path)
	}()
	return nil
}
