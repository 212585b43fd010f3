package decoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Probe describes the first video stream of a file.
type Probe struct {
	Width     int
	Height    int
	FrameRate float64
	Duration  time.Duration
	Codec     string
	Format    string
}

type ffprobeOutput struct {
	Streams []struct {
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

// ProbeFile runs ffprobe on path.
func ProbeFile(ctx context.Context, ffprobe, path string) (Probe, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,avg_frame_rate,r_frame_rate:format=format_name,duration",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return Probe{}, ctx.Err()
		}
		return Probe{}, fmt.Errorf("%w: ffprobe %s: %s", ErrNotVideo, path, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(out)
}

// parseProbe decodes ffprobe JSON. Still-image demuxers count as not video.
func parseProbe(data []byte) (Probe, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return Probe{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(raw.Streams) == 0 {
		return Probe{}, fmt.Errorf("%w: no video stream", ErrNotVideo)
	}
	if isImageFormat(raw.Format.FormatName) {
		return Probe{}, fmt.Errorf("%w: %s is a still image format", ErrNotVideo, raw.Format.FormatName)
	}

	s := raw.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return Probe{}, fmt.Errorf("%w: stream has no dimensions", ErrNotVideo)
	}
	p := Probe{
		Width:  s.Width,
		Height: s.Height,
		Codec:  s.CodecName,
		Format: raw.Format.FormatName,
	}
	p.FrameRate = parseFrameRate(s.AvgFrameRate)
	if p.FrameRate <= 0 {
		p.FrameRate = parseFrameRate(s.RFrameRate)
	}
	if p.FrameRate <= 0 {
		p.FrameRate = 30
	}
	if secs, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil && secs > 0 {
		p.Duration = time.Duration(secs * float64(time.Second))
	}
	return p, nil
}

func isImageFormat(format string) bool {
	for _, name := range strings.Split(format, ",") {
		if name == "image2" || strings.HasSuffix(name, "_pipe") {
			return true
		}
	}
	return false
}

// parseFrameRate parses ffprobe rates such as "30000/1001" or "25".
func parseFrameRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
