package player

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bryanchriswhite/VRPlayer/internal/camera"
	"github.com/bryanchriswhite/VRPlayer/internal/decoder"
	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
)

// loaded is the outcome of one load attempt, handed to the render goroutine.
type loaded struct {
	uri     string
	content projection.Content
	media   decoder.Media
	err     error
}

// Open loads uri in the background; the result is applied at a frame
// boundary. A video the decoder rejects is retried as a still image.
func (p *Player) Open(uri string) error {
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	logger.WithComponent("player").Info().Str("uri", uri).Msg("Opening")
	p.setStatus(func(s *Status) { s.Loading = true })

	go func() {
		res := p.load(p.ctx, uri)
		if err := p.enqueue(func() { p.apply(res) }); err != nil && res.media != nil {
			res.media.Close()
		}
	}()
	return nil
}

// OpenAndWait is Open followed by waiting for the result to be applied.
func (p *Player) OpenAndWait(ctx context.Context, uri string) error {
	res := p.load(ctx, uri)
	err := p.call(func() error { return p.apply(res) })
	if errors.Is(err, ErrStopped) && res.media != nil {
		res.media.Close()
	}
	return err
}

// load runs off the render goroutine: prepare, and fall back to a still
// image when the input is not playable.
func (p *Player) load(ctx context.Context, uri string) loaded {
	log := logger.WithComponent("player")

	if p.opts.Decoder == nil {
		content, err := p.opts.LoadImage(uri)
		if err != nil {
			return loaded{uri: uri, err: fmt.Errorf("%w: %v", ErrContentLoadFailure, err)}
		}
		return loaded{uri: uri, content: content}
	}

	events := p.opts.Decoder.Prepare(ctx, uri)
	var ev decoder.Event
	select {
	case ev = <-events:
	case <-ctx.Done():
		go discardPrepared(events)
		return loaded{uri: uri, err: ctx.Err()}
	}
	if ev.Err == nil {
		return loaded{uri: uri, content: ev.Content(), media: ev.Media}
	}
	if !decoder.Unplayable(ev.Err) {
		return loaded{uri: uri, err: fmt.Errorf("%w: %v", ErrContentLoadFailure, ev.Err)}
	}

	log.Info().Err(ev.Err).Str("uri", uri).Msg("Not playable as video, trying as image")
	content, err := p.opts.LoadImage(uri)
	if err != nil {
		return loaded{uri: uri, err: fmt.Errorf("%w: video: %v; image: %v", ErrContentLoadFailure, ev.Err, err)}
	}
	return loaded{uri: uri, content: content}
}

// discardPrepared closes media that finishes opening after its caller gave
// up waiting.
func discardPrepared(events <-chan decoder.Event) {
	for ev := range events {
		if ev.Media == nil {
			continue
		}
		logger.WithComponent("player").Debug().Str("uri", ev.URI).Msg("Closing abandoned media")
		ev.Media.Close()
	}
}

// apply binds a load result. It runs on the render goroutine, so the
// selector and compositor are reconfigured before the next Render. On
// failure both keep the previous content.
func (p *Player) apply(res loaded) error {
	p.setStatus(func(s *Status) { s.Loading = false })
	if res.err != nil {
		p.reportLoadFailure(res.uri, res.err)
		return res.err
	}

	prev := p.compositor.Content()
	err := p.compositor.Reconfigure(res.content)
	var strategy projection.Strategy
	if err == nil {
		strategy, err = p.selector.OnContentLoaded(res.content)
		if err != nil && prev != nil {
			if rerr := p.compositor.Reconfigure(prev); rerr != nil {
				logger.WithComponent("player").Error().Err(rerr).Msg("Failed to restore previous content")
			}
		}
	}
	if err != nil {
		if res.media != nil {
			res.media.Close()
		}
		err = fmt.Errorf("%w: %v", ErrContentLoadFailure, err)
		p.reportLoadFailure(res.uri, err)
		return err
	}

	if p.media != nil {
		p.media.Close()
	}
	p.media = res.media
	if p.media != nil {
		p.media.OnError(func(err error) {
			p.enqueue(func() { p.reportPlaybackError(err) })
		})
	}
	p.centerCamera(strategy)

	logger.WithComponent("player").Info().
		Str("uri", res.uri).
		Int("width", res.content.Width()).
		Int("height", res.content.Height()).
		Bool("video", res.media != nil).
		Msg("Content resolution")

	p.setStatus(func(s *Status) {
		s.URI = res.uri
		s.Video = res.media != nil
		s.Width = res.content.Width()
		s.Height = res.content.Height()
		s.LastError = ""
	})
	p.syncStrategy(strategy)
	p.syncPlayback()
	p.overlay.Announce(strategy.Name())
	return nil
}

func (p *Player) reportLoadFailure(uri string, err error) {
	logger.WithComponent("player").Error().Err(err).Str("uri", uri).Msg("Failed to load content")
	p.setStatus(func(s *Status) { s.LastError = err.Error() })
	if errors.Is(err, context.Canceled) {
		return
	}
	p.overlay.Announce("Could not open " + filepath.Base(decoder.PathFromURI(uri)))
}

func (p *Player) reportPlaybackError(err error) {
	p.setStatus(func(s *Status) { s.LastError = err.Error() })
	p.syncPlayback()
	p.overlay.Announce("Playback error")
}

// centerCamera looks at the middle of the content: the left half of the
// target for 180° projections, the whole target for 360°.
func (p *Player) centerCamera(s projection.Strategy) {
	if s.Kind().Layout() == projection.Panoramic360 {
		p.camera.SetCenter(camera.Center360)
	} else {
		p.camera.SetCenter(camera.Center180)
	}
}
