package display

import (
	"fmt"
	"image"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/VRPlayer/internal/config"
	"github.com/bryanchriswhite/VRPlayer/internal/logger"
)

// EventKind tells window events apart.
type EventKind int

const (
	EventKey EventKind = iota
	EventDrag
	EventScroll
	EventClose
)

// Event is user input from the window.
type Event struct {
	Kind EventKind
	// Key is the normalized key name for EventKey.
	Key string
	// DX, DY are pointer deltas in pixels for EventDrag.
	DX, DY int
	// Steps is +1 per wheel notch up, -1 down, for EventScroll.
	Steps int
}

// Manager owns the X11 window showing the composed stereo frame.
type Manager struct {
	conn       *xgb.Conn
	screen     *xproto.ScreenInfo
	window     xproto.Window
	gc         xproto.Gcontext
	width      int
	height     int
	fullscreen bool
	running    bool
	mu         sync.RWMutex
	stopChan   chan struct{}
	events     chan Event

	minKeycode xproto.Keycode
	perKeycode int
	keysyms    []xproto.Keysym

	wmProtocols xproto.Atom
	wmDelete    xproto.Atom

	dragging     bool
	lastX, lastY int
}

// NewManager connects to the X server.
func NewManager(cfg *config.DisplayConfig) (*Manager, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	m := &Manager{
		conn:       conn,
		screen:     setup.DefaultScreen(conn),
		width:      cfg.Width,
		height:     cfg.Height,
		fullscreen: cfg.Fullscreen,
		stopChan:   make(chan struct{}),
		events:     make(chan Event, 64),
	}
	if err := m.loadKeyboardMapping(); err != nil {
		conn.Close()
		return nil, err
	}
	return m, nil
}

// Events delivers key, drag, scroll and close events.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Name returns the output type name
func (m *Manager) Name() string {
	return "X11 Window"
}

// Start creates and shows the window
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("display already running")
	}
	log := logger.WithComponent("display")

	windowID, err := xproto.NewWindowId(m.conn)
	if err != nil {
		return fmt.Errorf("failed to create window ID: %w", err)
	}
	m.window = windowID

	mask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	values := []uint32{
		0x000000,
		xproto.EventMaskExposure | xproto.EventMaskStructureNotify |
			xproto.EventMaskKeyPress | xproto.EventMaskButtonPress |
			xproto.EventMaskButtonRelease | xproto.EventMaskButton1Motion,
	}

	err = xproto.CreateWindowChecked(
		m.conn,
		m.screen.RootDepth,
		m.window,
		m.screen.Root,
		0, 0,
		uint16(m.width), uint16(m.height),
		0,
		xproto.WindowClassInputOutput,
		m.screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	if err := m.setWindowTitle("VRPlayer"); err != nil {
		log.Warn().Err(err).Msg("Failed to set window title")
	}
	if err := m.setWindowClass("vrplayer", "VRPlayer"); err != nil {
		log.Warn().Err(err).Msg("Failed to set window class")
	}
	if err := m.setDeleteProtocol(); err != nil {
		log.Warn().Err(err).Msg("Failed to register WM_DELETE_WINDOW")
	}

	if err := xproto.MapWindowChecked(m.conn, m.window).Check(); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}

	gc, err := xproto.NewGcontextId(m.conn)
	if err != nil {
		return fmt.Errorf("failed to create graphics context: %w", err)
	}
	if err := xproto.CreateGCChecked(m.conn, gc, xproto.Drawable(m.window), 0, nil).Check(); err != nil {
		return fmt.Errorf("failed to create GC: %w", err)
	}
	m.gc = gc
	m.conn.Sync()

	if m.fullscreen {
		if err := m.sendFullscreen(true); err != nil {
			log.Warn().Err(err).Msg("Failed to enter fullscreen")
		}
	}

	m.running = true
	go m.eventLoop()

	log.Info().
		Int("width", m.width).
		Int("height", m.height).
		Uint32("window_id", uint32(m.window)).
		Msg("Display window created")
	return nil
}

// Stop closes the window
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	close(m.stopChan)

	if m.gc != 0 {
		xproto.FreeGC(m.conn, m.gc)
	}
	if m.window != 0 {
		xproto.DestroyWindow(m.conn, m.window)
		m.conn.Sync()
	}
	m.running = false
	m.conn.Close()

	logger.WithComponent("display").Info().Msg("Display window closed")
	return nil
}

// IsRunning returns whether the window is shown
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Size returns the current window size.
func (m *Manager) Size() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.width, m.height
}

// WriteFrame letterboxes the frame into the window.
func (m *Manager) WriteFrame(frame *image.RGBA) error {
	if !m.IsRunning() {
		return fmt.Errorf("display not running")
	}
	w, h := m.Size()
	out := frame
	if frame.Bounds().Dx() != w || frame.Bounds().Dy() != h {
		out = Fit(frame, w, h)
	}
	return m.putImage(out)
}

// ToggleFullscreen flips fullscreen and returns the new state.
func (m *Manager) ToggleFullscreen() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sendFullscreen(!m.fullscreen); err != nil {
		return m.fullscreen, err
	}
	m.fullscreen = !m.fullscreen
	return m.fullscreen, nil
}

// sendFullscreen asks the window manager to change _NET_WM_STATE.
func (m *Manager) sendFullscreen(on bool) error {
	state, err := m.getAtom("_NET_WM_STATE")
	if err != nil {
		return err
	}
	fs, err := m.getAtom("_NET_WM_STATE_FULLSCREEN")
	if err != nil {
		return err
	}
	action := uint32(0)
	if on {
		action = 1
	}
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: m.window,
		Type:   state,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{action, uint32(fs), 0, 1, 0}),
	}
	return xproto.SendEventChecked(
		m.conn,
		false,
		m.screen.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// eventLoop turns X events into Events until Stop.
func (m *Manager) eventLoop() {
	log := logger.WithComponent("display")
	for {
		ev, xerr := m.conn.WaitForEvent()
		select {
		case <-m.stopChan:
			return
		default:
		}
		if ev == nil && xerr == nil {
			log.Info().Msg("X connection closed")
			m.emit(Event{Kind: EventClose})
			return
		}
		if xerr != nil {
			log.Debug().Str("error", xerr.Error()).Msg("X error")
			continue
		}

		switch e := ev.(type) {
		case xproto.KeyPressEvent:
			m.emit(Event{Kind: EventKey, Key: KeysymName(m.keysym(e.Detail, e.State))})
		case xproto.ButtonPressEvent:
			switch e.Detail {
			case 1:
				m.dragging, m.lastX, m.lastY = true, int(e.EventX), int(e.EventY)
			case 4:
				m.emit(Event{Kind: EventScroll, Steps: 1})
			case 5:
				m.emit(Event{Kind: EventScroll, Steps: -1})
			}
		case xproto.ButtonReleaseEvent:
			if e.Detail == 1 {
				m.dragging = false
			}
		case xproto.MotionNotifyEvent:
			if m.dragging {
				x, y := int(e.EventX), int(e.EventY)
				m.emit(Event{Kind: EventDrag, DX: x - m.lastX, DY: y - m.lastY})
				m.lastX, m.lastY = x, y
			}
		case xproto.ConfigureNotifyEvent:
			m.mu.Lock()
			m.width, m.height = int(e.Width), int(e.Height)
			m.mu.Unlock()
		case xproto.ClientMessageEvent:
			if e.Type == m.wmProtocols && xproto.Atom(e.Data.Data32[0]) == m.wmDelete {
				m.emit(Event{Kind: EventClose})
			}
		case xproto.DestroyNotifyEvent:
			m.emit(Event{Kind: EventClose})
			return
		}
	}
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		logger.WithComponent("display").Warn().Int("kind", int(ev.Kind)).Msg("Input event dropped")
	}
}

func (m *Manager) loadKeyboardMapping() error {
	setup := xproto.Setup(m.conn)
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	reply, err := xproto.GetKeyboardMapping(m.conn, setup.MinKeycode, count).Reply()
	if err != nil {
		return fmt.Errorf("failed to get keyboard mapping: %w", err)
	}
	m.minKeycode = setup.MinKeycode
	m.perKeycode = int(reply.KeysymsPerKeycode)
	m.keysyms = reply.Keysyms
	return nil
}

// keysym resolves a keycode with the shift level from state.
func (m *Manager) keysym(code xproto.Keycode, state uint16) xproto.Keysym {
	i := int(code-m.minKeycode) * m.perKeycode
	if i < 0 || i >= len(m.keysyms) {
		return 0
	}
	if state&xproto.KeyButMaskShift != 0 && m.perKeycode > 1 && m.keysyms[i+1] != 0 {
		return m.keysyms[i+1]
	}
	return m.keysyms[i]
}

// putImage sends an image to the window in row strips that fit the
// server's maximum request length.
func (m *Manager) putImage(img *image.RGBA) error {
	bounds := img.Bounds()
	imgWidth, imgHeight := bounds.Dx(), bounds.Dy()

	depth := m.screen.RootDepth
	setup := xproto.Setup(m.conn)

	var bitsPerPixel, scanlinePad uint8
	for _, format := range setup.PixmapFormats {
		if format.Depth == depth {
			bitsPerPixel = format.BitsPerPixel
			scanlinePad = format.ScanlinePad
			break
		}
	}
	if bitsPerPixel == 0 {
		return fmt.Errorf("no format found for depth %d", depth)
	}

	bytesPerPixel := int(bitsPerPixel) / 8
	if bytesPerPixel != 3 && bytesPerPixel != 4 {
		return fmt.Errorf("unsupported bytes per pixel: %d", bytesPerPixel)
	}
	padBytes := int(scanlinePad) / 8
	stride := ((imgWidth*bytesPerPixel + padBytes - 1) / padBytes) * padBytes

	// request length is in 4-byte units; PutImage has a 24-byte header
	maxData := int(setup.MaximumRequestLength)*4 - 24
	rowsPerStrip := maxData / stride
	if rowsPerStrip < 1 {
		return fmt.Errorf("frame row of %d bytes exceeds X request size", stride)
	}

	for y0 := 0; y0 < imgHeight; y0 += rowsPerStrip {
		rows := rowsPerStrip
		if y0+rows > imgHeight {
			rows = imgHeight - y0
		}
		data := make([]byte, stride*rows)
		for y := 0; y < rows; y++ {
			src := img.Pix[img.PixOffset(bounds.Min.X, bounds.Min.Y+y0+y):]
			dst := data[y*stride:]
			for x := 0; x < imgWidth; x++ {
				s, d := x*4, x*bytesPerPixel
				dst[d] = src[s+2]
				dst[d+1] = src[s+1]
				dst[d+2] = src[s]
				if bytesPerPixel == 4 && depth == 32 {
					dst[d+3] = src[s+3]
				}
			}
		}
		err := xproto.PutImageChecked(
			m.conn,
			xproto.ImageFormatZPixmap,
			xproto.Drawable(m.window),
			m.gc,
			uint16(imgWidth), uint16(rows),
			0, int16(y0),
			0,
			depth,
			data,
		).Check()
		if err != nil {
			return fmt.Errorf("failed to put image: %w", err)
		}
	}
	return nil
}

// setWindowTitle sets the window title
func (m *Manager) setWindowTitle(title string) error {
	titleAtom, err := m.getAtom("_NET_WM_NAME")
	if err != nil {
		return err
	}
	utf8Atom, err := m.getAtom("UTF8_STRING")
	if err != nil {
		return err
	}
	return xproto.ChangePropertyChecked(
		m.conn,
		xproto.PropModeReplace,
		m.window,
		titleAtom,
		utf8Atom,
		8,
		uint32(len(title)),
		[]byte(title),
	).Check()
}

// setWindowClass sets the window class
func (m *Manager) setWindowClass(instance, class string) error {
	classStr := instance + "\x00" + class + "\x00"
	return xproto.ChangePropertyChecked(
		m.conn,
		xproto.PropModeReplace,
		m.window,
		xproto.AtomWmClass,
		xproto.AtomString,
		8,
		uint32(len(classStr)),
		[]byte(classStr),
	).Check()
}

// setDeleteProtocol asks the window manager for a ClientMessage instead of
// killing the connection when the window is closed.
func (m *Manager) setDeleteProtocol() error {
	protocols, err := m.getAtom("WM_PROTOCOLS")
	if err != nil {
		return err
	}
	del, err := m.getAtom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	m.wmProtocols, m.wmDelete = protocols, del

	data := make([]byte, 4)
	xgb.Put32(data, uint32(del))
	return xproto.ChangePropertyChecked(
		m.conn,
		xproto.PropModeReplace,
		m.window,
		protocols,
		xproto.AtomAtom,
		32,
		1,
		data,
	).Check()
}

// getAtom gets an atom ID by name
func (m *Manager) getAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(m.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}
