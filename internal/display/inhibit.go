package display

import (
	"fmt"
	"sync"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/godbus/dbus/v5"
)

// ScreenSaver D-Bus constants
const (
	screenSaverService = "org.freedesktop.ScreenSaver"
	screenSaverPath    = "/org/freedesktop/ScreenSaver"
	screenSaverIface   = "org.freedesktop.ScreenSaver"
)

// caller is the part of dbus.BusObject the inhibitor uses.
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Inhibitor keeps the desktop screensaver off while a video plays.
type Inhibitor struct {
	conn   *dbus.Conn
	obj    caller
	app    string
	mu     sync.Mutex
	cookie uint32
	active bool
}

// NewInhibitor connects to the session bus.
func NewInhibitor(app string) (*Inhibitor, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Inhibitor{
		conn: conn,
		obj:  conn.Object(screenSaverService, screenSaverPath),
		app:  app,
	}, nil
}

// Inhibit asks the screensaver to stay off. Repeated calls are no-ops.
func (i *Inhibitor) Inhibit(reason string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.active {
		return nil
	}

	var cookie uint32
	call := i.obj.Call(screenSaverIface+".Inhibit", 0, i.app, reason)
	if call.Err != nil {
		return fmt.Errorf("screensaver inhibit: %w", call.Err)
	}
	if err := call.Store(&cookie); err != nil {
		return fmt.Errorf("screensaver inhibit reply: %w", err)
	}
	i.cookie = cookie
	i.active = true
	logger.WithComponent("inhibit").Debug().Uint32("cookie", cookie).Str("reason", reason).Msg("Screensaver inhibited")
	return nil
}

// Release lifts the inhibition, if any.
func (i *Inhibitor) Release() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.active {
		return nil
	}
	i.active = false
	if call := i.obj.Call(screenSaverIface+".UnInhibit", 0, i.cookie); call.Err != nil {
		return fmt.Errorf("screensaver uninhibit: %w", call.Err)
	}
	logger.WithComponent("inhibit").Debug().Uint32("cookie", i.cookie).Msg("Screensaver released")
	return nil
}

// Set inhibits while playing is true and releases otherwise.
func (i *Inhibitor) Set(playing bool) error {
	if playing {
		return i.Inhibit("Playing video")
	}
	return i.Release()
}

// Close releases the inhibition and the bus connection.
func (i *Inhibitor) Close() error {
	err := i.Release()
	if i.conn != nil {
		if cerr := i.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
