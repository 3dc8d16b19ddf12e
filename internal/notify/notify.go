// Package notify sends desktop notifications through the freedesktop
// notification service on the session bus.
package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// ErrUnavailable indicates there is no session bus to notify through.
var ErrUnavailable = errors.New("desktop notifications unavailable")

const (
	busName       = "org.freedesktop.Notifications"
	objectPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod  = busName + ".Notify"
	appName       = "pomo"
	expireDefault = int32(-1)
)

// Desktop notifies over D-Bus. The bus connection is established lazily on
// the first notification and reused afterwards.
type Desktop struct {
	mu   sync.Mutex
	conn *dbus.Conn
	err  error
	dial func() (*dbus.Conn, error)
}

// NewDesktop returns a notifier bound to the user's session bus.
func NewDesktop() *Desktop {
	return &Desktop{dial: dbus.SessionBus}
}

// Notify shows summary and body. It never blocks on a missing bus twice:
// once dialing fails every later call returns ErrUnavailable.
func (d *Desktop) Notify(summary, body string) error {
	conn, err := d.connect()
	if err != nil {
		return err
	}
	obj := conn.Object(busName, objectPath)
	call := obj.Call(notifyMethod, 0,
		appName,
		uint32(0),
		"",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		expireDefault,
	)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	return nil
}

func (d *Desktop) connect() (*dbus.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return d.conn, nil
	}
	if d.err != nil {
		return nil, d.err
	}
	conn, err := d.dial()
	if err != nil {
		d.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return nil, d.err
	}
	d.conn = conn
	return conn, nil
}

// Noop discards notifications.
type Noop struct{}

// Notify implements the notifier interface.
func (Noop) Notify(string, string) error {
	return nil
}
