package tray

import (
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/nebula-tower/common"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsMethod = notificationsDest + ".Notify"

	notificationTimeoutMs = int32(5000)
)

// Urgency hint values of org.freedesktop.Notifications.
const (
	urgencyLow      byte = 0
	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

// DBusNotifier sends desktop notifications over the session bus.
type DBusNotifier struct {
	logger common.Logger

	mu   sync.Mutex
	conn *dbus.Conn
}

// NewDBusNotifier creates a notifier. The bus is connected on first use.
func NewDBusNotifier(logger common.Logger) *DBusNotifier {
	return &DBusNotifier{logger: common.OrDefault(logger)}
}

// Notify implements common.Notifier.
func (n *DBusNotifier) Notify(title, message string) error {
	conn, err := n.connection()
	if err != nil {
		return common.WrapError(err, "session bus unavailable")
	}

	icon, urgency := notificationStyle(title)
	hints := notificationHints(urgency)
	call := conn.Object(notificationsDest, notificationsPath).Call(notificationsMethod, 0,
		common.AppName, uint32(0), icon, title, message, []string{}, hints, notificationTimeoutMs)
	if call.Err != nil {
		n.reset()
		return common.WrapError(call.Err, "failed to send notification")
	}
	return nil
}

// Close releases the bus connection.
func (n *DBusNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}

func (n *DBusNotifier) connection() (*dbus.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil && n.conn.Connected() {
		return n.conn, nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	n.conn = conn
	return conn, nil
}

func (n *DBusNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil && !n.conn.Connected() {
		n.conn = nil
	}
}

// notificationStyle picks an icon and urgency from the title wording.
func notificationStyle(title string) (string, byte) {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "failed"):
		return "dialog-error", urgencyCritical
	case strings.Contains(lower, "stopped"):
		return "network-vpn-disconnected", urgencyNormal
	default:
		return "network-vpn", urgencyLow
	}
}

// notificationHints ties the notification to the application's desktop entry.
func notificationHints(urgency byte) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(urgency),
		"desktop-entry": dbus.MakeVariant(common.AppID),
	}
}

// LogNotifier writes notifications to the log. Used when no session bus exists.
type LogNotifier struct {
	Logger common.Logger
}

// Notify implements common.Notifier.
func (n LogNotifier) Notify(title, message string) error {
	common.OrDefault(n.Logger).Info("Notification: %s: %s", title, message)
	return nil
}
