package tray

import (
	"fmt"
	"strings"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/nebula"
)

// ItemID identifies a menu action.
type ItemID string

// Menu items.
const (
	ItemVersion    ItemID = "version"
	ItemInstall    ItemID = "install"
	ItemToggle     ItemID = "toggle"
	ItemStatus     ItemID = "status"
	ItemLighthouse ItemID = "lighthouse"
	ItemAddress    ItemID = "address"
	ItemSettings   ItemID = "settings"
	ItemOpenLog    ItemID = "open_log"
	ItemQuit       ItemID = "quit"
)

// MenuItem is one entry of the tray menu.
type MenuItem struct {
	ID      ItemID
	Title   string
	Tooltip string
	Enabled bool
}

// MenuInput is everything the menu is derived from.
type MenuInput struct {
	Readiness nebula.ReadinessState
	Running   bool
	LatencyMs int64
	// Version is the nebula version line, empty when unknown.
	Version    string
	Lighthouse nebula.LighthouseStatus
}

// MenuModel is the complete tray contents. It is always rebuilt from a
// MenuInput, never edited in place.
type MenuModel struct {
	Items   []MenuItem
	Running bool
	Tooltip string
	// Readiness is carried for the icon.
	Readiness nebula.ReadinessState
}

// BuildMenu derives the menu. Layouts are chosen most restrictive first:
// a missing binary only offers install, settings and quit.
func BuildMenu(in MenuInput) MenuModel {
	model := MenuModel{Running: in.Running, Readiness: in.Readiness}

	switch in.Readiness {
	case nebula.BinaryMissing:
		model.Tooltip = common.AppName + " - nebula not installed"
		model.Items = []MenuItem{
			{ID: ItemInstall, Title: "Install Nebula", Tooltip: "Download and install the nebula binary", Enabled: true},
			settingsItem(),
			quitItem(),
		}

	case nebula.ConfigMissing:
		model.Tooltip = common.AppName + " - not provisioned"
		// A running process stays stoppable even if its files disappeared.
		toggle := MenuItem{ID: ItemToggle, Title: "Connect", Tooltip: "Provision certificates first"}
		if in.Running {
			toggle = MenuItem{ID: ItemToggle, Title: "Stop", Tooltip: "Stop nebula", Enabled: true}
		}
		model.Items = []MenuItem{
			versionItem(in.Version),
			toggle,
			settingsItem(),
			quitItem(),
		}

	default:
		model.Tooltip = fmt.Sprintf("%s - %s", common.AppName, runningLabel(in.Running))
		toggle := MenuItem{ID: ItemToggle, Title: "Start", Tooltip: "Start nebula", Enabled: true}
		if in.Running {
			toggle = MenuItem{ID: ItemToggle, Title: "Stop", Tooltip: "Stop nebula", Enabled: true}
		}
		model.Items = []MenuItem{
			versionItem(in.Version),
			toggle,
			{ID: ItemStatus, Title: StatusLine(in.Running, in.LatencyMs)},
			{ID: ItemLighthouse, Title: LighthouseLine(in.Lighthouse)},
			{ID: ItemAddress, Title: AddressLine(in.Lighthouse)},
			settingsItem(),
			{ID: ItemOpenLog, Title: "Open Log", Tooltip: "Open the debug log", Enabled: true},
			{ID: ItemInstall, Title: "Reinstall Nebula", Tooltip: "Reinstall the nebula binary", Enabled: true},
			quitItem(),
		}
	}
	return model
}

// StatusLine formats the status entry, e.g. "Status: Running  |  Ping: 12ms".
func StatusLine(running bool, latencyMs int64) string {
	return fmt.Sprintf("Status: %s  |  Ping: %dms", runningLabel(running), latencyMs)
}

// LighthouseLine names the organization behind a reachable lighthouse.
func LighthouseLine(status nebula.LighthouseStatus) string {
	if !status.Connected {
		return "Not Connected"
	}
	if name := strings.TrimSpace(status.Info.CompanyName); name != "" {
		return "Connected to " + name
	}
	return "Connected to Lighthouse"
}

// AddressLine shows the overlay address reported by the lighthouse.
func AddressLine(status nebula.LighthouseStatus) string {
	if !status.Connected || strings.TrimSpace(status.Info.NebulaIP) == "" {
		return "My IP: Not Available"
	}
	return "My IP: " + strings.TrimSpace(status.Info.NebulaIP)
}

// VersionLabel formats the nebula version for display.
func VersionLabel(version string) string {
	v := strings.TrimSpace(version)
	if len(v) >= len("version:") && strings.EqualFold(v[:len("version:")], "version:") {
		v = strings.TrimSpace(v[len("version:"):])
	}
	if v == "" {
		return "Nebula (version unknown)"
	}
	return "Nebula " + v
}

func runningLabel(running bool) string {
	if running {
		return "Running"
	}
	return "Stopped"
}

func versionItem(version string) MenuItem {
	return MenuItem{ID: ItemVersion, Title: VersionLabel(version)}
}

func settingsItem() MenuItem {
	return MenuItem{ID: ItemSettings, Title: "Settings…", Tooltip: "Open the settings file", Enabled: true}
}

func quitItem() MenuItem {
	return MenuItem{ID: ItemQuit, Title: "Quit", Tooltip: "Stop nebula and quit", Enabled: true}
}

// IDs lists the item IDs in menu order.
func (m MenuModel) IDs() []ItemID {
	ids := make([]ItemID, len(m.Items))
	for i, item := range m.Items {
		ids[i] = item.ID
	}
	return ids
}

// Item returns the item with id.
func (m MenuModel) Item(id ItemID) (MenuItem, bool) {
	for _, item := range m.Items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Equal reports whether two models render identically.
func (m MenuModel) Equal(other MenuModel) bool {
	if m.Running != other.Running || m.Tooltip != other.Tooltip ||
		m.Readiness != other.Readiness || len(m.Items) != len(other.Items) {
		return false
	}
	for i := range m.Items {
		if m.Items[i] != other.Items[i] {
			return false
		}
	}
	return true
}

// Summary is a one-line description used by the logging publisher.
func (m MenuModel) Summary() string {
	parts := make([]string, 0, len(m.Items))
	for _, item := range m.Items {
		title := item.Title
		if !item.Enabled {
			title = "(" + title + ")"
		}
		parts = append(parts, title)
	}
	return strings.Join(parts, " | ")
}
