/*
Package tray provides the system tray front end of Nebula Tower.

The menu is never edited in place. BuildMenu derives a complete MenuModel
from readiness, running state, latency and version, and the Synchronizer
rebuilds and publishes it after every change:

  - nebula missing: Install Nebula, Settings, Quit
  - not provisioned: version label, disabled Connect, Settings, Quit
  - ready: version label, Start/Stop, status line, Settings, Open Log,
    Reinstall Nebula, Quit

Publishers:

  - SystrayPublisher: renders into the desktop tray via fyne.io/systray
  - LogPublisher: logs menu changes (headless mode)

Application owns the nebula components and handles menu clicks through
Dispatch. Notifications go over D-Bus when a session bus is available.
*/
package tray
