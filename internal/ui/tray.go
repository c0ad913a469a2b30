// Package ui provides the optional system tray for the recording server.
// The tray is a passive status surface; all recording state lives in the
// recorder and the tray only mirrors it.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/nepfaff/drake-blender-recorder/internal/recorder"
)

type Tray struct {
	recorder *recorder.Recorder
	logger   *slog.Logger

	statusItem *systray.MenuItem
	framesItem *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Recorder *recorder.Recorder
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		onQuit:   cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Pose Recorder")
	systray.SetTooltip("Drake Pose Recording Server")

	t.statusItem = systray.AddMenuItem("Status: Waiting", "Current recording status")
	t.statusItem.Disable()

	t.framesItem = systray.AddMenuItem("Frames: 0", "Recorded frame count")
	t.framesItem.Disable()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Stop recording and quit")

	go func() {
		for range quitItem.ClickedCh {
			t.logger.Info("quit requested from tray")
			if t.onQuit != nil {
				t.onQuit()
			}
			systray.Quit()
			return
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// RefreshFrames updates the frame counter from the recorder.
func (t *Tray) RefreshFrames() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.framesItem == nil || t.recorder == nil {
		return
	}
	count := t.recorder.FrameCount()
	t.framesItem.SetTitle(fmt.Sprintf("Frames: %d", count))
	if count > 0 {
		t.statusItem.SetTitle("Status: Recording")
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
