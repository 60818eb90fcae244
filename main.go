// Package main provides the entry point for the Segmate application.
package main

import (
	"log"
	"os"
	"time"

	"segmate/internal/app"
	"segmate/internal/plugins"
	"segmate/internal/version"
	"segmate/ui/mainwindow"
	"segmate/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const (
	appID    = "org.segmate.segmate"
	appTitle = "Segmate"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.SegmateTheme{})

	appPrefs := prefs.Load()
	pluginDir := appPrefs.String(prefs.KeyPluginDir)
	if pluginDir == "" {
		if d, err := plugins.DefaultDir(); err == nil {
			pluginDir = d
		} else {
			log.Printf("Plugins: %v", err)
		}
	}
	appState := app.NewState(pluginDir)

	win := mainwindow.New(fyneApp, appState, appPrefs)

	setupHotReload(win, appState)

	// Handle command line arguments
	if len(os.Args) > 1 {
		projectPath := os.Args[1]
		if err := win.OpenProject(projectPath); err != nil {
			log.Printf("Failed to load project %s: %v", projectPath, err)
		}
	} else {
		win.RestoreLastProject()
	}

	win.SetCloseIntercept(func() {
		win.SavePreferences()
		win.Close()
	})
	win.ShowAndRun()
}

// setupHotReload configures automatic restart detection when the binary is
// recompiled, and reload prompts when the open project file changes on disk.
func setupHotReload(win *mainwindow.MainWindow, state *app.State) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.StartupTime().Format("15:04:05"))

	reloader.OnTick(func() {
		win.SavePreferencesIfChanged()
	})

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				log.Println("Hot reload: saving preferences before restart...")
				win.SavePreferences()
				log.Println("Hot reload: restarting...")
				if err := reloader.Restart(); err != nil {
					log.Printf("Hot reload: restart failed: %v", err)
				}
			}, win.Window)
	})

	// Saving rewrites the project file; rewatching moves the baseline past it.
	var watched string
	watch := func(data interface{}) {
		if watched != "" {
			reloader.Unwatch(watched)
		}
		watched, _ = data.(string)
		if err := reloader.Watch(watched); err != nil {
			log.Printf("Hot reload: %v", err)
			watched = ""
		}
	}
	state.On(app.EventProjectLoaded, watch)
	state.On(app.EventProjectSaved, watch)
	state.On(app.EventProjectClosed, func(interface{}) {
		reloader.Unwatch(watched)
		watched = ""
	})
	reloader.OnFileChanged(func(path string) {
		log.Printf("Hot reload: %s changed on disk", path)
		dialog.ShowConfirm("Project Changed",
			"The project file was changed by another program.\nReload it? Unsaved edits are lost.",
			func(reload bool) {
				if !reload {
					return
				}
				if err := win.OpenProject(path); err != nil {
					dialog.ShowError(err, win.Window)
				}
			}, win.Window)
	})

	reloader.Start()
}
