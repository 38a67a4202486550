package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/emberforge/ember/engine"
	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/renderer/metadata"
	"github.com/emberforge/ember/testbed"
)

const configPath = "ember.toml"

func main() {
	cfg, err := engine.LoadApplicationConfig(configPath)
	if err != nil {
		core.LogWarn("using default config: %s", err)
		cfg = engine.DefaultApplicationConfig()
	}

	game := testbed.NewGame("testbed")
	root := &metadata.WindowSpec{
		Title:  cfg.Name,
		X:      cfg.StartPosX,
		Y:      cfg.StartPosY,
		Width:  cfg.StartWidth,
		Height: cfg.StartHeight,
		Bindings: []metadata.Binding{
			{Name: game.Name(), Content: game},
		},
		ActiveBinding: game.Name(),
	}

	app, err := engine.New(cfg, root)
	if err != nil {
		core.LogFatal("failed to create engine: %s", err)
	}
	app.WatchConfig(configPath)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		app.RequestQuit()
	}()

	if err := app.Run(); err != nil {
		core.LogFatal("engine stopped with error: %s", err)
	}
}
