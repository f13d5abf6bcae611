//go:build tinygo

package main

import (
	"context"

	"ember/app"
	"ember/hal"
	"ember/internal/config"
	"ember/kernel"
)

func main() {
	k := kernel.New(nil)
	h := hal.New(k)
	k.SetLogger(h.Logger())

	cfg := config.Default()
	if err := config.Validate(cfg); err != nil {
		h.Logger().WriteLineString("config: " + err.Error())
		select {}
	}
	config.Normalize(cfg)

	b, err := app.New(k, h, cfg)
	if err != nil {
		h.Logger().WriteLineString(err.Error())
		select {}
	}
	_ = b.Run(context.Background(), 0)
}
