package main

import (
	"fmt"

	"github.com/kadirpekel/argos/pkg/server"
)

// ServeCmd serves question answering over local HTTP.
type ServeCmd struct {
	Path string `short:"p" default:"." help:"Indexed folder." type:"path"`
	Addr string `help:"Address to bind (host:port). Defaults to the configured address."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	root, err := resolveRoot(c.Path)
	if err != nil {
		return err
	}

	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
		if err := cfg.Server.Validate(); err != nil {
			return err
		}
	}

	engine, cleanup, err := buildEngine(cfg, root)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(engine, cfg.Server.Addr)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("argos QA endpoint ready\n")
	fmt.Printf("   Ask:     http://%s/ask\n", srv.Addr())
	fmt.Printf("   Health:  http://%s/healthz\n", srv.Addr())
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}
