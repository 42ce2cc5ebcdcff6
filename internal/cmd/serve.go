package cmd

import (
	"github.com/MrJJimenez/jobscout/internal/api"
)

type ServeCmd struct {
	Listen  string `help:"Listen address (default from config)."`
	Proxies string `help:"Comma-separated proxy URLs." env:"JOBSCOUT_PROXIES"`
	NoStore bool   `help:"Do not save ranked results to the local store."`
	Debug   bool   `help:"Run gin in debug mode."`
}

func (s *ServeCmd) Run(ctx *Context) error {
	e, err := openEngine(ctx, engineOptions{proxies: s.Proxies, noStore: s.NoStore})
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := ctx.Config
	handler := api.NewHandler(e.orchestrator, e.limits, ctx.Version, ctx.Logger)
	server := api.NewServer(handler, api.ServerConfig{
		Addr:       firstNonEmpty(s.Listen, cfg.Server.Listen),
		Debug:      s.Debug || cfg.Server.Debug,
		MaxTimeout: millis(cfg.Search.MaxTimeoutMs),
	}, ctx.Logger)
	return server.Run(ctx.runContext())
}
