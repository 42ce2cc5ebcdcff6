package cmd

import (
	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version      VersionCmd `cmd:"" help:"Print version."`
	Config       ConfigCmd  `cmd:"" help:"Manage configuration."`
	Serve        ServeCmd   `cmd:"" help:"Run the HTTP search API."`
	Search       SearchCmd  `cmd:"" help:"Search and rank job listings across sources."`
	LinkedIn     SiteCmd    `cmd:"" name:"linkedin" help:"Search LinkedIn."`
	Indeed       SiteCmd    `cmd:"" name:"indeed" help:"Search Indeed."`
	Glassdoor    SiteCmd    `cmd:"" name:"glassdoor" help:"Search Glassdoor."`
	ZipRecruiter SiteCmd    `cmd:"" name:"ziprecruiter" help:"Search ZipRecruiter."`
	Stepstone    SiteCmd    `cmd:"" name:"stepstone" help:"Search Stepstone."`
	Adzuna       SiteCmd    `cmd:"" name:"adzuna" help:"Search the Adzuna API."`
	History      HistoryCmd `cmd:"" help:"List recently ranked jobs from the local store."`
	Seen         SeenCmd    `cmd:"" help:"Seen jobs utilities."`
	Proxies      ProxiesCmd `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{
		LinkedIn:     SiteCmd{Source: models.SourceLinkedIn},
		Indeed:       SiteCmd{Source: models.SourceIndeed},
		Glassdoor:    SiteCmd{Source: models.SourceGlassdoor},
		ZipRecruiter: SiteCmd{Source: models.SourceZipRecruiter},
		Stepstone:    SiteCmd{Source: models.SourceStepstone},
		Adzuna:       SiteCmd{Source: models.SourceAdzuna},
	}
}
