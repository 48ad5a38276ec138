package system

import (
	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

type ZonesCmd struct{}

func (c *ZonesCmd) Run(ctx *cli.Context) error {
	now := ctx.Clock()
	current := ""
	if ctx.Store != nil {
		if settings, err := ctx.Store.GetSettings(); err == nil {
			current = settings.Timezone
		}
	}

	ctx.Println("Supported time zones:")
	for _, id := range zone.Supported {
		mark := " "
		if id == current {
			mark = "*"
		}
		ctx.Printf(" %s %s\n", mark, zone.Label(id, now))
	}
	return nil
}
