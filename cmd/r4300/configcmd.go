package main

import (
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/sarchlab/r4300/config"
	"github.com/sarchlab/r4300/loader"
)

func configCommand(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "write cartridge settings, optionally detected from an image",
		Flags: []cli.Flag{
			configFlag,
			modeFlag,
			countPerOpFlag,
			&cli.StringFlag{Name: "boot", Usage: "boot address (virtual)"},
			&cli.StringFlag{Name: "cartridge", Usage: "detect settings from this cartridge image"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "settings file to write (.toml or .json)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(fs, c)
			if err != nil {
				return err
			}

			if path := c.String("cartridge"); path != "" {
				image, err := loader.ReadCartridge(fs, path)
				if err != nil {
					return err
				}
				if cfg, err = config.Detect(cfg, image); err != nil {
					return err
				}
			}

			return cfg.Save(fs, c.String("out"))
		},
	}
}
