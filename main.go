package main

import (
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"go-keytrack/cli"
)

func main() {
	cli.Execute()
}
