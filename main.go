package main

import (
	cmd "github.com/streetninja/ninjabrain/cmd/ninjabrain"
	"github.com/streetninja/ninjabrain/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting ninjabrain")
	cmd.Execute()
}
