package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"netplay-arena/internal/core"
)

func main() {
	log := logrus.New()
	if os.Getenv("SIM_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}

	game, err := core.NewGame(log)
	if err != nil {
		log.Fatal(err)
	}
	if err := game.Run(); err != nil {
		log.Fatal(err)
	}
}
