package main

import (
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/app"
	"github.com/code-payments/custody-server/pkg/custody/worker"
)

func main() {
	if err := app.Run(worker.New()); err != nil {
		logrus.WithError(err).Fatal("error running custody worker")
	}
}
