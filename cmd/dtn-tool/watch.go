package main

import (
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"

	"github.com/teschmitt/go-dtn7/client"
)

// watchBundles for the "watch" CLI option.
func watchBundles(args []string) {
	if len(args) != 2 {
		printUsage()
	}

	var (
		apiUrl     = args[0]
		endpointId = args[1]
	)

	wsc, err := client.NewWSClient(apiUrl, client.BundleMode)
	if err != nil {
		printFatal(err, "Connecting to the websocket errored")
	}
	defer wsc.Close()

	if err = wsc.Subscribe(endpointId); err != nil {
		printFatal(err, "Subscribing errored")
	}

	log.WithFields(log.Fields{
		"node":     wsc.NodeID(),
		"endpoint": endpointId,
	}).Info("Watching for incoming Bundles")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		wsc.Close()
		os.Exit(0)
	}()

	for {
		b, err := wsc.ReadBundle()
		if err != nil {
			printFatal(err, "Reading Bundle errored")
		}

		if bMsg, err := b.MarshalJSON(); err != nil {
			log.WithError(err).Warn("Marshaling JSON errored")
		} else {
			fmt.Println(string(bMsg))
		}
	}
}
