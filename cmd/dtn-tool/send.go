package main

import (
	"io"
	"os"
	"strconv"

	"github.com/teschmitt/go-dtn7/client"
)

// sendBundle for the "send" CLI option.
func sendBundle(args []string) {
	if len(args) != 3 {
		printUsage()
	}

	var (
		host      = args[0]
		dataInput = args[2]

		err  error
		port uint64
		data []byte
		c    *client.RESTClient
	)

	if port, err = strconv.ParseUint(args[1], 10, 16); err != nil {
		printFatal(err, "Parsing port errored")
	}

	if dataInput == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(dataInput)
	}
	if err != nil {
		printFatal(err, "Reading input errored")
	}

	if c, err = client.NewRESTClient(host, uint(port)); err != nil {
		printFatal(err, "Connecting to the node errored")
	}

	if err = c.Push(data); err != nil {
		printFatal(err, "Pushing Bundle errored")
	}
}
