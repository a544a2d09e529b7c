package main

import (
	"io"
	"os"

	"github.com/teschmitt/go-dtn7/bpv7"
)

// createBundle for the "create" CLI option.
func createBundle(args []string) {
	if len(args) != 3 && len(args) != 4 {
		printUsage()
	}

	var (
		sender    = args[0]
		receiver  = args[1]
		dataInput = args[2]

		err  error
		data []byte
		b    bpv7.Bundle
		f    io.WriteCloser
	)

	if dataInput == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(dataInput)
	}
	if err != nil {
		printFatal(err, "Reading input errored")
	}

	b, err = bpv7.Builder().
		Source(sender).
		Destination(receiver).
		CreationTimestampNow().
		Lifetime("24h").
		PayloadBlock(data).
		Build()
	if err != nil {
		printFatal(err, "Building Bundle errored")
	}

	if len(args) == 4 && args[3] != "-" {
		if f, err = os.Create(args[3]); err != nil {
			printFatal(err, "Creating file errored")
		}
	} else {
		f = os.Stdout
	}

	if err = b.WriteBundle(f); err != nil {
		printFatal(err, "Writing Bundle errored")
	}
	if err = f.Close(); err != nil {
		printFatal(err, "Closing file errored")
	}
}
