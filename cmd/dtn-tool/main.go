package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// printFatal logs an error with a message and exits afterwards.
func printFatal(err error, msg string) {
	log.WithError(err).Fatal(msg)
}

// printUsage of dtn-tool and exit with an error code afterwards.
func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage of %s create|show|send|watch:\n\n", os.Args[0])

	_, _ = fmt.Fprintf(os.Stderr, "%s create sender receiver -|filename [bundle-name]\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Creates a new Bundle, addressed from sender to receiver, with the stdin (-) or\n")
	_, _ = fmt.Fprintf(os.Stderr, "  the given file (filename) as payload. The Bundle is saved as bundle-name or,\n")
	_, _ = fmt.Fprintf(os.Stderr, "  for a missing bundle-name, written to stdout.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s show -|filename\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Prints a human-readable version of the given Bundle.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s send http://host port -|filename\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Pushes a serialized Bundle into the dtnd node listening on host and port.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s watch websocket endpoint-id\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Subscribes to the endpoint-id on the given websocket, e.g.,\n")
	_, _ = fmt.Fprintf(os.Stderr, "  ws://localhost:3000/ws, and prints every incoming Bundle.\n\n")

	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
	}

	switch os.Args[1] {
	case "create":
		createBundle(os.Args[2:])

	case "show":
		showBundle(os.Args[2:])

	case "send":
		sendBundle(os.Args[2:])

	case "watch":
		watchBundles(os.Args[2:])

	default:
		printUsage()
	}
}
