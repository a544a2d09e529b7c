// Package client talks to a dtnd node's external interfaces. The RESTClient
// covers the HTTP API for node inspection, registration and bundle exchange.
// The WSClient attaches to the WebSocket endpoint for a subscribed, streaming
// view of the same node.
package client
