package client

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/teschmitt/go-dtn7/bpv7"
)

// WSMode selects how bundles are exchanged over the WebSocket connection.
type WSMode int

const (
	// DataMode exchanges unpacked bundles as CBOR maps of their addressing
	// fields and payload. The node assembles real bundles itself.
	DataMode WSMode = iota

	// BundleMode exchanges fully serialized bundles in their CBOR wire format.
	BundleMode
)

func (mode WSMode) command() string {
	switch mode {
	case DataMode:
		return "/data"
	case BundleMode:
		return "/bundle"
	default:
		return ""
	}
}

// wsCommandTimeout limits the wait for a node's text reply to a command.
const wsCommandTimeout = 5 * time.Second

type wsOutMessage struct {
	messageType int
	data        []byte
}

// WSClient attaches to the WebSocket endpoint of a dtnd node. After
// subscribing to endpoint IDs, incoming bundles are consumed with ReadBundle
// or ReadData, depending on the connection's WSMode.
type WSClient struct {
	conn   *websocket.Conn
	mode   WSMode
	nodeId string

	msgOutChan chan wsOutMessage
	msgOutErr  chan error

	bundleInChan chan bpv7.Bundle
	dataInChan   chan IncomingData
	statusChan   chan string

	closeSyn chan struct{}
	closeAck chan struct{}
}

// NewWSClient connects to a node's WebSocket endpoint, e.g.,
// "ws://localhost:3000/ws", and switches the connection into the given mode.
func NewWSClient(apiUrl string, mode WSMode) (wsc *WSClient, err error) {
	if mode.command() == "" {
		err = fmt.Errorf("WSClient: unknown mode %d", mode)
		return
	}

	var conn *websocket.Conn
	if conn, _, err = websocket.DefaultDialer.Dial(apiUrl, nil); err != nil {
		return
	}

	wsc = &WSClient{
		conn: conn,
		mode: mode,

		msgOutChan: make(chan wsOutMessage),
		msgOutErr:  make(chan error),

		bundleInChan: make(chan bpv7.Bundle),
		dataInChan:   make(chan IncomingData),
		statusChan:   make(chan string),

		closeSyn: make(chan struct{}),
		closeAck: make(chan struct{}),
	}

	if err = wsc.handshake(); err != nil {
		_ = conn.Close()
		wsc = nil
		return
	}

	go wsc.handler()
	go wsc.handleReader()

	return
}

// handshake fetches the node ID and switches the connection's mode, before
// any goroutine touches the connection.
func (wsc *WSClient) handshake() error {
	if reply, err := wsc.syncCommand("/node"); err != nil {
		return err
	} else if !strings.HasPrefix(reply, "200 node: ") {
		return fmt.Errorf("WSClient: unexpected reply to /node: %s", reply)
	} else {
		wsc.nodeId = strings.TrimPrefix(reply, "200 node: ")
	}

	if reply, err := wsc.syncCommand(wsc.mode.command()); err != nil {
		return err
	} else if !strings.HasPrefix(reply, "200") {
		return fmt.Errorf("WSClient: switching to %s failed: %s", wsc.mode.command(), reply)
	}

	return nil
}

func (wsc *WSClient) syncCommand(cmd string) (string, error) {
	if err := wsc.conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
		return "", err
	}

	if mt, data, err := wsc.conn.ReadMessage(); err != nil {
		return "", err
	} else if mt != websocket.TextMessage {
		return "", fmt.Errorf("WSClient: expected a text reply to %s, got type %d", cmd, mt)
	} else {
		return strings.TrimSpace(string(data)), nil
	}
}

func (wsc *WSClient) handleReader() {
	defer close(wsc.bundleInChan)
	defer close(wsc.dataInChan)
	defer close(wsc.statusChan)

	for {
		mt, data, err := wsc.conn.ReadMessage()
		if err != nil {
			return
		}

		switch mt {
		case websocket.TextMessage:
			wsc.statusChan <- strings.TrimSpace(string(data))

		case websocket.BinaryMessage:
			wsc.dispatchBinary(data)

		default:
			// ping and pong frames are gorilla's business
		}
	}
}

func (wsc *WSClient) dispatchBinary(data []byte) {
	switch wsc.mode {
	case BundleMode:
		if b, err := bpv7.ParseBundle(bytes.NewReader(data)); err != nil {
			log.WithError(err).Warn("WSClient failed to parse an incoming bundle")
		} else {
			wsc.bundleInChan <- b
		}

	case DataMode:
		var id IncomingData
		if err := id.UnmarshalCbor(bytes.NewReader(data)); err != nil {
			log.WithError(err).Warn("WSClient failed to parse incoming data")
		} else {
			wsc.dataInChan <- id
		}
	}
}

func (wsc *WSClient) handler() {
	defer func() {
		close(wsc.closeAck)

		close(wsc.msgOutChan)
		close(wsc.msgOutErr)

		_ = wsc.conn.Close()
	}()

	for {
		select {
		case <-wsc.closeSyn:
			return

		case msg := <-wsc.msgOutChan:
			wsc.msgOutErr <- wsc.conn.WriteMessage(msg.messageType, msg.data)
		}
	}
}

// command sends a text command and awaits the node's status reply.
func (wsc *WSClient) command(cmd string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	wsc.msgOutChan <- wsOutMessage{websocket.TextMessage, []byte(cmd)}
	if err = <-wsc.msgOutErr; err != nil {
		return
	}

	select {
	case reply = <-wsc.statusChan:
		return

	case <-time.After(wsCommandTimeout):
		err = fmt.Errorf("WSClient: reply to %q timed out", cmd)
		return
	}
}

// NodeID returns the connected node's ID, e.g., "dtn://node1/".
func (wsc *WSClient) NodeID() string {
	return wsc.nodeId
}

// Subscribe to bundles addressed to an endpoint ID, which must already be
// registered on the node.
func (wsc *WSClient) Subscribe(eid string) error {
	if reply, err := wsc.command("/subscribe " + eid); err != nil {
		return err
	} else if !strings.HasPrefix(reply, "200") {
		return fmt.Errorf("WSClient: subscribing %q failed: %s", eid, reply)
	}

	return nil
}

// Unsubscribe from an endpoint ID.
func (wsc *WSClient) Unsubscribe(eid string) error {
	if reply, err := wsc.command("/unsubscribe " + eid); err != nil {
		return err
	} else if !strings.HasPrefix(reply, "200") {
		return fmt.Errorf("WSClient: unsubscribing %q failed: %s", eid, reply)
	}

	return nil
}

// WriteBundle sends a Bundle to the node. The connection must be in
// BundleMode.
func (wsc *WSClient) WriteBundle(b bpv7.Bundle) (err error) {
	if wsc.mode != BundleMode {
		return fmt.Errorf("WSClient: WriteBundle requires BundleMode")
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	buff := new(bytes.Buffer)
	if err = b.WriteBundle(buff); err != nil {
		return
	}

	wsc.msgOutChan <- wsOutMessage{websocket.BinaryMessage, buff.Bytes()}
	return <-wsc.msgOutErr
}

// ReadBundle returns the next incoming Bundle. This method blocks. The
// connection must be in BundleMode.
func (wsc *WSClient) ReadBundle() (b bpv7.Bundle, err error) {
	if wsc.mode != BundleMode {
		err = fmt.Errorf("WSClient: ReadBundle requires BundleMode")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	if b, ok := <-wsc.bundleInChan; ok {
		return b, nil
	}
	return b, fmt.Errorf("WSClient: connection is closed")
}

// SendData asks the node to build and dispatch a bundle from the given
// fields. The lifetime is passed in milliseconds. The connection must be in
// DataMode.
func (wsc *WSClient) SendData(source, destination bpv7.EndpointID, lifetime uint64, data []byte) (err error) {
	if wsc.mode != DataMode {
		return fmt.Errorf("WSClient: SendData requires DataMode")
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	sr := sendRequest{
		Source:      source,
		Destination: destination,
		Lifetime:    lifetime,
		Data:        data,
	}

	buff := new(bytes.Buffer)
	if err = sr.MarshalCbor(buff); err != nil {
		return
	}

	wsc.msgOutChan <- wsOutMessage{websocket.BinaryMessage, buff.Bytes()}
	return <-wsc.msgOutErr
}

// ReadData returns the next incoming bundle's unpacked fields. This method
// blocks. The connection must be in DataMode.
func (wsc *WSClient) ReadData() (id IncomingData, err error) {
	if wsc.mode != DataMode {
		err = fmt.Errorf("WSClient: ReadData requires DataMode")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	if id, ok := <-wsc.dataInChan; ok {
		return id, nil
	}
	return id, fmt.Errorf("WSClient: connection is closed")
}

// Close this WSClient.
func (wsc *WSClient) Close() {
	defer func() {
		// channel is already closed
		_ = recover()
	}()

	close(wsc.closeSyn)
	<-wsc.closeAck
}
