package client

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dtn7/cboring"
	"github.com/gorilla/websocket"

	"github.com/teschmitt/go-dtn7/bpv7"
)

// fakeWsDtnd mimics the WebSocket endpoint of a dtnd node. Text commands are
// answered like dtnd does; binary messages are echoed back in bundle mode.
type fakeWsDtnd struct {
	upgrader websocket.Upgrader

	subscribed chan string
	rawIn      chan []byte
}

func newFakeWsDtnd() *fakeWsDtnd {
	return &fakeWsDtnd{
		subscribed: make(chan string, 8),
		rawIn:      make(chan []byte, 8),
	}
}

func (fwd *fakeWsDtnd) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := fwd.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch mt {
		case websocket.TextMessage:
			fwd.handleCommand(conn, strings.TrimSpace(string(data)))

		case websocket.BinaryMessage:
			fwd.rawIn <- data
			_ = conn.WriteMessage(websocket.BinaryMessage, data)
		}
	}
}

func (fwd *fakeWsDtnd) handleCommand(conn *websocket.Conn, cmd string) {
	var reply string

	switch {
	case cmd == "/node":
		reply = "200 node: dtn://node1/"
	case cmd == "/bundle":
		reply = "200 tx mode: bundle"
	case cmd == "/data":
		reply = "200 tx mode: data"
	case strings.HasPrefix(cmd, "/subscribe "):
		fwd.subscribed <- strings.TrimPrefix(cmd, "/subscribe ")
		reply = "200 subscribed"
	case strings.HasPrefix(cmd, "/unsubscribe "):
		reply = "200 unsubscribed"
	default:
		reply = "400 unknown command"
	}

	_ = conn.WriteMessage(websocket.TextMessage, []byte(reply))
}

func wsTestClient(t *testing.T, mode WSMode) (*WSClient, *fakeWsDtnd, *httptest.Server) {
	t.Helper()

	fwd := newFakeWsDtnd()
	srv := httptest.NewServer(fwd)

	wsc, err := NewWSClient("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", mode)
	if err != nil {
		srv.Close()
		t.Fatal(err)
	}

	return wsc, fwd, srv
}

// readBundleTimeout reads the next bundle, but fails the test after a grace
// period instead of blocking until the suite's timeout.
func readBundleTimeout(t *testing.T, wsc *WSClient) bpv7.Bundle {
	t.Helper()

	type result struct {
		b   bpv7.Bundle
		err error
	}

	resChan := make(chan result, 1)
	go func() {
		b, err := wsc.ReadBundle()
		resChan <- result{b, err}
	}()

	select {
	case res := <-resChan:
		if res.err != nil {
			t.Fatal(res.err)
		}
		return res.b

	case <-time.After(5 * time.Second):
		t.Fatal("reading a bundle timed out")
		return bpv7.Bundle{}
	}
}

// readDataTimeout is readBundleTimeout's sibling for DataMode.
func readDataTimeout(t *testing.T, wsc *WSClient) IncomingData {
	t.Helper()

	type result struct {
		id  IncomingData
		err error
	}

	resChan := make(chan result, 1)
	go func() {
		id, err := wsc.ReadData()
		resChan <- result{id, err}
	}()

	select {
	case res := <-resChan:
		if res.err != nil {
			t.Fatal(res.err)
		}
		return res.id

	case <-time.After(5 * time.Second):
		t.Fatal("reading incoming data timed out")
		return IncomingData{}
	}
}

func TestWSClientHandshake(t *testing.T) {
	wsc, _, srv := wsTestClient(t, BundleMode)
	defer srv.Close()
	defer wsc.Close()

	if nodeId := wsc.NodeID(); nodeId != "dtn://node1/" {
		t.Fatalf("node ID is %q", nodeId)
	}
}

func TestWSClientSubscribe(t *testing.T) {
	wsc, fwd, srv := wsTestClient(t, BundleMode)
	defer srv.Close()
	defer wsc.Close()

	if err := wsc.Subscribe("dtn://node1/inbox"); err != nil {
		t.Fatal(err)
	}

	select {
	case eid := <-fwd.subscribed:
		if eid != "dtn://node1/inbox" {
			t.Fatalf("subscribed %q", eid)
		}
	case <-time.After(time.Second):
		t.Fatal("the server saw no subscription")
	}

	if err := wsc.Unsubscribe("dtn://node1/inbox"); err != nil {
		t.Fatal(err)
	}
}

func TestWSClientBundleEcho(t *testing.T) {
	wsc, _, srv := wsTestClient(t, BundleMode)
	defer srv.Close()
	defer wsc.Close()

	b, err := bpv7.Builder().
		Source("dtn://node1/").
		Destination("dtn://node2/inbox").
		CreationTimestampEpoch().
		Lifetime(3600000).
		PayloadBlock([]byte("echo echo")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	if err := wsc.WriteBundle(b); err != nil {
		t.Fatal(err)
	}

	b2 := readBundleTimeout(t, wsc)

	if b.ID() != b2.ID() {
		t.Fatalf("BundleIDs differ: %v, %v", b.ID(), b2.ID())
	}
	if pb, err := b2.PayloadBlock(); err != nil {
		t.Fatal(err)
	} else if !bytes.Equal(pb.Data, []byte("echo echo")) {
		t.Fatalf("payload differs: %q", pb.Data)
	}
}

func TestWSClientModeGuards(t *testing.T) {
	wsc, _, srv := wsTestClient(t, BundleMode)
	defer srv.Close()
	defer wsc.Close()

	src := bpv7.MustNewEndpointID("dtn://node1/")
	dst := bpv7.MustNewEndpointID("dtn://node2/inbox")

	if err := wsc.SendData(src, dst, 1000, []byte("x")); err == nil {
		t.Fatal("SendData in BundleMode did not error")
	}
	if _, err := wsc.ReadData(); err == nil {
		t.Fatal("ReadData in BundleMode did not error")
	}
}

func TestWSClientSendRequest(t *testing.T) {
	wsc, fwd, srv := wsTestClient(t, DataMode)
	defer srv.Close()
	defer wsc.Close()

	src := bpv7.MustNewEndpointID("dtn://node1/")
	dst := bpv7.MustNewEndpointID("dtn://node2/inbox")

	if err := wsc.SendData(src, dst, 3600000, []byte("unpacked")); err != nil {
		t.Fatal(err)
	}

	select {
	case raw := <-fwd.rawIn:
		checkSendRequest(t, raw)
	case <-time.After(time.Second):
		t.Fatal("the server saw no send request")
	}
}

// checkSendRequest decodes the CBOR map of a client's send request.
func checkSendRequest(t *testing.T, raw []byte) {
	t.Helper()
	r := bytes.NewReader(raw)

	pairs, err := cboring.ReadMapPairLength(r)
	if err != nil {
		t.Fatal(err)
	}
	if pairs != 5 {
		t.Fatalf("expected 5 map pairs, got %d", pairs)
	}

	fields := make(map[string]interface{})
	for ; pairs > 0; pairs-- {
		key, err := cboring.ReadTextString(r)
		if err != nil {
			t.Fatal(err)
		}

		switch key {
		case "src", "dst":
			if fields[key], err = cboring.ReadTextString(r); err != nil {
				t.Fatal(err)
			}
		case "delivery_notification":
			if fields[key], err = cboring.ReadBoolean(r); err != nil {
				t.Fatal(err)
			}
		case "lifetime":
			if fields[key], err = cboring.ReadUInt(r); err != nil {
				t.Fatal(err)
			}
		case "data":
			if fields[key], err = cboring.ReadByteString(r); err != nil {
				t.Fatal(err)
			}
		default:
			t.Fatalf("unexpected map key %q", key)
		}
	}

	if fields["src"] != "dtn://node1/" || fields["dst"] != "dtn://node2/inbox" {
		t.Fatalf("unexpected addressing: %v", fields)
	}
	if fields["lifetime"] != uint64(3600000) {
		t.Fatalf("unexpected lifetime: %v", fields["lifetime"])
	}
	if !bytes.Equal(fields["data"].([]byte), []byte("unpacked")) {
		t.Fatalf("unexpected data: %v", fields["data"])
	}
}

func TestWSClientReadData(t *testing.T) {
	wsc, _, srv := wsTestClient(t, DataMode)
	defer srv.Close()
	defer wsc.Close()

	// the fake node echoes binary messages, so an IncomingData map written by
	// the client comes right back
	buff := new(bytes.Buffer)
	if err := cboring.WriteMapPairLength(4, buff); err != nil {
		t.Fatal(err)
	}
	for _, pair := range [][2]string{
		{"bid", "dtn://node2/-0-0"},
		{"src", "dtn://node2/"},
		{"dst", "dtn://node1/inbox"},
	} {
		if err := cboring.WriteTextString(pair[0], buff); err != nil {
			t.Fatal(err)
		}
		if err := cboring.WriteTextString(pair[1], buff); err != nil {
			t.Fatal(err)
		}
	}
	if err := cboring.WriteTextString("data", buff); err != nil {
		t.Fatal(err)
	}
	if err := cboring.WriteByteString([]byte("incoming"), buff); err != nil {
		t.Fatal(err)
	}

	if err := wsc.conn.WriteMessage(websocket.BinaryMessage, buff.Bytes()); err != nil {
		t.Fatal(err)
	}

	id := readDataTimeout(t, wsc)

	if id.Source != "dtn://node2/" || id.Destination != "dtn://node1/inbox" {
		t.Fatalf("unexpected addressing: %v", id)
	}
	if !bytes.Equal(id.Data, []byte("incoming")) {
		t.Fatalf("unexpected data: %q", id.Data)
	}
	if id.BundleID != "dtn://node2/-0-0" {
		t.Fatalf("unexpected bundle ID: %q", id.BundleID)
	}
}
