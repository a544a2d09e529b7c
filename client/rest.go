package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/teschmitt/go-dtn7/bpv7"
)

// RESTClient talks to the HTTP API of a dtnd node. It inspects the node's
// status, registers application endpoints and moves bundles in and out of the
// node's store.
type RESTClient struct {
	baseUrl string
	nodeId  string

	httpClient *http.Client
}

// NewRESTClient connects to a dtnd node's HTTP API. The host must carry an
// "http" or "https" schema, e.g., "http://localhost". The node is probed for
// its node ID right away, so a misconfigured address fails fast.
func NewRESTClient(host string, port uint) (c *RESTClient, err error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		err = fmt.Errorf("RESTClient: host %q carries neither an http nor an https schema", host)
		return
	}

	c = &RESTClient{
		baseUrl:    fmt.Sprintf("%s:%d", host, port),
		httpClient: &http.Client{},
	}

	if nodeId, nodeErr := c.getText("/status/nodeid"); nodeErr != nil {
		c = nil
		err = fmt.Errorf("RESTClient: fetching the node ID failed: %w", nodeErr)
	} else {
		c.nodeId = nodeId
	}

	return
}

func (c *RESTClient) get(path string) ([]byte, error) {
	log.WithField("url", c.baseUrl+path).Debug("RESTClient sends GET request")

	resp, err := c.httpClient.Get(c.baseUrl + path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RESTClient: GET %s returned status code %d", path, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *RESTClient) getText(path string) (string, error) {
	data, err := c.get(path)
	return strings.TrimSpace(string(data)), err
}

func (c *RESTClient) getJson(path string, v interface{}) error {
	data, err := c.get(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

func (c *RESTClient) post(path string, body []byte) ([]byte, error) {
	log.WithFields(log.Fields{
		"url":  c.baseUrl + path,
		"size": len(body),
	}).Debug("RESTClient sends POST request")

	resp, err := c.httpClient.Post(
		c.baseUrl+path, "application/octet-stream", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RESTClient: POST %s returned status code %d", path, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// NodeID returns the connected node's ID, e.g., "dtn://node1/".
func (c *RESTClient) NodeID() string {
	return c.nodeId
}

// Bundles lists the bundle IDs known to the node.
func (c *RESTClient) Bundles() (bundles []string, err error) {
	err = c.getJson("/status/bundles", &bundles)
	return
}

// FilteredBundles lists the bundle IDs whose address contains the given
// criteria, e.g., a node name.
func (c *RESTClient) FilteredBundles(addressPart string) (bundles []string, err error) {
	err = c.getJson("/status/bundles/filtered?addr="+url.QueryEscape(addressPart), &bundles)
	return
}

// Endpoints lists the endpoint IDs registered on the node.
func (c *RESTClient) Endpoints() (eids []string, err error) {
	err = c.getJson("/status/eids", &eids)
	return
}

// Peers returns the node's currently known peers.
func (c *RESTClient) Peers() (peers map[string]Peer, err error) {
	err = c.getJson("/status/peers", &peers)
	return
}

// Store lists the node's bundle store entries.
func (c *RESTClient) Store() (entries []string, err error) {
	err = c.getJson("/status/store", &entries)
	return
}

// Info returns the node's free-form status summary.
func (c *RESTClient) Info() (string, error) {
	return c.getText("/status/info")
}

// Register an endpoint ID on the node, so incoming bundles addressed to it
// are queued for this application.
func (c *RESTClient) Register(eid string) error {
	resp, err := c.getText("/register?" + url.QueryEscape(eid))
	if err != nil {
		return err
	}

	if !strings.Contains(strings.ToLower(resp), "registered") {
		return fmt.Errorf("RESTClient: registering %q failed: %s", eid, resp)
	}

	log.WithField("endpoint", eid).Debug("RESTClient registered endpoint")
	return nil
}

// Unregister an endpoint ID from the node.
func (c *RESTClient) Unregister(eid string) error {
	_, err := c.getText("/unregister?" + url.QueryEscape(eid))
	return err
}

// FetchEndpoint pops the next bundle queued for a registered endpoint ID. If
// nothing is queued, an error is returned.
func (c *RESTClient) FetchEndpoint(eid string) (bpv7.Bundle, error) {
	data, err := c.get("/endpoint?" + url.QueryEscape(eid))
	if err != nil {
		return bpv7.Bundle{}, err
	} else if len(data) == 0 {
		return bpv7.Bundle{}, fmt.Errorf("RESTClient: no bundle is queued for %q", eid)
	}

	return bpv7.ParseBundle(bytes.NewReader(data))
}

// Download returns the raw CBOR representation of a stored bundle.
func (c *RESTClient) Download(bundleId string) ([]byte, error) {
	return c.get("/download?" + url.QueryEscape(bundleId))
}

// DownloadBundle returns a stored bundle, parsed and checked.
func (c *RESTClient) DownloadBundle(bundleId string) (bpv7.Bundle, error) {
	data, err := c.Download(bundleId)
	if err != nil {
		return bpv7.Bundle{}, err
	}

	return bpv7.ParseBundle(bytes.NewReader(data))
}

// AllBundles downloads every bundle known to the node.
func (c *RESTClient) AllBundles() (bundles []bpv7.Bundle, err error) {
	var ids []string
	if ids, err = c.Bundles(); err != nil {
		return
	}

	for _, id := range ids {
		if b, bErr := c.DownloadBundle(id); bErr != nil {
			err = fmt.Errorf("RESTClient: downloading %q failed: %w", id, bErr)
			return
		} else {
			bundles = append(bundles, b)
		}
	}

	return
}

// Send lets the node create and dispatch a bundle addressed to the given
// destination, with the node itself as the source. The lifetime is passed in
// milliseconds.
func (c *RESTClient) Send(destination bpv7.EndpointID, lifetime uint64, payload []byte) error {
	path := fmt.Sprintf("/send?dst=%s&lifetime=%d",
		url.QueryEscape(destination.String()), lifetime)

	_, err := c.post(path, payload)
	return err
}

// Push a raw, already serialized bundle into the node.
func (c *RESTClient) Push(raw []byte) error {
	_, err := c.post("/push", raw)
	return err
}

// PushBundle serializes a Bundle and pushes it into the node.
func (c *RESTClient) PushBundle(b bpv7.Bundle) error {
	buff := new(bytes.Buffer)
	if err := b.WriteBundle(buff); err != nil {
		return err
	}

	return c.Push(buff.Bytes())
}
