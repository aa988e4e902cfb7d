package cas

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/pkg/httpclient"
)

// Client fetches and publishes content-addressed documents through an
// IPFS-style HTTP gateway. Fetch returns (nil, nil) when the gateway
// reports the content id unknown; transport failures are errors.
type Client struct {
	client *httpclient.Client
}

type Config struct {
	// GatewayURL is the base URL of the content gateway,
	// e.g. "https://ipfs.io/ipfs".
	GatewayURL string `mapstructure:"gateway_url"`

	// PublishURL is the base URL of the publish endpoint. Optional;
	// defaults to GatewayURL.
	PublishURL string `mapstructure:"publish_url"`

	Debug bool `mapstructure:"debug"`
}

func New(conf Config) (*Client, error) {
	if conf.GatewayURL == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "gateway url is required")
	}
	client, err := httpclient.New(conf.GatewayURL, httpclient.Config{Debug: conf.Debug})
	if err != nil {
		return nil, errors.Wrap(err, "can't create gateway http client")
	}
	return &Client{client: client}, nil
}

// Fetch returns the raw bytes stored at the given content id.
func (c *Client) Fetch(ctx context.Context, cid string) ([]byte, error) {
	if cid == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "content id is required")
	}
	resp, err := c.client.Get(ctx, "/"+cid, httpclient.RequestOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch content %q", cid)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode() != http.StatusOK:
		return nil, errors.Errorf("gateway returned status %d for content %q", resp.StatusCode(), cid)
	}
	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, errors.Wrapf(err, "can't read content body for %q", cid)
	}
	return body, nil
}

type publishResponse struct {
	Cid string `json:"cid"`
}

// Publish stores the given document and returns its content id.
func (c *Client) Publish(ctx context.Context, document any) (string, error) {
	body, err := json.Marshal(document)
	if err != nil {
		return "", errors.Wrap(err, "can't marshal document")
	}
	resp, err := c.client.Post(ctx, "/", httpclient.RequestOptions{Body: body})
	if err != nil {
		return "", errors.Wrap(err, "failed to publish content")
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", errors.Errorf("gateway returned status %d on publish", resp.StatusCode())
	}
	var parsed publishResponse
	if err := resp.UnmarshalBody(&parsed); err != nil {
		return "", errors.WithStack(err)
	}
	if parsed.Cid == "" {
		return "", errors.New("gateway returned empty content id")
	}
	return parsed.Cid, nil
}
