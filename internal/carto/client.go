// Package carto holds the hosted geospatial service handle the map page
// talks to. The service never calls the remote API itself; it hands these
// values to carto.js in the browser.
package carto

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMissingCredentials is returned when a client is built without a
// username or API key.
var ErrMissingCredentials = errors.New("carto: username and api key are required")

// Client identifies an account on the hosted service.
type Client struct {
	Username  string
	APIKey    string
	ServerURL string
}

// NewClient builds a client. serverURL may be empty, in which case the
// public https://{username}.carto.com endpoint is used.
func NewClient(username, apiKey, serverURL string) (*Client, error) {
	username = strings.TrimSpace(username)
	apiKey = strings.TrimSpace(apiKey)
	if username == "" || apiKey == "" {
		return nil, ErrMissingCredentials
	}

	if serverURL == "" {
		serverURL = "https://{username}.carto.com"
	}
	serverURL = strings.TrimRight(strings.ReplaceAll(serverURL, "{username}", username), "/")
	u, err := url.Parse(serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("carto: invalid server url %q", serverURL)
	}

	return &Client{Username: username, APIKey: apiKey, ServerURL: serverURL}, nil
}

// MapsURL returns the Maps API endpoint layers are instantiated against.
func (c *Client) MapsURL() string {
	return c.ServerURL + "/api/v1/map"
}

// SQLURL returns the SQL API endpoint dataviews query.
func (c *Client) SQLURL() string {
	return c.ServerURL + "/api/v2/sql"
}

// Public returns a copy safe to show outside the page: the API key is masked.
func (c *Client) Public() Client {
	masked := c.APIKey
	if len(masked) > 4 {
		masked = strings.Repeat("*", len(masked)-4) + masked[len(masked)-4:]
	} else {
		masked = strings.Repeat("*", len(masked))
	}
	return Client{Username: c.Username, APIKey: masked, ServerURL: c.ServerURL}
}
