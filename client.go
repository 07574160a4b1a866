package jmapcal

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/emersion/go-jmapcal/internal"
)

// HTTPClient performs HTTP requests. It's implemented by *http.Client.
type HTTPClient = internal.HTTPClient

// Client is a JMAP core client. It fetches the server's session object at
// most once and caches it for its lifetime.
//
// The endpoint can be the server's origin (in which case the well-known
// bootstrap path is used) or the full URL of the session resource.
type Client struct {
	ic *internal.Client

	sessionPath string

	mu      sync.Mutex // serializes the session bootstrap
	session *Session
	apiURL  *url.URL
}

func NewClient(c HTTPClient, endpoint string) (*Client, error) {
	ic, err := internal.NewClient(c, endpoint)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	sessionPath := u.Path
	if sessionPath == "" || sessionPath == "/" {
		sessionPath = WellKnownPath
	}

	return &Client{ic: ic, sessionPath: sessionPath}, nil
}

// Session returns the server's session object, fetching it on first use.
// Concurrent first uses are serialized so that only one bootstrap request is
// issued.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionLocked(ctx)
}

func (c *Client) sessionLocked(ctx context.Context) (*Session, error) {
	if c.session != nil {
		return c.session, nil
	}

	req, err := c.ic.NewRequest(ctx, "GET", c.sessionPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var session Session
	if err := c.ic.DoJSON(req, &session); err != nil {
		return nil, err
	}
	if session.APIURL == "" {
		return nil, fmt.Errorf("jmapcal: session object is missing apiUrl")
	}

	// apiUrl may be origin-relative
	c.apiURL = c.ic.ResolveHref(session.APIURL)
	c.session = &session
	return c.session, nil
}

// Reset drops the cached session object. The next operation re-fetches it.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.apiURL = nil
}

// AccountFor resolves the account ID to use for the given capability URN. It
// returns a *CapabilityError if the capability is not advertised by any
// account.
func (c *Client) AccountFor(ctx context.Context, capability string) (string, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return "", err
	}
	return session.AccountFor(capability)
}

// Do performs a single JMAP API request containing the given method calls.
// Each call to Do is exactly one HTTP round trip.
func (c *Client) Do(ctx context.Context, using []string, calls ...internal.Invocation) (*internal.Response, error) {
	c.mu.Lock()
	if _, err := c.sessionLocked(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	apiURL := c.apiURL
	c.mu.Unlock()

	jreq := internal.Request{Using: using, MethodCalls: calls}
	req, err := c.ic.NewJSONRequest(ctx, "POST", apiURL.String(), &jreq)
	if err != nil {
		return nil, err
	}

	var resp internal.Response
	if err := c.ic.DoJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
