package provision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/nebula-tower/common"
)

// RedeemPath is the enrollment endpoint.
const RedeemPath = "/client/api/redeem_invite"

// maxRejectBody bounds the diagnostic body kept from a rejected redeem.
const maxRejectBody = 4096

// Result summarizes a redeemed invite.
type Result struct {
	// Written lists the extracted files, relative to the application directory.
	Written []string
	// Skipped lists archive entries that were not extracted.
	Skipped []string
	// HostKey describes the extracted host key, if one was found.
	HostKey *HostKeyInfo
}

// Client redeems invites against an enrollment service.
type Client struct {
	httpClient *http.Client
	paths      common.Paths
	logger     common.Logger
}

// NewClient creates a client that extracts into the application directory.
func NewClient(paths common.Paths, logger common.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: common.RedeemTimeout},
		paths:      paths,
		logger:     common.OrDefault(logger),
	}
}

// SetTimeout sets the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// RedeemURL builds the redeem URL for peer, which may carry a port.
func RedeemURL(peer, inviteCode string) string {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(peer), "http://"), "/")
	u := url.URL{
		Scheme:   "http",
		Host:     host,
		Path:     RedeemPath,
		RawQuery: url.Values{"invite_code": {inviteCode}}.Encode(),
	}
	return u.String()
}

// RedeemInvite exchanges inviteCode with peer and extracts the returned
// archive. Existing files are always replaced; callers confirm with the user
// first when CheckExistingCerts reports true and overwrite was not requested.
//
// Errors match common.ErrRedeemRejected, common.ErrNetworkFailure,
// common.ErrMalformedArchive or common.ErrExtractionFailure.
func (c *Client) RedeemInvite(ctx context.Context, peer, inviteCode string, overwrite bool) (*Result, error) {
	endpoint := RedeemURL(peer, inviteCode)
	c.logger.Info("Redeeming invite at %s (overwrite=%v)", RedeemURL(peer, "<redacted>"), overwrite)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetworkFailure, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxRejectBody))
		if readErr != nil {
			c.logger.Debug("Could not read rejected redeem body: %v", readErr)
		}
		rejected := &common.RedeemRejectedError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		c.logger.Warn("Invite rejected: %v", rejected)
		return nil, rejected
	}

	archive, err := download(resp.Body)
	if err != nil {
		return nil, err
	}
	defer os.Remove(archive)

	if !overwrite && CheckExistingCerts(c.paths.DefaultConfigFile()) {
		c.logger.Warn("Replacing existing certificates in %s", c.paths.Root)
	}

	result, err := Extract(archive, c.paths.Root, c.logger)
	if err != nil {
		return result, err
	}
	c.logger.Info("Invite redeemed: %d files written, %d skipped", len(result.Written), len(result.Skipped))

	c.inspect(result)
	return result, nil
}

// download stores the response body in a temporary file.
func download(body io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "nebula-invite-*.zip")
	if err != nil {
		return "", common.WrapError(err, "failed to create temporary archive")
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: reading archive: %v", common.ErrNetworkFailure, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", common.WrapError(err, "failed to write temporary archive")
	}
	return tmp.Name(), nil
}

// inspect sanity-checks the extracted files. Problems are logged, not returned.
func (c *Client) inspect(result *Result) {
	configPath := c.paths.DefaultConfigFile()
	if data, err := os.ReadFile(configPath); err == nil {
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			c.logger.Warn("Provisioned %s is not valid YAML: %v", filepath.Base(configPath), err)
		}
	}

	keyPath := filepath.Join(c.paths.Root, common.HostKeyFileName)
	if !common.FileExists(keyPath) {
		return
	}
	info, err := InspectHostKey(keyPath)
	if err != nil {
		c.logger.Warn("Could not inspect host key: %v", err)
		return
	}
	result.HostKey = info
	c.logger.Info("Host public key fingerprint: %s", info.Fingerprint)
}
