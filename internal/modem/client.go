package modem

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sesTokPath     = "/api/webserver/SesTokInfo"
	publicKeyPath  = "/api/webserver/publickey"
	controlPath    = "/api/device/control"
	verifTokHeader = "__RequestVerificationToken"
	rebootXML      = `<?xml version="1.0" encoding="UTF-8"?><request><Control>1</Control></request>`
	rebootOK       = "<response>OK</response>"
)

// Client is a stateful client for one modem's HTTP management interface.
// The token pair is mutated on every call, so mu is held for the full
// duration of each exported method; concurrent Reboot requests from the
// Control API serialize on it.
type Client struct {
	mu sync.Mutex

	host    string
	timeout time.Duration
	http    *http.Client

	sessionToken      string
	verificationToken string
}

// New constructs a Client for the modem at host (e.g. "192.168.8.1").
// No network call is made until Init.
func New(host string, timeout time.Duration) *Client {
	return &Client{
		host:    host,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Init fetches the initial session and verification tokens. It must
// succeed before Reboot or Encrypt will do anything but fail fast.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, _, err := c.do(ctx, http.MethodGet, sesTokPath, nil)
	if err != nil {
		return fmt.Errorf("modem: init: %w", err)
	}

	sessionToken, err := valueFromTag(body, "SesInfo")
	if err != nil {
		return fmt.Errorf("modem: init: %w", err)
	}
	verifToken, err := valueFromTag(body, "TokInfo")
	if err != nil {
		return fmt.Errorf("modem: init: %w", err)
	}

	c.sessionToken = sessionToken
	c.verificationToken = verifToken
	return nil
}

// Reboot commands the modem to restart its mobile-broadband link. Both
// tokens must already be set via Init, or the call fails without touching
// the network. The mutex is held for the entire exchange so the rolled
// verification token from one reboot is never clobbered by another.
func (c *Client) Reboot(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionToken == "" || c.verificationToken == "" {
		return fmt.Errorf("modem: reboot: session not initialized")
	}

	body, _, err := c.doAuthenticated(ctx, http.MethodPost, controlPath, strings.NewReader(rebootXML))
	if err != nil {
		return fmt.Errorf("modem: reboot: %w", err)
	}

	if !strings.Contains(string(body), rebootOK) {
		return fmt.Errorf("modem: reboot failed: %s", strings.TrimSpace(string(body)))
	}
	return nil
}

// Encrypt fetches the modem's current RSA public key and encrypts payload
// under PKCS#1 v1.5 padding, returning the base64-encoded ciphertext. Not
// exercised by Reboot on this vendor's firmware, but kept for parity with
// firmware revisions that require an encrypted parameter on other calls.
func (c *Client) Encrypt(ctx context.Context, payload string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionToken == "" || c.verificationToken == "" {
		return "", fmt.Errorf("modem: encrypt: session not initialized")
	}

	body, _, err := c.doAuthenticated(ctx, http.MethodGet, publicKeyPath, nil)
	if err != nil {
		return "", fmt.Errorf("modem: encrypt: fetch public key: %w", err)
	}

	modulusStr, err := valueFromTag(body, "encpubkeyn")
	if err != nil {
		return "", fmt.Errorf("modem: encrypt: %w", err)
	}
	exponentStr, err := valueFromTag(body, "encpubkeye")
	if err != nil {
		return "", fmt.Errorf("modem: encrypt: %w", err)
	}

	modulus, err := decodeBase64ThenHex(modulusStr)
	if err != nil {
		return "", fmt.Errorf("modem: encrypt: decode modulus: %w", err)
	}
	exponent, err := decodeHexThenBase64(exponentStr)
	if err != nil {
		return "", fmt.Errorf("modem: encrypt: decode exponent: %w", err)
	}

	pub := &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulus),
		E: int(new(big.Int).SetBytes(exponent).Int64()),
	}

	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(payload))
	if err != nil {
		return "", fmt.Errorf("modem: encrypt: rsa encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decodeBase64ThenHex(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return hex.DecodeString(s)
}

func decodeHexThenBase64(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// do performs an unauthenticated request and returns the body and
// response headers.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, http.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s%s", c.host, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return respBody, resp.Header, nil
}

// doAuthenticated attaches the session cookie and verification token
// headers this modem's API requires on every call past init, runs the
// request, and captures any rolled verification token from the response.
// Callers must hold c.mu.
func (c *Client) doAuthenticated(ctx context.Context, method, path string, body io.Reader) ([]byte, http.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s%s", c.host, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Cookie", "SessionId="+c.sessionToken)
	req.Header.Set(verifTokHeader, c.verificationToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	if token := resp.Header.Get(verifTokHeader); token != "" {
		c.verificationToken = token
	}
	return respBody, resp.Header, nil
}
