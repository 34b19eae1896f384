package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hazz-dev/sitepulse/internal/config"
)

// maxBodyBytes bounds how much of a 200 response is scanned for the
// expected text.
const maxBodyBytes = 10 << 20

// HTTPChecker issues one GET per probe and never retries.
type HTTPChecker struct {
	client  *http.Client
	timeout time.Duration
}

// New returns an HTTPChecker whose requests, body included, are bounded by timeout.
func New(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Probe is a convenience wrapper for a one-off probe.
func Probe(ctx context.Context, url, expected string, timeout time.Duration) CheckResult {
	return New(timeout).Probe(ctx, url, expected)
}

// Check probes the target's URL for its expected text.
func (c *HTTPChecker) Check(ctx context.Context, target config.Target) CheckResult {
	return c.Probe(ctx, target.URL, target.Expected)
}

// Probe performs a single GET against url and classifies the outcome.
// Every failure ends up in the returned result; nothing is propagated.
func (c *HTTPChecker) Probe(ctx context.Context, url, expected string) (result CheckResult) {
	start := time.Now()
	result = CheckResult{
		URL:       url,
		Scheme:    ClassifyScheme(url),
		Expected:  expected,
		CheckedAt: start,
	}

	defer func() {
		if r := recover(); r != nil {
			result.Reachable = false
			result.ContainsExpected = false
			result.StatusCode = 0
			result.ResponseTime = time.Since(start)
			result.Error = fmt.Sprintf("Unexpected error: %v", r)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.ResponseTime = time.Since(start)
		result.Error = fmt.Sprintf("Request error: %v", err)
		return result
	}

	resp, err := c.client.Do(req)
	if err != nil {
		result.ResponseTime = time.Since(start)
		result.Error = c.describe(err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.ResponseTime = time.Since(start)
		result.StatusCode = resp.StatusCode
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	result.ResponseTime = time.Since(start)
	if err != nil {
		// A response that dies mid-body was never fully received.
		result.Error = c.describe(err)
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Reachable = true
	result.ContainsExpected = strings.Contains(
		strings.ToLower(string(body)),
		strings.ToLower(expected),
	)
	return result
}

// describe turns a transport error into the message stored on the result.
func (c *HTTPChecker) describe(err error) string {
	switch {
	case isTimeout(err):
		return fmt.Sprintf("Request timed out after %s seconds", formatSeconds(c.timeout))
	case isConnectionFailure(err):
		return "Connection error - unable to reach the URL"
	default:
		return fmt.Sprintf("Request error: %v", err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isConnectionFailure covers DNS failures, refused or reset connections,
// servers hanging up early and TLS handshake failures.
func isConnectionFailure(err error) bool {
	var (
		dnsErr    *net.DNSError
		opErr     *net.OpError
		certErr   *tls.CertificateVerificationError
		recordErr tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return true
	case errors.As(err, &certErr), errors.As(err, &recordErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
