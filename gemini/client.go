package gemini

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// OutcomeKind discriminates the result of one fetch.
type OutcomeKind int

const (
	// OutcomeGemtext is a success whose body is gemtext for the renderer.
	OutcomeGemtext OutcomeKind = iota
	// OutcomeRaw is a success with a non-gemtext body, passed through unrendered.
	OutcomeRaw
	// OutcomeInput asks the user for a line of input (status 10/11).
	OutcomeInput
	// OutcomeRedirect carries a new target resolved from the meta string.
	OutcomeRedirect
	// OutcomeFailure carries a classified failure.
	OutcomeFailure
	// OutcomeCertRequired means the server wants a client certificate.
	OutcomeCertRequired
)

// FailureKind classifies fetch failures.
type FailureKind int

const (
	FailUnsupportedScheme FailureKind = iota
	FailConnect
	FailTemporary
	FailPermanent
	FailNotFound
	FailRefused
	FailBadRequest
)

// Outcome is the classified result of one request/response exchange.
type Outcome struct {
	Kind OutcomeKind

	// Success fields.
	Body    []byte
	Meta    string
	Charset string

	// Input fields (status 10/11).
	Prompt    string
	Sensitive bool

	// Redirect target, resolved against the browsing context.
	Target URL

	// Failure fields.
	Failure FailureKind
	Status  int
	Detail  string
}

// CertificateSource supplies a client certificate for a host, or reports
// that none is registered.
type CertificateSource interface {
	Certificate(host string) (*tls.Certificate, error)
}

// Client performs single Gemini request/response exchanges.
type Client struct {
	// Timeout bounds the dial and the full exchange. Zero disables it.
	Timeout time.Duration
	// Certs supplies per-host client certificates; may be nil.
	Certs CertificateSource
}

// Fetch opens a TLS connection to the URL's host and port, sends the one
// request line, and reads and classifies the response. The connection is
// fully consumed and closed before Fetch returns. Connection and
// handshake errors become a FailConnect outcome rather than an error;
// the error return is reserved for a non-gemini scheme reaching this far.
func (c *Client) Fetch(u URL, ctx *Context) (Outcome, error) {
	if u.Scheme != "gemini" {
		return Outcome{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		// Gemini servers run on self-signed certificates as a rule.
		InsecureSkipVerify: true,
		ServerName:         u.Host,
	}
	if c.Certs != nil {
		cert, err := c.Certs.Certificate(u.Host)
		if err != nil {
			return connectFailure(fmt.Errorf("loading client certificate for %s: %w", u.Host, err)), nil
		}
		if cert != nil {
			tlsCfg.Certificates = []tls.Certificate{*cert}
		}
	}

	addr := net.JoinHostPort(u.Host, fmt.Sprintf("%d", u.Port))
	dialer := &net.Dialer{Timeout: c.Timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
	if err != nil {
		return connectFailure(err), nil
	}
	defer conn.Close()

	if c.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(c.Timeout))
	}

	if _, err := fmt.Fprintf(conn, "%s\r\n", u.String()); err != nil {
		return connectFailure(err), nil
	}

	resp, err := ReadResponse(conn)
	if err != nil {
		return connectFailure(err), nil
	}

	return Classify(resp, ctx), nil
}

func connectFailure(err error) Outcome {
	return Outcome{
		Kind:    OutcomeFailure,
		Failure: FailConnect,
		Detail:  err.Error(),
	}
}

// Classify maps a parsed response onto the outcome set. Redirect metas
// are resolved against ctx, the host and path of the current page.
func Classify(resp *Response, ctx *Context) Outcome {
	switch resp.Status {
	case StatusInput, StatusSensitiveInput:
		return Outcome{
			Kind:      OutcomeInput,
			Prompt:    resp.Meta,
			Sensitive: resp.Status == StatusSensitiveInput,
			Status:    resp.Status,
		}

	case StatusRedirectTemporary, StatusRedirectPermanent:
		return Outcome{
			Kind:   OutcomeRedirect,
			Target: Resolve(resp.Meta, ctx),
			Status: resp.Status,
		}

	case StatusTemporaryFailure, StatusServerUnavailable, StatusCGIError,
		StatusProxyError, StatusSlowDown:
		return Outcome{
			Kind:    OutcomeFailure,
			Failure: FailTemporary,
			Status:  resp.Status,
			Detail:  temporaryDetail(resp.Status, resp.Meta),
		}

	case StatusPermanentFailure:
		return Outcome{Kind: OutcomeFailure, Failure: FailPermanent, Status: resp.Status, Detail: resp.Meta}
	case StatusNotFound:
		return Outcome{Kind: OutcomeFailure, Failure: FailNotFound, Status: resp.Status, Detail: resp.Meta}
	case StatusGone, StatusProxyRequestRefused:
		return Outcome{Kind: OutcomeFailure, Failure: FailRefused, Status: resp.Status, Detail: resp.Meta}
	case StatusBadRequest:
		return Outcome{Kind: OutcomeFailure, Failure: FailBadRequest, Status: resp.Status, Detail: resp.Meta}

	case StatusCertificateRequired, StatusCertificateUnauthorized, StatusCertificateInvalid:
		return Outcome{Kind: OutcomeCertRequired, Status: resp.Status, Detail: resp.Meta}
	}

	// Success. Anything outside the table above with a 2x status, plus
	// unknown codes, lands here; an empty meta defaults to gemtext.
	if IsGemtext(resp.Meta) {
		return Outcome{
			Kind:    OutcomeGemtext,
			Body:    resp.Body,
			Meta:    resp.Meta,
			Charset: Charset(resp.Meta),
			Status:  resp.Status,
		}
	}
	return Outcome{
		Kind:    OutcomeRaw,
		Body:    resp.Body,
		Meta:    resp.Meta,
		Charset: Charset(resp.Meta),
		Status:  resp.Status,
	}
}

func temporaryDetail(status int, meta string) string {
	var kind string
	switch status {
	case StatusServerUnavailable:
		kind = "server unavailable"
	case StatusCGIError:
		kind = "CGI error"
	case StatusProxyError:
		kind = "proxy error"
	case StatusSlowDown:
		kind = "slow down"
	default:
		kind = "temporary failure"
	}
	if meta == "" {
		return kind
	}
	return kind + ": " + meta
}
