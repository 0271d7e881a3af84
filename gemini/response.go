package gemini

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Gemini status codes.
const (
	StatusInput          = 10
	StatusSensitiveInput = 11

	StatusSuccess = 20

	StatusRedirectTemporary = 30
	StatusRedirectPermanent = 31

	StatusTemporaryFailure  = 40
	StatusServerUnavailable = 41
	StatusCGIError          = 42
	StatusProxyError        = 43
	StatusSlowDown          = 44

	StatusPermanentFailure    = 50
	StatusNotFound            = 51
	StatusGone                = 52
	StatusProxyRequestRefused = 53
	StatusBadRequest          = 59

	StatusCertificateRequired     = 60
	StatusCertificateUnauthorized = 61
	StatusCertificateInvalid      = 62
)

// Response is one parsed Gemini response: the two-digit status, the meta
// text from the header line, and the body read until connection close.
type Response struct {
	Status int
	Meta   string
	Body   []byte
}

// ReadResponse parses a full Gemini response from r. The first line,
// terminated by CRLF, carries the two-digit status and the meta string;
// everything after it is the body.
func ReadResponse(r io.Reader) (*Response, error) {
	br := bufio.NewReader(r)

	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading response header: %w", err)
	}
	header = strings.TrimRight(header, "\r\n")

	if len(header) < 2 || !isDigit(header[0]) || !isDigit(header[1]) {
		return nil, fmt.Errorf("malformed response header %q", header)
	}
	status := int(header[0]-'0')*10 + int(header[1]-'0')

	meta := ""
	if len(header) > 2 {
		meta = strings.TrimLeft(header[2:], " ")
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{Status: status, Meta: meta, Body: body}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// IsGemtext reports whether a success meta denotes a gemtext body.
// An empty meta defaults to text/gemini.
func IsGemtext(meta string) bool {
	if meta == "" {
		return true
	}
	return strings.HasPrefix(meta, "text/gemini")
}

// Charset extracts the charset parameter from a success meta and
// normalizes it to one of utf8, iso8859, or ascii. It is recorded for
// display only; no transcoding is performed.
func Charset(meta string) string {
	lower := strings.ToLower(meta)
	i := strings.Index(lower, "charset=")
	if i < 0 {
		return "utf8"
	}
	cs := lower[i+len("charset="):]
	if j := strings.IndexByte(cs, ';'); j >= 0 {
		cs = cs[:j]
	}
	cs = strings.TrimSpace(cs)
	switch {
	case strings.Contains(cs, "iso-8859"), strings.Contains(cs, "iso8859"):
		return "iso8859"
	case strings.Contains(cs, "ascii"):
		return "ascii"
	default:
		return "utf8"
	}
}
