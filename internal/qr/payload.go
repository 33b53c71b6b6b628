// Package qr encodes coupon codes into scannable payload URLs and
// normalizes arbitrary scanned input back into candidate codes.
package qr

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

// Encode produces the payload URL rendered into a coupon's QR image:
// {baseOrigin}/#/?validate={code}. Printed and displayed QR images depend on
// this exact shape; do not change the parameter name or the hash routing.
func Encode(code, baseOrigin string) string {
	return strings.TrimRight(baseOrigin, "/") + "/#/?validate=" + code
}

// validateParam matches a validate=<code> parameter anywhere in a query-like
// portion of a URL, whether it sits in the document query string or inside a
// hash-routed fragment.
var validateParam = regexp.MustCompile(`[?&]validate=([^&/#?]+)`)

// jsonPayload is the scanned-JSON input shape.
type jsonPayload struct {
	Code string `json:"code"`
}

// Decode normalizes raw scanned or typed text into a candidate code.
// Accepted shapes: a bare code, a JSON object with a "code" field, or a URL
// containing validate=<code>. Decode never fails: anything unrecognizable is
// returned trimmed as-is, so downstream validation rejects it with a
// not-found result instead of the scanner hard-failing on garbage input.
func Decode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "{") {
		var payload jsonPayload
		if err := json.Unmarshal([]byte(s), &payload); err == nil && payload.Code != "" {
			return strings.TrimSpace(payload.Code)
		}
	}

	if m := validateParam.FindStringSubmatch(s); m != nil {
		if unescaped, err := url.QueryUnescape(m[1]); err == nil {
			return strings.TrimSpace(unescaped)
		}
		return strings.TrimSpace(m[1])
	}

	// Permissive match failed; fall back to full URL parsing in case the
	// parameter is escaped or oddly placed.
	if code := decodeURL(s); code != "" {
		return code
	}

	return s
}

// decodeURL extracts validate=<code> via url.Parse, looking at both the
// document query string and the hash-routed fragment. Returns "" when the
// input is not a URL carrying the parameter.
func decodeURL(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}

	if code := u.Query().Get("validate"); code != "" {
		return strings.TrimSpace(code)
	}

	// Hash-routed apps carry the query inside the fragment: /#/?validate=X
	frag := u.Fragment
	if i := strings.Index(frag, "?"); i >= 0 {
		if values, err := url.ParseQuery(frag[i+1:]); err == nil {
			if code := values.Get("validate"); code != "" {
				return strings.TrimSpace(code)
			}
		}
	}

	return ""
}
