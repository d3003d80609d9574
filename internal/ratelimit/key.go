package ratelimit

import (
	"net"
	"net/http"

	"github.com/teamposts/teamposts/internal/auth"
)

// BucketKey derives the counter key for r within a route class. Requests
// carrying a bearer token are counted per token, whether or not it is
// valid; the rest are counted per client address.
func BucketKey(class string, r *http.Request) string {
	if token := auth.BearerToken(r.Header.Get("Authorization")); token != "" {
		return class + ":api_key:" + token
	}
	return class + ":ip:" + ClientIP(r)
}

// ClientIP returns r.RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
