package auth

import "strings"

const bearerPrefix = "Bearer "

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header value, or "" when the value is empty or uses another scheme.
func BearerToken(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return header[len(bearerPrefix):]
}
