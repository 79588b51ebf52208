package twitter

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// oauth1Credentials holds one user context for OAuth 1.0a request signing.
// Posting tweets requires a signed user context; the bearer token only covers
// reads.
type oauth1Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// authorizationHeader builds the OAuth Authorization header value for a
// request with no query parameters and a JSON body (body is not part of the
// signature base for non-form content types)
func (c *oauth1Credentials) authorizationHeader(method, requestURL string) (string, error) {
	nonce, err := generateNonce()
	if err != nil {
		return "", err
	}

	params := map[string]string{
		"oauth_consumer_key":     c.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        fmt.Sprintf("%d", time.Now().Unix()),
		"oauth_token":            c.Token,
		"oauth_version":          "1.0",
	}
	params["oauth_signature"] = c.sign(method, requestURL, params)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", percentEncode(k), percentEncode(params[k])))
	}
	return "OAuth " + strings.Join(pairs, ", "), nil
}

func (c *oauth1Credentials) sign(method, requestURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}

	base := strings.Join([]string{
		strings.ToUpper(method),
		percentEncode(requestURL),
		percentEncode(strings.Join(pairs, "&")),
	}, "&")

	signingKey := percentEncode(c.ConsumerSecret) + "&" + percentEncode(c.TokenSecret)
	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode implements RFC 3986 encoding as OAuth 1.0a requires it, which
// differs from url.QueryEscape around spaces and tildes
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

func generateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
