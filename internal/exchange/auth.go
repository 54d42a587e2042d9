package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// authHeaders builds the L2 HMAC headers for one request. The signature is
// HMAC-SHA256 over timestamp + method + path + body, with URL-safe base64 on
// both the decoded secret and the resulting digest.
func (c *Client) authHeaders(method, path string, body []byte) (map[string]string, error) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	secretBytes, err := base64.URLEncoding.DecodeString(c.creds.Secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}

	payload := timestamp + method + path + string(body)
	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(payload))
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	address := ""
	if c.signer != nil {
		address = c.signer.Address()
	}

	return map[string]string{
		"POLY_API_KEY":    c.creds.APIKey,
		"POLY_SIGNATURE":  signature,
		"POLY_TIMESTAMP":  timestamp,
		"POLY_PASSPHRASE": c.creds.Passphrase,
		"POLY_ADDRESS":    address,
	}, nil
}
