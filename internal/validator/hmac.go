package validator

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/dineflow/hookbridge/internal/client"
)

// HMACHex authenticates providers that send a hex-encoded HMAC-SHA256 of the
// request body (careem-class). The digest is computed over the exact raw
// bytes; re-serializing the JSON first would change key order and whitespace
// and break the comparison.
type HMACHex struct {
	Header string
}

func (s *HMACHex) Validate(_ context.Context, cfg *client.Config, req Request) Result {
	got := req.Headers.Get(s.Header)
	if got == "" {
		return reject(ReasonMissingSignature)
	}
	mac := hmac.New(sha256.New, []byte(cfg.Secret))
	mac.Write(req.Body)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(got), []byte(want)) {
		return reject(ReasonBadSignature)
	}
	return accept()
}

// HMACBase64 is the same scheme with a base64-encoded digest
// (deliveroo-class).
type HMACBase64 struct {
	Header string
}

func (s *HMACBase64) Validate(_ context.Context, cfg *client.Config, req Request) Result {
	got := req.Headers.Get(s.Header)
	if got == "" {
		return reject(ReasonMissingSignature)
	}
	mac := hmac.New(sha256.New, []byte(cfg.Secret))
	mac.Write(req.Body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(got), []byte(want)) {
		return reject(ReasonBadSignature)
	}
	return accept()
}
