package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"

	"github.com/marcelsud/webhook-guard/webhook"
)

// Header names used by the webhook sender.
const (
	// HeaderSignature256 carries the current HMAC-SHA256 signature (base64)
	HeaderSignature256 = "x-square-hmacsha256-signature"

	// HeaderSignature1 carries the legacy HMAC-SHA1 signature (base64)
	HeaderSignature1 = "x-square-signature"

	// HeaderTimestamp carries the unix timestamp bound into the SHA256 scheme
	HeaderTimestamp = "x-square-hmacsha256-timestamp"

	// HeaderEnvironment distinguishes sandbox from production deliveries
	HeaderEnvironment = "square-environment"
)

/* Headers holds the signature-relevant headers of a delivery
 * Extracted by the HTTP layer so this package stays transport-agnostic
 */
type Headers struct {
	Signature256 string
	Signature1   string
	Timestamp    string
}

/* Validator verifies inbound webhook authenticity
 * One instance per process, constructed at startup with the secrets for
 * both environments. Validation fails closed: missing header, missing
 * secret or digest mismatch all yield false
 */
type Validator struct {
	productionSecret string
	sandboxSecret    string
	logger           *slog.Logger
}

// NewValidator creates a validator with per-environment secrets.
// The sandbox secret may be empty; sandbox deliveries then fall back to the
// production secret with a logged warning.
func NewValidator(productionSecret, sandboxSecret string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		productionSecret: productionSecret,
		sandboxSecret:    sandboxSecret,
		logger:           logger,
	}
}

// Valid reports whether the delivery carries a valid signature.
// The production path applies exactly one scheme per header variant:
//   - SHA256 header: HMAC-SHA256 over timestamp+body (body alone when the
//     timestamp header is absent)
//   - legacy SHA1 header: HMAC-SHA1 over body alone
//
// When both headers are present the SHA256 variant takes precedence.
func (v *Validator) Valid(env webhook.Environment, hdr Headers, body []byte) bool {
	secret, ok := v.secretFor(env)
	if !ok {
		return false
	}

	switch {
	case hdr.Signature256 != "":
		expected := Sign256(secret, hdr.Timestamp, body)
		return hmac.Equal([]byte(expected), []byte(hdr.Signature256))
	case hdr.Signature1 != "":
		expected := Sign1(secret, body)
		return hmac.Equal([]byte(expected), []byte(hdr.Signature1))
	default:
		return false
	}
}

// secretFor selects the signing secret for an environment.
// Sandbox prefers the sandbox secret and falls back to the production
// secret with a warning. Absence of any usable secret fails closed.
func (v *Validator) secretFor(env webhook.Environment) (string, bool) {
	if env == webhook.Sandbox {
		if v.sandboxSecret != "" {
			return v.sandboxSecret, true
		}
		if v.productionSecret != "" {
			v.logger.Warn("sandbox webhook secret not configured, falling back to production secret")
			return v.productionSecret, true
		}
		return "", false
	}
	if v.productionSecret == "" {
		return "", false
	}
	return v.productionSecret, true
}

// Sign256 computes the base64 HMAC-SHA256 digest of timestamp+body.
// An empty timestamp signs the body alone.
func Sign256(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Sign1 computes the base64 HMAC-SHA1 digest of the body (legacy scheme).
func Sign1(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
