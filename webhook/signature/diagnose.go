package signature

import (
	"crypto/hmac"

	"github.com/marcelsud/webhook-guard/webhook"
)

/* Diagnosis reports why a signature did or did not verify
 * Exposed through a debug-only endpoint for operational troubleshooting.
 * Digests and secrets are truncated to short non-reversible previews;
 * full secrets never appear in diagnostics output
 */
type Diagnosis struct {
	Valid       bool              `json:"valid"`
	Environment string            `json:"environment"`
	SecretUsed  string            `json:"secret_used"`
	Attempts    []DiagnosisScheme `json:"attempts"`
}

// DiagnosisScheme describes one scheme tried during diagnosis
type DiagnosisScheme struct {
	Scheme          string `json:"scheme"`
	ExpectedPreview string `json:"expected_preview"`
	ReceivedPreview string `json:"received_preview"`
	Match           bool   `json:"match"`
}

// Diagnose verifies a delivery against every known scheme and reports the
// outcome of each. Unlike Valid, the diagnostic path is allowed to try
// multiple schemes; it must never be used for production validation.
func (v *Validator) Diagnose(env webhook.Environment, hdr Headers, body []byte) Diagnosis {
	d := Diagnosis{Environment: env.String()}

	secret, ok := v.secretFor(env)
	if !ok {
		d.SecretUsed = "none"
		return d
	}
	d.SecretUsed = describeSecret(env, v.sandboxSecret != "")

	if hdr.Signature256 != "" {
		// Canonical scheme first, then the body-only variant so operators
		// can spot senders signing without the timestamp
		d.Attempts = append(d.Attempts,
			diagnose("hmac-sha256 timestamp+body", Sign256(secret, hdr.Timestamp, body), hdr.Signature256),
			diagnose("hmac-sha256 body", Sign256(secret, "", body), hdr.Signature256),
		)
	}
	if hdr.Signature1 != "" {
		d.Attempts = append(d.Attempts,
			diagnose("hmac-sha1 body", Sign1(secret, body), hdr.Signature1),
		)
	}

	for _, a := range d.Attempts {
		if a.Match {
			d.Valid = true
			break
		}
	}
	return d
}

func diagnose(scheme, expected, received string) DiagnosisScheme {
	return DiagnosisScheme{
		Scheme:          scheme,
		ExpectedPreview: preview(expected),
		ReceivedPreview: preview(received),
		Match:           hmac.Equal([]byte(expected), []byte(received)),
	}
}

func describeSecret(env webhook.Environment, sandboxConfigured bool) string {
	if env == webhook.Sandbox && !sandboxConfigured {
		return "production (sandbox fallback)"
	}
	return env.String()
}

// preview truncates a digest to a short non-reversible prefix
func preview(s string) string {
	const n = 8
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
