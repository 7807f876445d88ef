package internaldefs

import (
	authcore "github.com/authcore-io/authcore"
)

// CounterDef binds an engine counter to its stable exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its stable exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricIssueSuccess, Name: "authcore_issue_success_total", Help: "Successful credential issues."},
	{ID: authcore.MetricIssueFailure, Name: "authcore_issue_failure_total", Help: "Failed credential issues."},
	{ID: authcore.MetricCredentialFormatError, Name: "authcore_credential_format_error_total", Help: "Stored credential hashes the policy could not decode."},
	{ID: authcore.MetricValidateSuccess, Name: "authcore_validate_success_total", Help: "Successful access token validations."},
	{ID: authcore.MetricValidateFailure, Name: "authcore_validate_failure_total", Help: "Rejected access token validations."},
	{ID: authcore.MetricRotateSuccess, Name: "authcore_rotate_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRotateFailure, Name: "authcore_rotate_failure_total", Help: "Failed refresh rotations."},
	{ID: authcore.MetricReplayDetected, Name: "authcore_replay_detected_total", Help: "Detected refresh token replays."},
	{ID: authcore.MetricSessionExpired, Name: "authcore_session_expired_total", Help: "Operations rejected on expired sessions."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logout operations."},
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Created refresh sessions."},
	{ID: authcore.MetricStoreUnavailable, Name: "authcore_store_unavailable_total", Help: "Operations failed on backend outage."},
	{ID: authcore.MetricKeyRotation, Name: "authcore_key_rotation_total", Help: "Signing key rotations."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: "authcore_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus style.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix mirrors HistogramBounds plus +Inf as name-safe
// suffixes for backends without native histogram support.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative counts; the
// last entry is the total sample count.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
