package internaldefs

import (
	goOnboard "github.com/MrEthical07/goOnboard"
)

// CounterDef names one counter for export.
type CounterDef struct {
	ID   goOnboard.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram for export.
type HistogramDef struct {
	ID   goOnboard.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goOnboard.MetricSignInAttempt, Name: "onboard_sign_in_attempt_total", Help: "Sign-in submissions sent to the backend."},
	{ID: goOnboard.MetricSignInSuccess, Name: "onboard_sign_in_success_total", Help: "Sign-ins that created a session."},
	{ID: goOnboard.MetricSignInFailure, Name: "onboard_sign_in_failure_total", Help: "Sign-ins that failed or were rejected."},
	{ID: goOnboard.MetricSignInRequires2FA, Name: "onboard_sign_in_2fa_required_total", Help: "Sign-ins answered with a second-factor challenge."},
	{ID: goOnboard.MetricRecoveryCodeRequested, Name: "onboard_recovery_code_requested_total", Help: "Password-recovery codes requested."},
	{ID: goOnboard.MetricRecoveryCodeResent, Name: "onboard_recovery_code_resent_total", Help: "Password-recovery codes resent."},
	{ID: goOnboard.MetricRecoveryCodeVerified, Name: "onboard_recovery_code_verified_total", Help: "Recovery codes accepted."},
	{ID: goOnboard.MetricRecoveryCodeRejected, Name: "onboard_recovery_code_rejected_total", Help: "Recovery codes rejected by the backend."},
	{ID: goOnboard.MetricRecoveryPasswordUpdated, Name: "onboard_recovery_password_updated_total", Help: "Passwords reset through recovery."},
	{ID: goOnboard.MetricRecoveryFailure, Name: "onboard_recovery_failure_total", Help: "Recovery calls that failed."},
	{ID: goOnboard.MetricKYCCameraOpened, Name: "onboard_kyc_camera_opened_total", Help: "Camera streams opened by the KYC wizard."},
	{ID: goOnboard.MetricKYCCameraFailed, Name: "onboard_kyc_camera_failed_total", Help: "Camera opens or captures that failed."},
	{ID: goOnboard.MetricKYCCaptured, Name: "onboard_kyc_captured_total", Help: "Document and selfie frames captured."},
	{ID: goOnboard.MetricKYCSubmitted, Name: "onboard_kyc_submitted_total", Help: "KYC submissions accepted by the backend."},
	{ID: goOnboard.MetricKYCFailure, Name: "onboard_kyc_failure_total", Help: "KYC submissions that failed or were rejected."},
	{ID: goOnboard.MetricSessionHydrated, Name: "onboard_session_hydrated_total", Help: "Sessions restored from storage."},
	{ID: goOnboard.MetricSessionDiscarded, Name: "onboard_session_discarded_total", Help: "Corrupt stored sessions discarded."},
	{ID: goOnboard.MetricLogout, Name: "onboard_logout_total", Help: "Logouts that cleared a session."},
	{ID: goOnboard.MetricBackendFailure, Name: "onboard_backend_failure_total", Help: "Backend calls that failed at the transport or decode layer."},
}

var HistogramDefs = []HistogramDef{
	{ID: goOnboard.MetricBackendLatency, Name: "onboard_backend_latency_seconds", Help: "Backend call latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the latency buckets.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket in exporters that cannot use le labels.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
