package session

import (
	"errors"
	"strings"
)

// VerificationLevel is the KYC completeness reported by the backend.
type VerificationLevel uint8

const (
	// LevelUnset means the backend has not reported a level.
	LevelUnset VerificationLevel = iota
	// LevelUnverified means no KYC submission exists.
	LevelUnverified
	// LevelPending means a submission is under review.
	LevelPending
	// LevelVerified means KYC was approved.
	LevelVerified
	// LevelRejected means the last submission was declined.
	LevelRejected
)

// ErrSessionInvalid is returned when a write would break a Session invariant.
var ErrSessionInvalid = errors.New("session invalid")

func (l VerificationLevel) String() string {
	switch l {
	case LevelUnverified:
		return "unverified"
	case LevelPending:
		return "pending"
	case LevelVerified:
		return "verified"
	case LevelRejected:
		return "rejected"
	default:
		return ""
	}
}

// ParseVerificationLevel maps the backend's wire value. Unknown values map to
// LevelUnset.
func ParseVerificationLevel(v string) VerificationLevel {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "unverified", "not_submitted", "none":
		return LevelUnverified
	case "pending", "in_review", "submitted":
		return LevelPending
	case "verified", "approved":
		return LevelVerified
	case "rejected", "declined", "failed":
		return LevelRejected
	default:
		return LevelUnset
	}
}

// LevelFromStatus maps the kyc_status of a login reply. A missing status stays
// LevelUnset, and a present but empty one means nothing was submitted yet.
func LevelFromStatus(status *string) VerificationLevel {
	if status == nil {
		return LevelUnset
	}
	if strings.TrimSpace(*status) == "" {
		return LevelUnverified
	}
	return ParseVerificationLevel(*status)
}

// NeedsKYC reports whether a user at this level should be routed to the KYC
// wizard. Post-login navigation and session views both use it.
func (l VerificationLevel) NeedsKYC() bool {
	return l == LevelUnverified || l == LevelRejected
}

// Profile is the user-facing portion of a Session that UpdateUser may replace.
type Profile struct {
	UserID            string
	DisplayName       string
	Email             string
	VerificationLevel VerificationLevel
}

// Session is the authenticated identity for one account scope.
type Session struct {
	UserID            string
	SessionToken      string
	DisplayName       string
	Email             string
	VerificationLevel VerificationLevel
	IsLoggedIn        bool
}

// Validate checks the Session invariants.
func (s *Session) Validate() error {
	if s == nil {
		return ErrSessionInvalid
	}
	if s.VerificationLevel > LevelRejected {
		return ErrSessionInvalid
	}
	if s.VerificationLevel == LevelVerified && s.SessionToken == "" {
		return ErrSessionInvalid
	}
	if s.IsLoggedIn && s.SessionToken == "" {
		return ErrSessionInvalid
	}
	return nil
}

// Profile returns the profile portion of s.
func (s Session) Profile() Profile {
	return Profile{
		UserID:            s.UserID,
		DisplayName:       s.DisplayName,
		Email:             s.Email,
		VerificationLevel: s.VerificationLevel,
	}
}
