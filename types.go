package goOnboard

import (
	"github.com/MrEthical07/goOnboard/internal/flows"
	"github.com/MrEthical07/goOnboard/session"
)

// Wizard types. The implementations live in internal/flows.
type (
	SignIn       = flows.SignIn
	SignInState  = flows.SignInState
	SignInResult = flows.SignInResult

	Recovery       = flows.Recovery
	RecoveryStage  = flows.RecoveryStage
	RecoveryResult = flows.RecoveryResult
	Countdown      = flows.Countdown

	KYC         = flows.KYC
	KYCStep     = flows.KYCStep
	KYCResult   = flows.KYCResult
	KYCSnapshot = flows.KYCSnapshot
	IDType      = flows.IDType

	FieldError  = flows.FieldError
	ServerError = flows.ServerError
	Navigation  = flows.Navigation
	Destination = flows.Destination
)

const (
	SignInIdle        = flows.SignInIdle
	SignInSubmitting  = flows.SignInSubmitting
	SignInSuccess     = flows.SignInSuccess
	SignInRequires2FA = flows.SignInRequires2FA
	SignInFailed      = flows.SignInFailed

	RecoveryEmailEntry      = flows.RecoveryEmailEntry
	RecoveryAwaitingCode    = flows.RecoveryAwaitingCode
	RecoverySettingPassword = flows.RecoverySettingPassword
	RecoveryComplete        = flows.RecoveryComplete

	KYCIdentityNumber  = flows.KYCIdentityNumber
	KYCDocumentCapture = flows.KYCDocumentCapture
	KYCSelfieCapture   = flows.KYCSelfieCapture
	KYCSubmitted       = flows.KYCSubmitted

	IDPassport          = flows.IDPassport
	IDNationalOrLicense = flows.IDNationalOrLicense

	Stay      = flows.Stay
	Dashboard = flows.Dashboard
	KYCWizard = flows.KYCWizard

	GenericErrorMessage = flows.GenericErrorMessage
)

// Session types.
type (
	Session           = session.Session
	Profile           = session.Profile
	VerificationLevel = session.VerificationLevel
	HydrateOutcome    = session.HydrateOutcome
)

const (
	LevelUnset      = session.LevelUnset
	LevelUnverified = session.LevelUnverified
	LevelPending    = session.LevelPending
	LevelVerified   = session.LevelVerified
	LevelRejected   = session.LevelRejected
)

const (
	HydrateEmpty     = session.HydrateEmpty
	HydrateRestored  = session.HydrateRestored
	HydrateDiscarded = session.HydrateDiscarded
)
