package session

import "fmt"

// Kind classifies session failures. Every error is terminal for the
// current session; the kind tells the caller what to retry.
type Kind string

const (
	// KindHardwareTimeout means the tag reader or camera did not respond.
	KindHardwareTimeout Kind = "hardware_timeout"

	// KindBiometricAmbiguous means zero or more than one face was detected.
	KindBiometricAmbiguous Kind = "biometric_ambiguous"

	// KindBiometricEncodeFailed means the capability failed to encode a face.
	KindBiometricEncodeFailed Kind = "biometric_encode_failed"

	// KindNoMatch means the gallery scan found nothing under tolerance.
	KindNoMatch Kind = "no_match"

	// KindFaceMismatch means 1:1 verification against the loan holder failed.
	KindFaceMismatch Kind = "face_mismatch"

	// KindAssetConstraint covers duplicate tags, unavailable assets and
	// deleting issued assets.
	KindAssetConstraint Kind = "asset_constraint"

	// KindIdentityConstraint covers duplicate contacts and deleting
	// identities with open loans.
	KindIdentityConstraint Kind = "identity_constraint"

	// KindNotFound means no open transaction exists for the presented tag.
	KindNotFound Kind = "not_found"

	// KindInternal is the generic bucket for unclassified failures.
	KindInternal Kind = "internal"
)

// Failure is a terminal session error with its taxonomy kind and the
// operator-facing message published to the status cell.
type Failure struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, optional
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// fail builds a Failure without an underlying cause.
func fail(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// failErr builds a Failure wrapping its cause.
func failErr(kind Kind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}
