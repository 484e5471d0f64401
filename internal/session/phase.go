package session

// Phase is one state of the circulation session state machine. The
// current phase is published through the StatusCell for pollers.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseReadingTag    Phase = "reading_tag"
	PhaseLookingUp     Phase = "looking_up"
	PhaseCapturingFace Phase = "capturing_face"
	PhaseEncoding      Phase = "encoding"
	PhaseIdentifying   Phase = "identifying"
	PhaseMatching      Phase = "matching_gallery"
	PhaseVerifying     Phase = "verifying"
	PhaseCommitting    Phase = "committing"
	PhaseSuccess       Phase = "success"
	PhaseError         Phase = "error"
)

// Terminal reports whether the phase ends a session.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseError
}
