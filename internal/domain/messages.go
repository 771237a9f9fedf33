package domain

import "fmt"

// Status lines shown in the kiosk UI.
const (
	MsgLoadingModels      = "Loading models..."
	MsgModelsLoaded       = "Models loaded. You can register a face."
	MsgModelsFailed       = "Failed to load models"
	MsgModelsNotLoaded    = "Models are not loaded yet!"
	MsgNoCamera           = "No camera access."
	MsgSearchingRegister  = "Searching for a face to register..."
	MsgSearchingRecognize = "Searching for a face to recognize..."
	MsgFaceNotFound       = "Face not found. Please try again."
	MsgNoEnrolledUsers    = "No registered users to compare against."
	MsgNotRecognized      = "Face not recognized."
	MsgFlowTimeout        = "Face search timed out. Please try again."
	MsgDetectionFailed    = "Face search failed. Please try again."
)

// RegisteredMessage is the status line after a successful enrollment.
func RegisteredMessage(id string) string {
	return fmt.Sprintf("Face registered as %s", id)
}

// RecognizedMessage is the status line after a successful match.
func RecognizedMessage(m MatchResult) string {
	return fmt.Sprintf("Recognized face: %s (distance %s)", m.ID, m.DistanceText())
}
