package session

const (
	messageContinuousStartFormat = "Recognizing text and writing to file %q."
	messageContinuousDone        = "Done recognizing."
	messageOutputSavedFormat     = "Output saved to %q."
	messageOnceStart             = "Recognizing first result..."

	lineRecognizedFormat      = "[%s] %s"
	lineNoMatchFormat         = "[%s] Speech could not be recognized."
	lineCanceledFormat        = "[%s] Canceled for the following reason \"%s\"."
	lineCanceledErrorFormat   = "[%s] Canceled with error code \"%s\". Error details: \"%s\". Did you update the subscription info?"
	lineUnknownFormat         = "[%s] ERROR: An unknown problem ocurred."
	onceRecognizedFormat      = "We recognized: %s"
	onceNoMatch               = "NOMATCH: Speech could not be recognized."
	onceCanceledReasonFormat  = "CANCELED: Reason=%s"
	onceCanceledCodeFormat    = "CANCELED: ErrorCode=%s"
	onceCanceledDetailsFormat = "CANCELED: ErrorDetails=%s"
	onceCanceledHint          = "CANCELED: Did you update the subscription info?"
	onceUnknown               = "ERROR: An unknown problem ocurred."
)
