package domain

// TriggerOutcome classifies the result of handing a file to the external
// extraction service. The caller, not the trigger client, writes the
// resulting file status.
type TriggerOutcome int

const (
	// TriggerAccepted: the service acknowledged the job; the file moves to PROCESSING.
	TriggerAccepted TriggerOutcome = iota
	// TriggerRejected: the service answered outside the success range.
	TriggerRejected
	// TriggerUnreachable: network failure or timeout before any answer.
	TriggerUnreachable
)

func (o TriggerOutcome) String() string {
	switch o {
	case TriggerAccepted:
		return "accepted"
	case TriggerRejected:
		return "rejected"
	case TriggerUnreachable:
		return "unreachable"
	}
	return "unknown"
}

// ExtractionJob is the payload handed to the extraction service, and the
// unit of work the extractor worker consumes from its queue.
type ExtractionJob struct {
	FileID      string `json:"file_id"`
	BlobPath    string `json:"blob_path"`
	CallbackURL string `json:"callback_url"`
}

type CallbackOutcome string

const (
	CallbackSuccess CallbackOutcome = "success"
	CallbackFailure CallbackOutcome = "failure"
)

// ExtractionCallback is the asynchronous completion report posted back by
// the extraction service.
type ExtractionCallback struct {
	FileID        string          `json:"file_id"`
	Outcome       CallbackOutcome `json:"outcome"`
	ExtractedText string          `json:"extracted_text,omitempty"`
}
