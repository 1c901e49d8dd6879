// Package document is the document-generation port.
package document

import "context"

type SubmissionState string

const (
	StatePending   SubmissionState = "pending"
	StateProcessed SubmissionState = "processed"
	StateError     SubmissionState = "error"
)

type Submission struct {
	ID          string
	State       SubmissionState
	DownloadURL string
}

// Fields is an enumerated template field schema flattened for submission.
type Fields interface {
	Map() map[string]any
}

type Generator interface {
	Submit(ctx context.Context, templateID string, fields Fields) (*Submission, error)
	Fetch(ctx context.Context, submissionID string) (*Submission, error)
	// Await polls Fetch until a download URL appears, the submission errors, or the wait budget runs out.
	Await(ctx context.Context, submissionID string) (*Submission, error)
}
