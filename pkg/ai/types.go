package ai

import "context"

// GradingInput contains the artefacts the oracle needs to grade a submission.
type GradingInput struct {
	Description  string
	Language     string
	Code         string
	StudentLevel string
}

// UnitTestResult is a single mental-execution test case reported by the oracle.
type UnitTestResult struct {
	TestName string `json:"testName"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

// GradingOutcome is the structured verdict returned by the grading oracle.
// A grade of zero is the oracle's failure sentinel; GradingOutcome.Failed
// makes the check explicit so callers never compare against the raw zero.
type GradingOutcome struct {
	Grade       int              `json:"grade"`
	Feedback    string           `json:"feedback"`
	CodeQuality string           `json:"codeQuality"`
	Suggestions []string         `json:"suggestions"`
	UnitTests   []UnitTestResult `json:"unitTests"`
}

// Failed reports whether the outcome carries the grading-failure sentinel.
func (o GradingOutcome) Failed() bool {
	return o.Grade == 0
}

// Grader describes an AI model capable of grading code submissions.
// The call blocks until an outcome or an error is returned; there is no
// partial result and no mid-flight cancellation beyond ctx.
type Grader interface {
	Grade(ctx context.Context, input GradingInput) (GradingOutcome, error)
}
