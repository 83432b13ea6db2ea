package job

import "fmt"

// Step names one stage of processing a single video
type Step string

const (
	StepValidate Step = "validate"
	StepArchive  Step = "archive"
	StepPublish  Step = "publish"
)

// StepError records which stage failed for which file
type StepError struct {
	Step Step
	Path string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Path, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
