package notify

import "fmt"

// EvaluationFailedDefault is shown when a failed job carries no message.
const EvaluationFailedDefault = "An error occurred during evaluation."

// EvaluationStarted announces a submitted dataset job.
func EvaluationStarted(totalRows int) Notice {
	return Notice{
		Kind:    Info,
		Title:   "Evaluation Started",
		Message: fmt.Sprintf("Processing %d prompts. This may take 10-20 minutes.", totalRows),
	}
}

// EvaluationComplete announces a finished dataset job.
func EvaluationComplete(totalRows int) Notice {
	return Notice{
		Kind:    Success,
		Title:   "Evaluation Complete!",
		Message: fmt.Sprintf("Processed %d prompts successfully.", totalRows),
	}
}

// EvaluationFailed announces a failed dataset job.
func EvaluationFailed(message string) Notice {
	if message == "" {
		message = EvaluationFailedDefault
	}
	return Notice{Kind: Failure, Title: "Evaluation Failed", Message: message}
}

// InvalidFile rejects a non-CSV upload.
func InvalidFile() Notice {
	return Notice{Kind: Failure, Title: "Invalid File", Message: "Please upload a CSV file"}
}
