// Package types provides type definitions for structured data used throughout the skillbridge system.
package types

// AnalyzeRequest is a resume and target role submitted for analysis.
type AnalyzeRequest struct {
	ResumeText string `json:"resume_text" validate:"required"`
	TargetRole string `json:"target_role" validate:"required,max=200"`
}

// Validate validates the AnalyzeRequest using the validator.
func (r *AnalyzeRequest) Validate() error {
	return validate.Struct(r)
}

// ShareResponse is returned after a report has been saved.
type ShareResponse struct {
	ReportID string `json:"report_id"`
	ShareURL string `json:"share_url,omitempty"`
}
