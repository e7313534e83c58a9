// Package applications manages policy applications: submission, agent
// assignment, the approval lifecycle and claims.
package applications

import (
	"time"

	"github.com/google/uuid"
)

// Status is an application's review state.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ClaimStatus tracks a claim filed against an approved application.
type ClaimStatus string

const (
	ClaimNone     ClaimStatus = "None"
	ClaimPending  ClaimStatus = "Pending"
	ClaimApproved ClaimStatus = "Approved"
)

// Application represents a customer's application for a policy.
type Application struct {
	ID                  uuid.UUID   `json:"id"`
	ApplicantName       string      `json:"applicantName"`
	ApplicantEmail      string      `json:"applicantEmail"`
	ApplicantAddress    string      `json:"applicantAddress"`
	NIDNumber           string      `json:"nidNumber"`
	NomineeName         string      `json:"nomineeName"`
	NomineeRelationship string      `json:"nomineeRelationship"`
	HealthInfo          string      `json:"healthInfo,omitempty"`
	PolicyID            int64       `json:"policyId"`
	PolicyTitle         string      `json:"policyTitle"`
	CoverageAmount      string      `json:"coverageAmount"`
	AgentID             *int64      `json:"agentId,omitempty"`
	AgentName           string      `json:"agentName"`
	Status              Status      `json:"status"`
	ClaimStatus         ClaimStatus `json:"claimStatus"`
	ClaimDetails        string      `json:"claimDetails,omitempty"`
	RejectionFeedback   string      `json:"rejectionFeedback,omitempty"`
	Paid                bool        `json:"paid"`
	SubmittedAt         time.Time   `json:"submissionDate"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}
