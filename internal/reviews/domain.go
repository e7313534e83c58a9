// Package reviews stores customer testimonials shown on the landing page.
package reviews

import "time"

// Review is a customer testimonial with a star rating.
type Review struct {
	ID            int64     `json:"id"`
	ReviewerEmail string    `json:"reviewerEmail"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerPhoto string    `json:"reviewerPhoto"`
	Rating        int       `json:"rating"`
	Feedback      string    `json:"feedback"`
	PolicyID      int64     `json:"policyId"`
	PolicyTitle   string    `json:"policyTitle"`
	SubmittedAt   time.Time `json:"submittedAt"`
}
