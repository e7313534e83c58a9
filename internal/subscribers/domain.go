// Package subscribers manages newsletter signups.
package subscribers

import "time"

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	SubscribedAt time.Time `json:"subscribedAt"`
}
