package domain

import "time"

type WaitlistStatus string

const (
	WaitlistPending  WaitlistStatus = "pending"
	WaitlistApproved WaitlistStatus = "approved"
	WaitlistRejected WaitlistStatus = "rejected"
)

func (s WaitlistStatus) Valid() bool {
	switch s {
	case WaitlistPending, WaitlistApproved, WaitlistRejected:
		return true
	}
	return false
}

type WaitlistEntry struct {
	ID                  string
	Email               string // stored lower-cased, unique
	PhoneNumber         string
	Name                string
	BusinessName        string
	BusinessDescription string
	BusinessURL         string
	Message             *string
	Status              WaitlistStatus
	CreatedAt           time.Time
}
