// README: AidRequest aggregate and status definitions.
package dispatch

import (
	"time"

	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

type AidRequest struct {
	ID          types.ID   `bson:"_id" json:"id"`
	SenderID    types.ID   `bson:"senderId" json:"senderId"`
	DriverID    types.ID   `bson:"driverId" json:"driverId"`
	AidType     string     `bson:"aidType" json:"aidType"`
	Quantity    string     `bson:"quantity" json:"quantity"`
	Destination string     `bson:"destination" json:"destination"`
	Urgency     Urgency    `bson:"urgency" json:"urgency"`
	Status      Status     `bson:"status" json:"status"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	AcceptedAt  *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// AllowedTransitions represents the request state flow as code. COMPLETED and
// CANCELLED have no outgoing edges.
var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}
