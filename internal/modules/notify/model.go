// README: Notification row and kind definitions.
package notify

import (
	"time"

	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type Kind string

const (
	KindInfo    Kind = "INFO"
	KindSuccess Kind = "SUCCESS"
	KindWarning Kind = "WARNING"
)

type Notification struct {
	ID        types.ID  `bson:"_id" json:"id"`
	UserID    types.ID  `bson:"userId" json:"userId"`
	Title     string    `bson:"title" json:"title"`
	Message   string    `bson:"message" json:"message"`
	Kind      Kind      `bson:"type" json:"type"`
	Read      bool      `bson:"read" json:"read"`
	RequestID types.ID  `bson:"requestId,omitempty" json:"requestId,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
