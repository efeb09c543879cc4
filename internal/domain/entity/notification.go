package entity

import "time"

// NotificationTypeClaimApproval tags notifications raised by the approval chain
const NotificationTypeClaimApproval = "ClaimApproval"

// Notification is a write-once message addressed to one user
type Notification struct {
	ID              string    `json:"id" bson:"_id"`
	RecipientUserID int64     `json:"userId" bson:"userId"`
	Title           string    `json:"title" bson:"title"`
	Message         string    `json:"message" bson:"message"`
	Type            string    `json:"type" bson:"type"`
	RelatedClaimID  int64     `json:"relatedId" bson:"relatedId"`
	IsRead          bool      `json:"isRead" bson:"isRead"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}
