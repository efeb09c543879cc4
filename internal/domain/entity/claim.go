package entity

import (
	"strings"
	"time"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// StatusChange is one entry of a claim's append-only history
type StatusChange struct {
	Status      workflow.State `json:"status" bson:"status"`
	ActorUserID int64          `json:"changedByUserId" bson:"changedByUserId"`
	Timestamp   time.Time      `json:"changedAt" bson:"changedAt"`
	Note        string         `json:"note" bson:"note"`
}

// ClaimDetails holds the business payload of a claim.
// The workflow never interprets these fields; it only preserves them across updates.
type ClaimDetails struct {
	Requester         string   `json:"requester" bson:"requester"`
	Department        string   `json:"department" bson:"department"`
	RequestDate       string   `json:"requestDate" bson:"requestDate"`
	ProjectCode       string   `json:"projectCode" bson:"projectCode"`
	TransactionType   string   `json:"transactionType" bson:"transactionType"`
	TransactionObject string   `json:"transactionObject" bson:"transactionObject"`
	TransactionDate   string   `json:"transactionDate" bson:"transactionDate"`
	Content           string   `json:"content" bson:"content"`
	Description       string   `json:"description" bson:"description"`
	AmountBeforeTax   float64  `json:"amountBeforeTax" bson:"amountBeforeTax"`
	TaxRate           float64  `json:"taxRate" bson:"taxRate"`
	TotalAmount       float64  `json:"totalAmount" bson:"totalAmount"`
	PaymentMethod     string   `json:"paymentMethod" bson:"paymentMethod"`
	Bank              string   `json:"bank" bson:"bank"`
	AccountNumber     string   `json:"accountNumber" bson:"accountNumber"`
	VoucherType       string   `json:"voucherType" bson:"voucherType"`
	VoucherNumber     string   `json:"voucherNumber" bson:"voucherNumber"`
	VoucherDate       string   `json:"voucherDate" bson:"voucherDate"`
	Attachment        string   `json:"attachment" bson:"attachment"`
	Attachments       []string `json:"attachments" bson:"attachments"`
	Note              string   `json:"note" bson:"note"`
}

// Claim is an expense request moving through the approval chain
type Claim struct {
	OpaqueID           string         `json:"-" bson:"_id"`
	SequentialID       int64          `json:"id" bson:"sequentialId"`
	OwnerUserID        int64          `json:"createdByUserId" bson:"createdByUserId"`
	Status             workflow.State `json:"paymentStatus" bson:"paymentStatus"`
	History            []StatusChange `json:"statusHistory" bson:"statusHistory"`
	RejectionReason    string         `json:"rejectionReason" bson:"rejectionReason"`
	ExplicitRecipients []int64        `json:"notificationRecipients,omitempty" bson:"notificationRecipients,omitempty"`
	ClaimDetails       `bson:",inline"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EffectiveStatus returns the stored status, or when it is empty or unknown the
// last valid status found scanning history backwards, or Pending.
func (c *Claim) EffectiveStatus() workflow.State {
	if c.Status.IsValid() {
		return c.Status
	}
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Status.IsValid() {
			return c.History[i].Status
		}
	}
	return workflow.StatePending
}

// Normalize rewrites legacy status labels to canonical states
func (c *Claim) Normalize() {
	if s, ok := workflow.ParseState(string(c.Status)); ok {
		c.Status = s
	}
	for i := range c.History {
		if s, ok := workflow.ParseState(string(c.History[i].Status)); ok {
			c.History[i].Status = s
		}
	}
}

// LastChange returns the newest history entry, if any
func (c *Claim) LastChange() (StatusChange, bool) {
	if len(c.History) == 0 {
		return StatusChange{}, false
	}
	return c.History[len(c.History)-1], true
}

// ClaimPatch is a caller-supplied edit. Nil pointers and blank strings mean
// "keep the stored value".
type ClaimPatch struct {
	Requester         *string   `json:"requester"`
	Department        *string   `json:"department"`
	RequestDate       *string   `json:"requestDate"`
	ProjectCode       *string   `json:"projectCode"`
	TransactionType   *string   `json:"transactionType"`
	TransactionObject *string   `json:"transactionObject"`
	TransactionDate   *string   `json:"transactionDate"`
	Content           *string   `json:"content"`
	Description       *string   `json:"description"`
	AmountBeforeTax   *float64  `json:"amountBeforeTax"`
	TaxRate           *float64  `json:"taxRate"`
	TotalAmount       *float64  `json:"totalAmount"`
	PaymentMethod     *string   `json:"paymentMethod"`
	Bank              *string   `json:"bank"`
	AccountNumber     *string   `json:"accountNumber"`
	VoucherType       *string   `json:"voucherType"`
	VoucherNumber     *string   `json:"voucherNumber"`
	VoucherDate       *string   `json:"voucherDate"`
	Attachment        *string   `json:"attachment"`
	Attachments       *[]string `json:"attachments"`
	Note              *string   `json:"note"`

	Status          *string `json:"paymentStatus"`
	RejectionReason *string `json:"rejectionReason"`
}

// Apply merges the patch over the stored details field by field
func (p ClaimPatch) Apply(d ClaimDetails) ClaimDetails {
	mergeText(&d.Requester, p.Requester)
	mergeText(&d.Department, p.Department)
	mergeText(&d.RequestDate, p.RequestDate)
	mergeText(&d.ProjectCode, p.ProjectCode)
	mergeText(&d.TransactionType, p.TransactionType)
	mergeText(&d.TransactionObject, p.TransactionObject)
	mergeText(&d.TransactionDate, p.TransactionDate)
	mergeText(&d.Content, p.Content)
	mergeText(&d.Description, p.Description)
	mergeNumber(&d.AmountBeforeTax, p.AmountBeforeTax)
	mergeNumber(&d.TaxRate, p.TaxRate)
	mergeNumber(&d.TotalAmount, p.TotalAmount)
	mergeText(&d.PaymentMethod, p.PaymentMethod)
	mergeText(&d.Bank, p.Bank)
	mergeText(&d.AccountNumber, p.AccountNumber)
	mergeText(&d.VoucherType, p.VoucherType)
	mergeText(&d.VoucherNumber, p.VoucherNumber)
	mergeText(&d.VoucherDate, p.VoucherDate)
	mergeText(&d.Attachment, p.Attachment)
	mergeText(&d.Note, p.Note)
	if p.Attachments != nil {
		d.Attachments = append([]string(nil), (*p.Attachments)...)
	}
	return d
}

// Details converts a creation payload into claim details, treating absent fields as zero
func (p ClaimPatch) Details() ClaimDetails {
	return p.Apply(ClaimDetails{})
}

func mergeText(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = *v
	}
}

func mergeNumber(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
