package service

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
)

// ClaimSummary is the read-only projection of a claim shown in emails
type ClaimSummary struct {
	Reference  string
	Requester  string
	Department string
	Project    string
	Content    string
	Amount     string
	Status     string
}

func summarize(c *entity.Claim) *ClaimSummary {
	ref := c.VoucherNumber
	if ref == "" {
		ref = strconv.FormatInt(c.SequentialID, 10)
	}
	return &ClaimSummary{
		Reference:  ref,
		Requester:  c.Requester,
		Department: c.Department,
		Project:    c.ProjectCode,
		Content:    c.Content,
		Amount:     formatAmount(c.TotalAmount) + " VND",
		Status:     c.EffectiveStatus().Label(),
	}
}

// formatAmount renders a rounded amount with comma thousands separators
func formatAmount(v float64) string {
	n := int64(v + 0.5)
	if v < 0 {
		n = int64(v - 0.5)
	}
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}

var emailTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px; background-color: #f9f9f9;">
    <h1 style="color: #007bff; text-align: center;">Expense Claims</h1>
    <h2>{{.Title}}</h2>
    <p>{{.Message}}</p>
    {{with .Claim}}
    <table style="width: 100%; border-collapse: collapse;">
      <tr><td style="font-weight: bold; width: 150px;">Reference:</td><td>{{.Reference}}</td></tr>
      <tr><td style="font-weight: bold;">Requester:</td><td>{{.Requester}}</td></tr>
      <tr><td style="font-weight: bold;">Department:</td><td>{{.Department}}</td></tr>
      <tr><td style="font-weight: bold;">Project:</td><td>{{.Project}}</td></tr>
      <tr><td style="font-weight: bold;">Content:</td><td>{{.Content}}</td></tr>
      <tr><td style="font-weight: bold;">Amount:</td><td>{{.Amount}}</td></tr>
      <tr><td style="font-weight: bold;">Status:</td><td>{{.Status}}</td></tr>
    </table>
    {{end}}
    <p style="text-align: center; font-size: 12px; color: #777;">This is an automated message, please do not reply. &copy; {{.Year}}</p>
  </div>
</body>
</html>`))

func renderEmail(title, message string, claim *ClaimSummary) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Title   string
		Message string
		Claim   *ClaimSummary
		Year    int
	}{title, message, claim, time.Now().Year()})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
