// Package notify is the outbound email gateway. Services enqueue messages
// after their transaction commits; a worker renders and sends them.
package notify

import (
	"fmt"
)

// Template names an email template under templates/
type Template string

const (
	TemplateVerification           Template = "verification-email"
	TemplateResetPassword          Template = "reset-password"
	TemplateWelcome                Template = "welcome-email"
	TemplateComplaintConfirmation  Template = "complaint-confirmation"
	TemplateComplaintAssignment    Template = "complaint-assignment"
	TemplateComplaintStatusUpdate  Template = "complaint-status-update"
	TemplateComplaintStatusChanged Template = "complaint-status-changed"
	TemplateComplaintTransfer      Template = "complaint-transfer"
)

var subjects = map[Template]string{
	TemplateVerification:           "Verify Your Email - Citi Voice",
	TemplateResetPassword:          "Reset Your Password - Citi Voice",
	TemplateWelcome:                "Welcome to Citi Voice!",
	TemplateComplaintConfirmation:  "Complaint Received - Citi Voice",
	TemplateComplaintAssignment:    "New Complaint Assignment - Citi Voice",
	TemplateComplaintStatusUpdate:  "Complaint Status Update - Citi Voice",
	TemplateComplaintStatusChanged: "Assigned Complaint Status Changed - Citi Voice",
	TemplateComplaintTransfer:      "Complaint Transfer Notification - Citi Voice",
}

// DefaultLogoURL stands in for agencies without a logo
const DefaultLogoURL = "https://i.imgur.com/aQda867.png"

// Message is one email to send
type Message struct {
	Template Template          `json:"template"`
	To       string            `json:"to"`
	Data     map[string]string `json:"data"`
}

// Validate checks the message can be rendered and addressed
func (m Message) Validate() error {
	if _, ok := subjects[m.Template]; !ok {
		return fmt.Errorf("unknown template %q", m.Template)
	}
	if m.To == "" {
		return fmt.Errorf("message %s has no recipient", m.Template)
	}
	return nil
}
