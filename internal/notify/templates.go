package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const subjectPrefix = "AutoDetail"

// VerificationMessage carries the registration code.
func VerificationMessage(email, code string, ttl time.Duration) Message {
	return Message{
		To:      email,
		Subject: subjectPrefix + " | Email verification",
		Body:    fmt.Sprintf("Your verification code: %s\nThe code is valid for %d minutes.", code, int(ttl.Minutes())),
	}
}

// ResetLink builds the frontend URL that completes a password reset.
func ResetLink(frontendURL, email, token string) string {
	base := strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	query := url.Values{}
	query.Set("email", email)
	query.Set("token", token)
	return base + "/reset.html?" + query.Encode()
}

// PasswordResetMessage carries the reset link.
func PasswordResetMessage(email, link string, ttl time.Duration) Message {
	return Message{
		To:      email,
		Subject: subjectPrefix + " | Password reset",
		Body:    fmt.Sprintf("Use this link to reset your password:\n%s\n\nThe link is valid for %d minutes.", link, int(ttl.Minutes())),
	}
}

// ContactMessage forwards a visitor message to the site operators.
func ContactMessage(recipient, emailOrPhone, message string) Message {
	contact := strings.TrimSpace(emailOrPhone)
	if contact == "" {
		contact = "-"
	}
	return Message{
		To:      recipient,
		Subject: subjectPrefix + " | Contact message",
		Body:    fmt.Sprintf("Contact: %s\n\nMessage:\n%s", contact, message),
		ReplyTo: strings.TrimSpace(emailOrPhone),
	}
}
