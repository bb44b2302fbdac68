package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"

	"github.com/noridevx/wedding-web/internal/models"
)

const completionEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; line-height: 1.5; color: #333; }
  .container { border: 1px solid #e9ecef; border-radius: 8px; padding: 20px; max-width: 520px; }
  h2 { margin-top: 0; color: #8a5a44; }
</style>
</head>
<body>
  <div class="container">
    <h2>Challenge completed!</h2>
    <p><strong>%s</strong></p>
    <p>Completed by <strong>%s</strong> at %s.</p>
    <p>Photo: %s</p>
  </div>
</body>
</html>`

// EmailCompletionNotifier emails the organizers whenever a guest completes
// a challenge.
type EmailCompletionNotifier struct {
	mailer         Mailer
	organizerEmail string
}

func NewEmailCompletionNotifier(mailer Mailer, organizerEmail string) *EmailCompletionNotifier {
	return &EmailCompletionNotifier{mailer: mailer, organizerEmail: organizerEmail}
}

func (n *EmailCompletionNotifier) NotifyChallengeCompleted(
	ctx context.Context,
	c *models.Challenge,
	photoID uuid.UUID,
) error {
	if c == nil {
		return nil
	}
	at := time.Now().UTC()
	if c.CompletedAt != nil {
		at = c.CompletedAt.UTC()
	}

	subject := fmt.Sprintf("[Challenge] %s", c.Description)
	plain := fmt.Sprintf("%s\n\nCompleted by %s at %s.\nPhoto: %s",
		c.Description, c.CompletedBy, at.Format(time.RFC1123Z), photoID)
	body := fmt.Sprintf(completionEmailHTML,
		html.EscapeString(c.Description),
		html.EscapeString(c.CompletedBy),
		at.Format(time.RFC1123Z),
		photoID,
	)
	return n.mailer.Send(ctx, "Organizers", n.organizerEmail, subject, plain, body)
}
