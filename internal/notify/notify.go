// Package notify fans out email to subscribers when something is published.
// Delivery is best effort; one bad address never blocks the rest.
package notify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/db/controller/subscriber"
	"github.com/podzol/podzol/internal/db/models"
)

// excerptLength caps how much post content is quoted in the email.
const excerptLength = 500

// Sender delivers a single message and reports whether it went out.
type Sender interface {
	Send(to, subject, body string) bool
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(to, subject, body string) bool

// Send implements Sender.
func (f SenderFunc) Send(to, subject, body string) bool { return f(to, subject, body) }

// Notifier builds and sends subscriber email for one site.
type Notifier struct {
	db      *gorm.DB
	sender  Sender
	baseURL string
}

// New returns a Notifier writing through the given sender. baseURL is the
// public origin used for links in the email, without a trailing slash.
func New(db *gorm.DB, sender Sender, baseURL string) *Notifier {
	return &Notifier{
		db:      db,
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NotifyPost emails every active subscriber about a published post. Failures
// are logged and skipped. Returns how many messages were delivered.
func (n *Notifier) NotifyPost(postID uint64) int {
	subs, err := subscriber.ListActive(n.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load subscribers")
		return 0
	}
	if len(subs) == 0 {
		return 0
	}

	p, err := n.loadPost(postID)
	if err != nil {
		log.Error().Err(err).Uint64("post_id", postID).Msg("failed to load post for notification")
		return 0
	}

	owner, err := profile.Get(n.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load profile for notification")
		return 0
	}

	subject := fmt.Sprintf("New post from %s", owner.Username)

	sent := 0
	for _, s := range subs {
		body := n.buildPostBody(p, s.UnsubscribeToken)
		if n.sender.Send(s.Email, subject, body) {
			sent++
		} else {
			log.Warn().Str("email", s.Email).Uint64("post_id", postID).
				Msg("subscriber notification not delivered")
		}
	}

	log.Info().Int("sent", sent).Int("subscribers", len(subs)).
		Uint64("post_id", postID).Msg("publish notifications done")

	return sent
}

// NotifyPostAsync runs NotifyPost on its own goroutine so publishing never
// waits on SMTP.
func (n *Notifier) NotifyPostAsync(postID uint64) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Uint64("post_id", postID).
					Msg("notification run panicked")
			}
		}()

		n.NotifyPost(postID)
	}()
}

// SendConfirmation welcomes a new subscriber with their personal
// unsubscribe link.
func (n *Notifier) SendConfirmation(s *models.Subscriber) bool {
	owner, err := profile.Get(n.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load profile for confirmation email")
		return false
	}

	subject := fmt.Sprintf("Subscribed to %s's Podzol", owner.Username)
	body := fmt.Sprintf(
		"You are now subscribed to %s's posts.\n\n"+
			"You will get an email whenever something new is published.\n\n"+
			"Unsubscribe at any time: %s\n\n"+
			"This is an automated message from Podzol.\n",
		owner.Username, n.unsubscribeLink(s.UnsubscribeToken),
	)

	return n.sender.Send(s.Email, subject, body)
}

func (n *Notifier) loadPost(postID uint64) (*models.Post, error) {
	var p models.Post
	if err := n.db.First(&p, postID).Error; err != nil {
		return nil, err
	}

	return &p, nil
}

func (n *Notifier) unsubscribeLink(token string) string {
	return n.baseURL + "/unsubscribe?token=" + token
}

func (n *Notifier) buildPostBody(p *models.Post, token string) string {
	var b strings.Builder

	switch p.Type {
	case models.PostTypeLongform:
		b.WriteString("A new longform post is up.\n\n")
	case models.PostTypeImage:
		b.WriteString("A new image post is up.\n\n")
	case models.PostTypeLink:
		b.WriteString("A new link was shared.\n\n")
	default:
		b.WriteString("A new status was posted.\n\n")
	}

	if p.Title != "" {
		b.WriteString("Title: " + p.Title + "\n\n")
	}
	if ex := excerpt(p.Content); ex != "" {
		b.WriteString(ex + "\n\n")
	}

	b.WriteString("View the full post: " + n.baseURL + "\n\n")
	b.WriteString("Unsubscribe: " + n.unsubscribeLink(token) + "\n\n")
	b.WriteString("This is an automated message from Podzol.\n")

	return b.String()
}

// excerpt truncates content to excerptLength runes.
func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}

	return string(runes[:excerptLength]) + "..."
}
