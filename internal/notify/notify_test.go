package notify

import (
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/controller/profile"
	"github.com/podzol/podzol/internal/db/controller/subscriber"
	"github.com/podzol/podzol/internal/db/models"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

// fakeSender records deliveries and fails addresses listed in failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]bool
}

func (f *fakeSender) Send(to, subject, body string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFor[to] {
		return false
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})

	return true
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Profile{}, &models.Post{}, &models.Subscriber{})
	require.NoError(t, err, "failed to migrate test database")

	require.NoError(t, profile.Setup(db, &models.Profile{
		Username:          "ada",
		PrivacyMode:       models.PrivacyPublic,
		AdminPasswordHash: "$2a$10$fakehashfakehashfakehash",
	}))

	return db
}

func seedPost(t *testing.T, db *gorm.DB, p *models.Post) uint64 {
	t.Helper()

	p.IsPublished = true
	require.NoError(t, db.Create(p).Error)

	return p.ID
}

func TestNotifyPost(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	n := New(db, sender, "https://ada.example.com/")

	_, err := subscriber.Create(db, "a@example.com")
	require.NoError(t, err)
	_, err = subscriber.Create(db, "b@example.com")
	require.NoError(t, err)
	_, err = subscriber.Create(db, "gone@example.com")
	require.NoError(t, err)
	require.NoError(t, subscriber.DeactivateByEmail(db, "gone@example.com"))

	postID := seedPost(t, db, &models.Post{
		Type:    models.PostTypeLongform,
		Title:   "on rivers",
		Content: "a long meditation",
	})

	sent := n.NotifyPost(postID)
	assert.Equal(t, 2, sent)
	require.Len(t, sender.sent, 2)

	recipients := []string{sender.sent[0].to, sender.sent[1].to}
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, recipients)

	first := sender.sent[0]
	assert.Equal(t, "New post from ada", first.subject)
	assert.Contains(t, first.body, "Title: on rivers")
	assert.Contains(t, first.body, "a long meditation")
	assert.Contains(t, first.body, "https://ada.example.com/unsubscribe?token=")
	assert.Contains(t, first.body, "automated message from Podzol")
}

func TestNotifyPostContinuesPastFailures(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{failFor: map[string]bool{"a@example.com": true}}
	n := New(db, sender, "https://ada.example.com")

	_, err := subscriber.Create(db, "a@example.com")
	require.NoError(t, err)
	_, err = subscriber.Create(db, "b@example.com")
	require.NoError(t, err)

	postID := seedPost(t, db, &models.Post{Type: models.PostTypeStatus, Content: "hi"})

	sent := n.NotifyPost(postID)
	assert.Equal(t, 1, sent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "b@example.com", sender.sent[0].to)
}

func TestNotifyPostNoSubscribers(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	n := New(db, sender, "https://ada.example.com")

	postID := seedPost(t, db, &models.Post{Type: models.PostTypeStatus, Content: "hi"})

	assert.Zero(t, n.NotifyPost(postID))
	assert.Empty(t, sender.sent)
}

func TestNotifyPostUnsubscribeLinkIsPersonal(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	n := New(db, sender, "https://ada.example.com")

	a, err := subscriber.Create(db, "a@example.com")
	require.NoError(t, err)
	b, err := subscriber.Create(db, "b@example.com")
	require.NoError(t, err)

	postID := seedPost(t, db, &models.Post{Type: models.PostTypeStatus, Content: "hi"})
	n.NotifyPost(postID)

	require.Len(t, sender.sent, 2)
	for _, m := range sender.sent {
		switch m.to {
		case "a@example.com":
			assert.Contains(t, m.body, a.UnsubscribeToken)
			assert.NotContains(t, m.body, b.UnsubscribeToken)
		case "b@example.com":
			assert.Contains(t, m.body, b.UnsubscribeToken)
			assert.NotContains(t, m.body, a.UnsubscribeToken)
		}
	}
}

func TestNotifyPostExcerpt(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	n := New(db, sender, "https://ada.example.com")

	_, err := subscriber.Create(db, "a@example.com")
	require.NoError(t, err)

	long := strings.Repeat("x", excerptLength+100)
	postID := seedPost(t, db, &models.Post{Type: models.PostTypeLongform, Content: long})
	n.NotifyPost(postID)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, strings.Repeat("x", excerptLength)+"...")
	assert.NotContains(t, sender.sent[0].body, strings.Repeat("x", excerptLength+1))
}

func TestSendConfirmation(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	n := New(db, sender, "https://ada.example.com")

	s, err := subscriber.Create(db, "a@example.com")
	require.NoError(t, err)

	assert.True(t, n.SendConfirmation(s))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Subscribed to ada's Podzol", sender.sent[0].subject)
	assert.Contains(t, sender.sent[0].body, "/unsubscribe?token="+s.UnsubscribeToken)
}
