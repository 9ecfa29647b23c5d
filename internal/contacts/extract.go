package contacts

import (
	"sort"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/models"
	"github.com/thib420/AI-Table-sub000/internal/validator"
)

// Address is one email address observed in message traffic, with the display
// name and timestamp of its most recent sighting
type Address struct {
	Email      string
	Name       string
	LastSeenAt time.Time
}

// ExtractAddresses harvests every sender and recipient address from the given
// messages. Addresses are normalized and deduplicated; each surviving entry
// carries the most recent observation time and the first non-empty display
// name seen for it. Output order is deterministic.
func ExtractAddresses(messages []models.Message) []Address {
	seen := make(map[string]*Address)

	observe := func(email, name string, at time.Time) {
		normalized, err := validator.NormalizeEmail(email)
		if err != nil {
			return
		}
		entry, ok := seen[normalized]
		if !ok {
			seen[normalized] = &Address{Email: normalized, Name: name, LastSeenAt: at}
			return
		}
		if at.After(entry.LastSeenAt) {
			entry.LastSeenAt = at
		}
		if entry.Name == "" {
			entry.Name = name
		}
	}

	for i := range messages {
		msg := &messages[i]
		observe(msg.SenderEmail, msg.SenderName, msg.ReceivedAt)
		for _, addr := range msg.RecipientAddresses() {
			observe(addr, "", msg.ReceivedAt)
		}
	}

	addresses := make([]Address, 0, len(seen))
	for _, entry := range seen {
		addresses = append(addresses, *entry)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Email < addresses[j].Email
	})
	return addresses
}
