package contacts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thib420/AI-Table-sub000/internal/models"
)

// ==================== ExtractAddresses Tests ====================

func newTrafficMessage(sender, senderName string, receivedAt time.Time, to, cc []string) models.Message {
	msg := models.Message{
		SenderEmail: sender,
		SenderName:  senderName,
		ReceivedAt:  receivedAt,
	}
	msg.SetRecipients(to, cc, nil)
	return msg
}

func TestExtractAddresses_HarvestsSenderAndRecipients(t *testing.T) {
	// Arrange
	now := time.Now().UTC()
	messages := []models.Message{
		newTrafficMessage("ada@example.com", "Ada Lovelace", now,
			[]string{"grace@hopper.dev"}, []string{"alan@example.com"}),
	}

	// Act
	addresses := ExtractAddresses(messages)

	// Assert
	require.Len(t, addresses, 3)
	assert.Equal(t, "ada@example.com", addresses[0].Email)
	assert.Equal(t, "Ada Lovelace", addresses[0].Name)
	assert.Equal(t, "alan@example.com", addresses[1].Email)
	assert.Equal(t, "grace@hopper.dev", addresses[2].Email)
}

func TestExtractAddresses_DedupesAcrossMessages(t *testing.T) {
	// Arrange: same sender in two messages, older one carries the name
	now := time.Now().UTC()
	older := now.Add(-48 * time.Hour)
	messages := []models.Message{
		newTrafficMessage("ada@example.com", "Ada Lovelace", older, nil, nil),
		newTrafficMessage("ada@example.com", "", now, nil, nil),
	}

	// Act
	addresses := ExtractAddresses(messages)

	// Assert
	require.Len(t, addresses, 1)
	assert.Equal(t, "Ada Lovelace", addresses[0].Name)
	assert.Equal(t, now, addresses[0].LastSeenAt)
}

func TestExtractAddresses_MixedCaseCollapsesToOneEntry(t *testing.T) {
	// Arrange
	now := time.Now().UTC()
	messages := []models.Message{
		newTrafficMessage("Ada@Example.COM", "Ada", now, []string{"ada@example.com"}, nil),
	}

	// Act
	addresses := ExtractAddresses(messages)

	// Assert
	require.Len(t, addresses, 1)
	assert.Equal(t, "ada@example.com", addresses[0].Email)
	assert.Equal(t, "Ada", addresses[0].Name)
}

func TestExtractAddresses_SkipsMalformedAddresses(t *testing.T) {
	// Arrange
	now := time.Now().UTC()
	messages := []models.Message{
		newTrafficMessage("not-an-address", "Broken", now, []string{"grace@hopper.dev", ""}, nil),
	}

	// Act
	addresses := ExtractAddresses(messages)

	// Assert
	require.Len(t, addresses, 1)
	assert.Equal(t, "grace@hopper.dev", addresses[0].Email)
}

func TestExtractAddresses_EmptyInput(t *testing.T) {
	// Act
	addresses := ExtractAddresses(nil)

	// Assert
	assert.Empty(t, addresses)
}
