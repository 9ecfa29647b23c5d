// Package mocks provides testify mocks for the provider gateway and the AI
// completer, shared by handler and end-to-end tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thib420/AI-Table-sub000/internal/provider"
)

// MockProviderClient implements provider.Client
type MockProviderClient struct {
	mock.Mock
}

// ListFolders returns all mail folders
func (m *MockProviderClient) ListFolders(ctx context.Context) ([]provider.FolderRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.FolderRecord), args.Error(1)
}

// ListMessages returns messages in a folder, newest first
func (m *MockProviderClient) ListMessages(ctx context.Context, folderID string, query provider.MessageQuery) ([]provider.MessageRecord, error) {
	args := m.Called(ctx, folderID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.MessageRecord), args.Error(1)
}

// ListContacts returns the owner's address book
func (m *MockProviderClient) ListContacts(ctx context.Context) ([]provider.ContactRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.ContactRecord), args.Error(1)
}

// ListPeople returns the relevance-ranked people graph
func (m *MockProviderClient) ListPeople(ctx context.Context) ([]provider.PersonRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.PersonRecord), args.Error(1)
}

// ListDirectory returns the organization directory
func (m *MockProviderClient) ListDirectory(ctx context.Context) ([]provider.DirectoryRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DirectoryRecord), args.Error(1)
}

// ListCalendarEvents returns events overlapping the window
func (m *MockProviderClient) ListCalendarEvents(ctx context.Context, window provider.EventWindow) ([]provider.EventRecord, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.EventRecord), args.Error(1)
}

// UpdateMessage patches read/star flags on a remote message
func (m *MockProviderClient) UpdateMessage(ctx context.Context, messageID string, patch provider.MessagePatch) error {
	args := m.Called(ctx, messageID, patch)
	return args.Error(0)
}

// MoveMessage moves a remote message into another folder
func (m *MockProviderClient) MoveMessage(ctx context.Context, messageID, destinationFolderID string) error {
	args := m.Called(ctx, messageID, destinationFolderID)
	return args.Error(0)
}

// DeleteMessage permanently removes a remote message
func (m *MockProviderClient) DeleteMessage(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// CreateContact creates a contact remotely and returns its id
func (m *MockProviderClient) CreateContact(ctx context.Context, record provider.NewContact) (string, error) {
	args := m.Called(ctx, record)
	return args.String(0), args.Error(1)
}

// FindContactByEmail reports whether a contact with the address already
// exists remotely
func (m *MockProviderClient) FindContactByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
