package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"github.com/thib420/AI-Table-sub000/internal/provider"
	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/internal/validator"
)

// Cache defaults
const (
	DefaultSnapshotTTL    = 5 * time.Minute
	DefaultDebounceWindow = 100 * time.Millisecond
	DefaultSnapshotLimit  = 200

	storeReadTimeout = 15 * time.Second
)

// Snapshot is one immutable view of the mirrored mailbox. Readers receive a
// value copy; the cache never mutates a snapshot it has handed out.
type Snapshot struct {
	Folders    []models.Folder  `json:"folders"`
	Messages   []models.Message `json:"messages"`
	IsLoading  bool             `json:"is_loading"`
	LastSyncAt time.Time        `json:"last_sync_at"`
	LastError  string           `json:"last_error,omitempty"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// CacheStats summarizes the cache and store for monitoring
type CacheStats struct {
	TotalMessages  int64      `json:"total_messages"`
	TotalFolders   int64      `json:"total_folders"`
	TotalContacts  int64      `json:"total_contacts"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	SnapshotAgeMs  int64      `json:"snapshot_age_ms"`
	EstimatedBytes int64      `json:"estimated_bytes"`
	Degraded       bool       `json:"degraded"`
}

// MailCacheConfig holds configuration for the mail cache
type MailCacheConfig struct {
	// OwnerID is the account whose mailbox this cache serves
	OwnerID string
	// SnapshotTTL is how long a snapshot counts as fresh
	SnapshotTTL time.Duration
	// DebounceWindow coalesces rapid subscriber notifications
	DebounceWindow time.Duration
	// SnapshotLimit bounds how many recent messages the snapshot holds
	SnapshotLimit int
}

// MailCache owns the in-memory mailbox snapshot and serves it
// stale-while-revalidate: readers always get the current snapshot instantly,
// and a stale one triggers exactly one background refresh through the
// engine. Mutations are optimistic — snapshot first, provider second, with a
// revert when the provider refuses.
type MailCache struct {
	store  *repository.Store
	client provider.Client
	engine *SyncEngine
	config MailCacheConfig
	log    *logger.SyncLogger

	mu             sync.RWMutex
	snapshot       Snapshot
	subscribers    map[string]func(Snapshot)
	refreshPending bool

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
	pendingSnap   *Snapshot
}

// NewMailCache creates the cache and hooks it to the engine's completion
// events so every executed sync rebuilds the snapshot
func NewMailCache(
	store *repository.Store,
	client provider.Client,
	engine *SyncEngine,
	config MailCacheConfig,
	log *logger.SyncLogger,
) *MailCache {
	if config.SnapshotTTL <= 0 {
		config.SnapshotTTL = DefaultSnapshotTTL
	}
	if config.DebounceWindow <= 0 {
		config.DebounceWindow = DefaultDebounceWindow
	}
	if config.SnapshotLimit <= 0 {
		config.SnapshotLimit = DefaultSnapshotLimit
	}

	c := &MailCache{
		store:       store,
		client:      client,
		engine:      engine,
		config:      config,
		log:         log,
		subscribers: make(map[string]func(Snapshot)),
	}
	engine.OnComplete(c.reloadFromStore)
	return c
}

// Subscribe registers a snapshot observer under the given id and delivers
// the current snapshot immediately so new subscribers never start blank
func (c *MailCache) Subscribe(id string, fn func(Snapshot)) {
	c.mu.Lock()
	c.subscribers[id] = fn
	snap := c.snapshot
	c.mu.Unlock()

	fn(snap)
}

// Unsubscribe removes the observer registered under id
func (c *MailCache) Unsubscribe(id string) {
	c.mu.Lock()
	delete(c.subscribers, id)
	c.mu.Unlock()
}

// Snapshot returns the current snapshot. A stale or empty snapshot is
// returned as-is and a background refresh is triggered; readers never block
// on network I/O.
func (c *MailCache) Snapshot(ctx context.Context) Snapshot {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()

	if snap.FetchedAt.IsZero() || time.Since(snap.FetchedAt) > c.config.SnapshotTTL {
		c.Refresh(ctx, false)
	}
	return snap
}

// Refresh triggers an asynchronous sync unless one is already pending. force
// bypasses the engine's minimum-interval damping, never its single-flight.
func (c *MailCache) Refresh(_ context.Context, force bool) {
	c.mu.Lock()
	if c.refreshPending {
		c.mu.Unlock()
		return
	}
	c.refreshPending = true

	mode := SyncModeIncremental
	if c.snapshot.FetchedAt.IsZero() && len(c.snapshot.Messages) == 0 {
		mode = SyncModeFull
	}
	c.snapshot.IsLoading = true
	snap := c.snapshot
	c.mu.Unlock()

	c.notify(snap, true)

	go func() {
		defer func() {
			c.mu.Lock()
			c.refreshPending = false
			c.mu.Unlock()
		}()

		result, err := c.engine.Sync(context.Background(), mode, force)
		if err != nil {
			c.log.Error("cache refresh failed", "owner", c.config.OwnerID, "error", err)
		}
		// A damped run fires no completion event, so the loading flag must
		// be cleared here
		if result != nil && result.Skipped {
			c.clearLoading()
		}
	}()
}

// reloadFromStore rebuilds the snapshot after a sync run. With a healthy
// store the stored rows are canonical; when the store is degraded the run's
// fetched collections are folded into the current snapshot so the process
// keeps serving mail from memory.
func (c *MailCache) reloadFromStore(result SyncResult) {
	var (
		folders  []models.Folder
		messages []models.Message
	)

	if c.store.Degraded() {
		folders = result.FetchedFolders
		c.mu.RLock()
		previous := c.snapshot.Messages
		c.mu.RUnlock()
		messages = mergeFetchedMessages(previous, result.FetchedMessages, c.config.SnapshotLimit)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), storeReadTimeout)
		defer cancel()

		owner := c.config.OwnerID

		var err error
		folders, err = c.store.Folders.ListByOwner(ctx, owner)
		if err != nil {
			c.log.Error("failed to load folders for snapshot", "owner", owner, "error", err)
		}
		messages, _, err = c.store.Messages.List(ctx, owner, repository.MessageFilter{Limit: c.config.SnapshotLimit})
		if err != nil {
			c.log.Error("failed to load messages for snapshot", "owner", owner, "error", err)
		}
	}

	now := time.Now().UTC()

	c.mu.Lock()
	lastSync := c.snapshot.LastSyncAt
	if result.Error == "" && !result.Skipped {
		lastSync = now
	}
	c.snapshot = Snapshot{
		Folders:    folders,
		Messages:   messages,
		IsLoading:  false,
		LastSyncAt: lastSync,
		LastError:  result.Error,
		FetchedAt:  now,
	}
	snap := c.snapshot
	c.mu.Unlock()

	c.notify(snap, false)
}

// mergeFetchedMessages unions freshly fetched messages with the previous
// in-memory set, newest first, fetched copies winning on id collisions. An
// incremental run in degraded mode only fetches recent traffic, so older
// messages already held in memory must survive the reload.
func mergeFetchedMessages(previous, fetched []models.Message, limit int) []models.Message {
	merged := make([]models.Message, 0, len(previous)+len(fetched))
	seen := make(map[string]struct{}, len(fetched))

	for _, m := range fetched {
		seen[m.ProviderMessageID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range previous {
		if _, ok := seen[m.ProviderMessageID]; ok {
			continue
		}
		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ReceivedAt.After(merged[j].ReceivedAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// MarkRead optimistically sets a message's read flag in the snapshot,
// confirms with the provider, then mirrors the flag into the store
func (c *MailCache) MarkRead(ctx context.Context, providerMessageID string, read bool) error {
	prev, patched := c.patchSnapshot(providerMessageID, func(m *models.Message) { m.IsRead = read })

	if err := c.client.UpdateMessage(ctx, providerMessageID, provider.MessagePatch{IsRead: &read}); err != nil {
		if patched {
			c.restoreMessage(prev)
		}
		return fmt.Errorf("failed to update read flag: %w", err)
	}

	if err := c.store.Messages.UpdateStatus(ctx, c.config.OwnerID, providerMessageID, repository.StatusPatch{IsRead: &read}); err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.log.Error("failed to mirror read flag", "message_id", providerMessageID, "error", err)
	}
	return nil
}

// ToggleStar optimistically flips a message's star in the snapshot, confirms
// with the provider, then mirrors the flag into the store
func (c *MailCache) ToggleStar(ctx context.Context, providerMessageID string) error {
	current, found := c.currentStar(providerMessageID)
	if !found {
		msg, err := c.store.Messages.GetByProviderID(ctx, c.config.OwnerID, providerMessageID)
		if err != nil {
			return fmt.Errorf("failed to resolve message for star toggle: %w", err)
		}
		current = msg.IsStarred
	}
	next := !current

	prev, patched := c.patchSnapshot(providerMessageID, func(m *models.Message) { m.IsStarred = next })

	if err := c.client.UpdateMessage(ctx, providerMessageID, provider.MessagePatch{IsStarred: &next}); err != nil {
		if patched {
			c.restoreMessage(prev)
		}
		return fmt.Errorf("failed to toggle message star: %w", err)
	}

	if err := c.store.Messages.UpdateStatus(ctx, c.config.OwnerID, providerMessageID, repository.StatusPatch{IsStarred: &next}); err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.log.Error("failed to mirror star flag", "message_id", providerMessageID, "error", err)
	}
	return nil
}

// Delete optimistically drops the message from the snapshot, then moves it
// to the trash folder resolved by the last sync — or hard-deletes when the
// mailbox has none — and finally removes the store row
func (c *MailCache) Delete(ctx context.Context, providerMessageID string) error {
	prev, removed := c.removeFromSnapshot(providerMessageID)

	var err error
	if trashKey := c.engine.TrashKey(ctx); trashKey != "" {
		err = c.client.MoveMessage(ctx, providerMessageID, trashKey)
	} else {
		err = c.client.DeleteMessage(ctx, providerMessageID)
	}
	if err != nil {
		if removed {
			c.reinsertMessage(prev)
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if err := c.store.Messages.Delete(ctx, c.config.OwnerID, providerMessageID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.log.Error("failed to mirror message delete", "message_id", providerMessageID, "error", err)
	}
	return nil
}

// Search runs a store-backed substring search. When the store is degraded
// the in-memory snapshot is filtered instead, so search keeps working
// without a database.
func (c *MailCache) Search(ctx context.Context, query string, limit int) ([]models.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = validator.DefaultLimit
	}

	if !c.store.Degraded() {
		return c.store.Messages.Search(ctx, c.config.OwnerID, query, limit)
	}

	c.mu.RLock()
	messages := c.snapshot.Messages
	c.mu.RUnlock()

	needle := strings.ToLower(query)
	var hits []models.Message
	for _, m := range messages {
		if len(hits) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(m.Subject), needle) ||
			strings.Contains(strings.ToLower(m.SenderName), needle) ||
			strings.Contains(strings.ToLower(m.SenderEmail), needle) ||
			strings.Contains(strings.ToLower(m.Preview), needle) {
			hits = append(hits, m)
		}
	}
	return hits, nil
}

// Stats summarizes cache and store totals for monitoring
func (c *MailCache) Stats(ctx context.Context) CacheStats {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()

	stats := CacheStats{Degraded: c.store.Degraded()}
	if !snap.LastSyncAt.IsZero() {
		t := snap.LastSyncAt
		stats.LastSyncAt = &t
	}
	if !snap.FetchedAt.IsZero() {
		stats.SnapshotAgeMs = time.Since(snap.FetchedAt).Milliseconds()
	}
	for i := range snap.Messages {
		m := &snap.Messages[i]
		stats.EstimatedBytes += int64(len(m.Subject) + len(m.Preview) + len(m.SenderName) + len(m.SenderEmail))
	}

	owner := c.config.OwnerID
	if count, err := c.store.Messages.CountByOwner(ctx, owner); err == nil {
		stats.TotalMessages = count
	}
	if count, err := c.store.Folders.CountByOwner(ctx, owner); err == nil {
		stats.TotalFolders = count
	}
	if count, err := c.store.Contacts.CountByOwner(ctx, owner); err == nil {
		stats.TotalContacts = count
	}
	return stats
}

// currentStar reads a message's star flag from the snapshot
func (c *MailCache) currentStar(providerMessageID string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.snapshot.Messages {
		if c.snapshot.Messages[i].ProviderMessageID == providerMessageID {
			return c.snapshot.Messages[i].IsStarred, true
		}
	}
	return false, false
}

// patchSnapshot applies a mutation to one message on a copied message slice,
// publishes the new snapshot, and returns the previous message for reverts
func (c *MailCache) patchSnapshot(providerMessageID string, apply func(*models.Message)) (models.Message, bool) {
	c.mu.Lock()
	idx := -1
	for i := range c.snapshot.Messages {
		if c.snapshot.Messages[i].ProviderMessageID == providerMessageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return models.Message{}, false
	}

	messages := make([]models.Message, len(c.snapshot.Messages))
	copy(messages, c.snapshot.Messages)
	prev := messages[idx]
	apply(&messages[idx])
	c.snapshot.Messages = messages
	snap := c.snapshot
	c.mu.Unlock()

	c.notify(snap, false)
	return prev, true
}

// restoreMessage reverts a previously patched message in the snapshot
func (c *MailCache) restoreMessage(prev models.Message) {
	c.patchSnapshot(prev.ProviderMessageID, func(m *models.Message) { *m = prev })
}

// removeFromSnapshot drops one message from the snapshot and returns it for
// a potential reinsert
func (c *MailCache) removeFromSnapshot(providerMessageID string) (models.Message, bool) {
	c.mu.Lock()
	idx := -1
	for i := range c.snapshot.Messages {
		if c.snapshot.Messages[i].ProviderMessageID == providerMessageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return models.Message{}, false
	}

	prev := c.snapshot.Messages[idx]
	messages := make([]models.Message, 0, len(c.snapshot.Messages)-1)
	messages = append(messages, c.snapshot.Messages[:idx]...)
	messages = append(messages, c.snapshot.Messages[idx+1:]...)
	c.snapshot.Messages = messages
	snap := c.snapshot
	c.mu.Unlock()

	c.notify(snap, false)
	return prev, true
}

// reinsertMessage puts a removed message back, keeping newest-first order
func (c *MailCache) reinsertMessage(msg models.Message) {
	c.mu.Lock()
	messages := make([]models.Message, 0, len(c.snapshot.Messages)+1)
	messages = append(messages, c.snapshot.Messages...)
	messages = append(messages, msg)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.After(messages[j].ReceivedAt)
	})
	c.snapshot.Messages = messages
	snap := c.snapshot
	c.mu.Unlock()

	c.notify(snap, false)
}

// clearLoading resets the loading flag after a damped refresh
func (c *MailCache) clearLoading() {
	c.mu.Lock()
	if !c.snapshot.IsLoading {
		c.mu.Unlock()
		return
	}
	c.snapshot.IsLoading = false
	snap := c.snapshot
	c.mu.Unlock()

	c.notify(snap, true)
}

// notify fans a snapshot out to subscribers. Rapid successive updates are
// coalesced within the debounce window; immediate updates (loading
// transitions) skip the window entirely.
func (c *MailCache) notify(snap Snapshot, immediate bool) {
	if immediate {
		c.dropPendingNotify()
		c.fanOut(snap)
		return
	}

	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()

	c.pendingSnap = &snap
	if c.debounceTimer != nil {
		return
	}
	c.debounceTimer = time.AfterFunc(c.config.DebounceWindow, func() {
		c.debounceMu.Lock()
		pending := c.pendingSnap
		c.pendingSnap = nil
		c.debounceTimer = nil
		c.debounceMu.Unlock()

		if pending != nil {
			c.fanOut(*pending)
		}
	})
}

func (c *MailCache) dropPendingNotify() {
	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
	c.pendingSnap = nil
}

func (c *MailCache) fanOut(snap Snapshot) {
	c.mu.RLock()
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}
