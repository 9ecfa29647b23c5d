package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/thib420/AI-Table-sub000/internal/contacts"
	apperrors "github.com/thib420/AI-Table-sub000/internal/errors"
	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/mailparse"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"github.com/thib420/AI-Table-sub000/internal/provider"
	"github.com/thib420/AI-Table-sub000/internal/repository"
)

// Sync modes
const (
	SyncModeFull        = "full"
	SyncModeIncremental = "incremental"
)

// Defaults for the sync engine
const (
	DefaultMinSyncInterval   = 30 * time.Second
	DefaultMessagesPerFolder = 50

	syncRunTimeout = 5 * time.Minute

	calendarPastWindow   = 7 * 24 * time.Hour
	calendarFutureWindow = 60 * 24 * time.Hour
)

// SyncEngineConfig holds configuration for the sync engine
type SyncEngineConfig struct {
	// OwnerID is the account this instance mirrors
	OwnerID string
	// MinSyncInterval damps back-to-back runs; force bypasses it
	MinSyncInterval time.Duration
	// MessagesPerFolder bounds how many messages each folder fetch requests
	MessagesPerFolder int
	// EnrichLimit bounds AI enrichment per run; zero disables it
	EnrichLimit int
}

// SourceCounts tracks how many contact observations each source contributed
type SourceCounts struct {
	AddressBook  int `json:"address_book"`
	PeopleGraph  int `json:"people_graph"`
	Directory    int `json:"directory"`
	EmailDerived int `json:"email_derived"`
}

// SyncResult summarizes one sync run. The fetched collections ride along so
// the cache layer can rebuild its snapshot from memory when the store is
// degraded; they are never serialized.
type SyncResult struct {
	RunID         string       `json:"run_id"`
	Mode          string       `json:"mode"`
	Folders       int          `json:"folders"`
	Messages      int          `json:"messages"`
	Events        int          `json:"events"`
	Contacts      SourceCounts `json:"contacts"`
	ContactsSaved int          `json:"contacts_saved"`
	Enriched      int          `json:"enriched"`
	SourceErrors  int          `json:"source_errors"`
	DurationMs    int64        `json:"duration_ms"`
	Skipped       bool         `json:"skipped"`
	Error         string       `json:"error,omitempty"`
	StartedAt     time.Time    `json:"started_at"`

	FetchedFolders  []models.Folder  `json:"-"`
	FetchedMessages []models.Message `json:"-"`
}

// SyncEngine orchestrates full and incremental syncs for one owner. A
// single-flight group collapses concurrent requests into one in-flight run,
// and a minimum inter-sync interval absorbs bursts unless force is set.
// Pipeline runs use a background context so an abandoned HTTP request never
// cancels a shared sync.
type SyncEngine struct {
	store     *repository.Store
	client    provider.Client
	exclusion *contacts.ExclusionPolicy
	enricher  *Enricher
	config    SyncEngineConfig
	log       *logger.SyncLogger

	group singleflight.Group

	mu            sync.Mutex
	lastRun       time.Time
	lastResult    *SyncResult
	trashKey      string
	trashResolved bool
	onComplete    []func(SyncResult)
}

// NewSyncEngine creates a sync engine for the configured owner. The enricher
// is optional; pass nil to disable AI enrichment entirely.
func NewSyncEngine(
	store *repository.Store,
	client provider.Client,
	exclusion *contacts.ExclusionPolicy,
	enricher *Enricher,
	config SyncEngineConfig,
	log *logger.SyncLogger,
) *SyncEngine {
	if config.MinSyncInterval <= 0 {
		config.MinSyncInterval = DefaultMinSyncInterval
	}
	if config.MessagesPerFolder <= 0 {
		config.MessagesPerFolder = DefaultMessagesPerFolder
	}

	return &SyncEngine{
		store:     store,
		client:    client,
		exclusion: exclusion,
		enricher:  enricher,
		config:    config,
		log:       log,
	}
}

// OnComplete registers a callback invoked after every executed (non-damped)
// run, success or failure
func (e *SyncEngine) OnComplete(fn func(SyncResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = append(e.onComplete, fn)
}

// LastResult returns a copy of the most recent run's result, or nil before
// the first run
func (e *SyncEngine) LastResult() *SyncResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastResult == nil {
		return nil
	}
	res := *e.lastResult
	return &res
}

// TrashKey returns the provider folder id of the mailbox trash, resolved by
// the most recent sync or lazily from the store. Empty when the mailbox has
// no trash folder.
func (e *SyncEngine) TrashKey(ctx context.Context) string {
	e.mu.Lock()
	if e.trashResolved {
		key := e.trashKey
		e.mu.Unlock()
		return key
	}
	e.mu.Unlock()

	var key string
	if folder, err := e.store.Folders.FindTrash(ctx, e.config.OwnerID); err == nil {
		key = folder.ProviderFolderID
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.trashResolved = true
	e.trashKey = key
	return key
}

// Sync runs a full or incremental sync. Concurrent callers for the same owner
// share a single in-flight run; calls arriving inside the minimum interval
// return the previous result marked Skipped unless force is set.
func (e *SyncEngine) Sync(ctx context.Context, mode string, force bool) (*SyncResult, error) {
	if mode != SyncModeFull && mode != SyncModeIncremental {
		return nil, fmt.Errorf("unknown sync mode %q: %w", mode, apperrors.ErrValidation)
	}

	if !force {
		e.mu.Lock()
		if e.lastResult != nil && time.Since(e.lastRun) < e.config.MinSyncInterval {
			res := *e.lastResult
			res.Skipped = true
			e.mu.Unlock()
			e.log.RunSkipped(e.config.OwnerID, "minimum sync interval not elapsed")
			return &res, nil
		}
		e.mu.Unlock()
	}

	value, err, _ := e.group.Do(e.config.OwnerID, func() (interface{}, error) {
		return e.run(mode)
	})
	result, _ := value.(*SyncResult)
	if result == nil {
		result = &SyncResult{Mode: mode}
		if err != nil {
			result.Error = err.Error()
		}
	}
	return result, err
}

// run executes one sync attempt end to end, including state bookkeeping and
// completion notification
func (e *SyncEngine) run(mode string) (*SyncResult, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), syncRunTimeout)
	defer cancel()

	owner := e.config.OwnerID
	e.log.RunStarted(owner, mode)

	state, _, err := e.store.SyncState.GetOrCreate(ctx, owner)
	if err != nil {
		e.log.Error("failed to load sync state, using transient state", "owner", owner, "error", err)
		state = &models.SyncState{OwnerID: owner, Enabled: true}
	}

	result := &SyncResult{RunID: uuid.NewString(), Mode: mode, StartedAt: started.UTC()}
	runErr := e.pipeline(ctx, mode, state, result)

	duration := time.Since(started)
	result.DurationMs = duration.Milliseconds()

	now := time.Now().UTC()
	if runErr != nil {
		result.Error = runErr.Error()
		state.LastError = runErr.Error()
		state.ConsecutiveFailures++
		e.log.RunFailed(owner, mode, runErr, duration)
	} else {
		state.LastError = ""
		state.ConsecutiveFailures = 0
		state.LastDurationMs = result.DurationMs
		if mode == SyncModeFull {
			state.LastFullSyncAt = &now
		} else {
			state.LastIncrementalAt = &now
		}
		e.log.RunCompleted(owner, mode, result.Folders, result.Messages, result.ContactsSaved, result.SourceErrors, duration)
	}
	next := now.Add(state.Interval())
	state.NextDueAt = &next
	if err := e.store.SyncState.Update(ctx, state); err != nil {
		e.log.Error("failed to persist sync state", "owner", owner, "error", err)
	}

	e.mu.Lock()
	e.lastRun = time.Now()
	e.lastResult = result
	e.mu.Unlock()

	e.notifyComplete(*result)

	return result, runErr
}

// pipeline runs the sync stages in their contractual order: folders first,
// then messages, then contact sources, derivation, merge, persist, enrich
func (e *SyncEngine) pipeline(ctx context.Context, mode string, state *models.SyncState, result *SyncResult) error {
	folders, err := e.syncFolders(ctx, result)
	if err != nil {
		return err
	}

	var receivedAfter *time.Time
	if mode == SyncModeIncremental {
		receivedAfter = state.Watermark()
	}
	messages := e.syncMessages(ctx, folders, receivedAfter, result)

	result.FetchedFolders = folders
	result.FetchedMessages = messages

	e.syncContacts(ctx, mode, messages, result)
	return nil
}

// syncFolders fetches, classifies, and stores the folder list, then resolves
// the trash folder for this run's delete operations. Folder failure aborts
// the run: nothing downstream can proceed without the folder map.
func (e *SyncEngine) syncFolders(ctx context.Context, result *SyncResult) ([]models.Folder, error) {
	owner := e.config.OwnerID

	records, err := e.client.ListFolders(ctx)
	if err != nil {
		e.noteRateLimit(err, "folders")
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	folders := make([]models.Folder, 0, len(records))
	for _, rec := range records {
		typeTag := models.ClassifyFolderType(rec.DisplayName)
		folders = append(folders, models.Folder{
			ProviderFolderID: rec.ID,
			DisplayName:      rec.DisplayName,
			TypeTag:          typeTag,
			IsSystem:         typeTag != models.FolderCustom,
			UnreadCount:      rec.UnreadCount,
			TotalCount:       rec.TotalCount,
		})
	}

	if err := e.store.Folders.UpsertAll(ctx, owner, folders); err != nil {
		return nil, fmt.Errorf("failed to store folders: %w", err)
	}
	result.Folders = len(folders)

	trashKey := ""
	for i := range folders {
		if folders[i].IsTrash() {
			trashKey = folders[i].ProviderFolderID
			break
		}
	}
	e.mu.Lock()
	e.trashKey = trashKey
	e.trashResolved = true
	e.mu.Unlock()

	return folders, nil
}

// syncMessages fetches up to the configured number of messages per folder in
// parallel and upserts each folder's batch. Per-folder failures are logged
// and counted but never abort the run. Returns every fetched message for
// contact derivation.
func (e *SyncEngine) syncMessages(ctx context.Context, folders []models.Folder, receivedAfter *time.Time, result *SyncResult) []models.Message {
	owner := e.config.OwnerID

	query := provider.MessageQuery{Limit: e.config.MessagesPerFolder}
	if receivedAfter != nil {
		query.ReceivedAfter = *receivedAfter
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		fetched []models.Message
	)

	for i := range folders {
		folder := folders[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			records, err := e.client.ListMessages(ctx, folder.ProviderFolderID, query)
			if err != nil {
				e.noteRateLimit(err, "messages")
				e.log.SourceFailed(owner, "messages:"+folder.DisplayName, err)
				mu.Lock()
				result.SourceErrors++
				mu.Unlock()
				return
			}

			messages := make([]models.Message, 0, len(records))
			for _, rec := range records {
				messages = append(messages, e.toMessage(rec))
			}

			if err := e.store.Messages.UpsertBatch(ctx, owner, folder.ClientKey(), messages); err != nil {
				e.log.SourceFailed(owner, "messages:"+folder.DisplayName, err)
				mu.Lock()
				result.SourceErrors++
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Messages += len(messages)
			fetched = append(fetched, messages...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return fetched
}

// syncContacts runs the contact stages: parallel source fetches (plus the
// calendar window on full syncs), message-traffic derivation, per-address
// collapsing, merge against stored rows, persistence, decay refresh, and
// optional enrichment
func (e *SyncEngine) syncContacts(ctx context.Context, mode string, messages []models.Message, result *SyncResult) {
	owner := e.config.OwnerID

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		observed []models.Contact
	)

	fail := func(source string, err error) {
		e.noteRateLimit(err, source)
		e.log.SourceFailed(owner, source, err)
		mu.Lock()
		result.SourceErrors++
		mu.Unlock()
	}
	add := func(batch []models.Contact, count *int) {
		mu.Lock()
		observed = append(observed, batch...)
		*count += len(batch)
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		records, err := e.client.ListContacts(ctx)
		if err != nil {
			fail("address_book", err)
			return
		}
		var sources []contacts.SourceRecord
		for _, rec := range records {
			sources = append(sources, contacts.FromAddressBook(rec)...)
		}
		add(normalizeAll(sources, models.SourceAddressBook), &result.Contacts.AddressBook)
	}()

	if mode == SyncModeFull {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := e.client.ListPeople(ctx)
			if err != nil {
				fail("people_graph", err)
				return
			}
			sources := make([]contacts.SourceRecord, 0, len(records))
			for _, rec := range records {
				sources = append(sources, contacts.FromPerson(rec))
			}
			add(normalizeAll(sources, models.SourcePeopleGraph), &result.Contacts.PeopleGraph)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := e.client.ListDirectory(ctx)
			if err != nil {
				fail("directory", err)
				return
			}
			sources := make([]contacts.SourceRecord, 0, len(records))
			for _, rec := range records {
				sources = append(sources, contacts.FromDirectory(rec))
			}
			add(normalizeAll(sources, models.SourceDirectory), &result.Contacts.Directory)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now().UTC()
			window := provider.EventWindow{
				From: now.Add(-calendarPastWindow),
				To:   now.Add(calendarFutureWindow),
			}
			records, err := e.client.ListCalendarEvents(ctx, window)
			if err != nil {
				fail("calendar", err)
				return
			}
			events := make([]models.CalendarEvent, 0, len(records))
			for _, rec := range records {
				events = append(events, toEvent(rec))
			}
			if err := e.store.Events.UpsertBatch(ctx, owner, events); err != nil {
				fail("calendar", err)
				return
			}
			mu.Lock()
			result.Events = len(events)
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, addr := range contacts.ExtractAddresses(messages) {
		if e.exclusion.Excluded(addr.Email) {
			continue
		}
		contact, err := contacts.Normalize(contacts.FromAddress(addr), models.SourceEmailDerived)
		if err != nil {
			continue
		}
		observed = append(observed, contact)
		result.Contacts.EmailDerived++
	}

	if len(observed) == 0 {
		return
	}

	// Collapse observations sharing one address before touching the store
	byEmail := make(map[string]models.Contact, len(observed))
	order := make([]string, 0, len(observed))
	for _, obs := range observed {
		if existing, ok := byEmail[obs.Email]; ok {
			byEmail[obs.Email] = contacts.Merge(existing, obs)
		} else {
			byEmail[obs.Email] = obs
			order = append(order, obs.Email)
		}
	}

	stored, err := e.store.Contacts.GetByEmails(ctx, owner, order)
	if err != nil {
		e.log.Error("failed to load stored contacts for merge", "owner", owner, "error", err)
		stored = map[string]models.Contact{}
	}

	merged := make([]models.Contact, 0, len(order))
	for _, email := range order {
		obs := byEmail[email]
		if existing, ok := stored[email]; ok {
			merged = append(merged, contacts.Merge(existing, obs))
		} else {
			merged = append(merged, obs)
		}
	}

	if err := e.store.Contacts.UpsertBatch(ctx, owner, merged); err != nil {
		e.log.Error("failed to store contacts", "owner", owner, "error", err)
		result.SourceErrors++
		return
	}
	result.ContactsSaved = len(merged)

	if _, err := e.store.Contacts.RefreshStatuses(ctx, owner, time.Now().UTC()); err != nil {
		e.log.Error("failed to refresh contact statuses", "owner", owner, "error", err)
	}

	if e.enricher != nil && e.config.EnrichLimit > 0 {
		enriched, err := e.enricher.EnrichContacts(ctx, owner, e.config.EnrichLimit)
		if err != nil && !apperrors.IsNotConfigured(err) {
			e.log.Error("contact enrichment failed", "owner", owner, "error", err)
		}
		result.Enriched = enriched
	}
}

// toMessage converts a wire record to the stored form, falling back to the
// raw MIME payload when the list fields are incomplete
func (e *SyncEngine) toMessage(rec provider.MessageRecord) models.Message {
	msg := models.Message{
		ProviderMessageID: rec.ID,
		SenderName:        rec.From.Name,
		SenderEmail:       rec.From.Address,
		Subject:           rec.Subject,
		Preview:           rec.Preview,
		IsRead:            rec.IsRead,
		IsStarred:         rec.IsStarred,
		HasAttachments:    rec.HasAttachments,
		RawPayload:        rec.MimeContent,
		ReceivedAt:        rec.ReceivedAt,
	}
	msg.SetRecipients(addressStrings(rec.To), addressStrings(rec.Cc), addressStrings(rec.Bcc))

	if (msg.SenderEmail == "" || msg.Preview == "") && len(rec.MimeContent) > 0 {
		if parsed, err := mailparse.Parse(rec.MimeContent); err == nil {
			if msg.SenderEmail == "" {
				msg.SenderEmail = parsed.SenderEmail
				msg.SenderName = parsed.SenderName
			}
			if msg.Subject == "" {
				msg.Subject = parsed.Subject
			}
			if msg.Preview == "" {
				msg.Preview = parsed.Preview
			}
			if parsed.HasAttachments {
				msg.HasAttachments = true
			}
		}
	}

	return msg
}

// noteRateLimit surfaces provider throttling in the ops log
func (e *SyncEngine) noteRateLimit(err error, resource string) {
	if apperrors.IsRateLimited(err) {
		e.log.RateLimitHit(e.config.OwnerID, resource, apperrors.RetryAfterHint(err))
	}
}

func (e *SyncEngine) notifyComplete(result SyncResult) {
	e.mu.Lock()
	listeners := make([]func(SyncResult), len(e.onComplete))
	copy(listeners, e.onComplete)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(result)
	}
}

// normalizeAll converts source records to canonical contacts, dropping the
// ones with invalid addresses
func normalizeAll(records []contacts.SourceRecord, kind string) []models.Contact {
	out := make([]models.Contact, 0, len(records))
	for _, rec := range records {
		contact, err := contacts.Normalize(rec, kind)
		if err != nil {
			continue
		}
		out = append(out, contact)
	}
	return out
}

func addressStrings(addrs []provider.EmailAddress) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.Address != "" {
			out = append(out, a.Address)
		}
	}
	return out
}

func toEvent(rec provider.EventRecord) models.CalendarEvent {
	return models.CalendarEvent{
		ProviderEventID: rec.ID,
		Subject:         rec.Subject,
		Location:        rec.Location,
		Organizer:       rec.Organizer,
		StartsAt:        rec.StartsAt,
		EndsAt:          rec.EndsAt,
		IsAllDay:        rec.IsAllDay,
		AttendeeCount:   rec.AttendeeCount,
	}
}
