package core

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"rostercore/internal/blob"
	"rostercore/internal/infra/persistence/memory"
	"rostercore/internal/mapping"
	"rostercore/pkg/domain"
)

// ImportStatus describes the lifecycle stage of a bulk import request.
type ImportStatus string

const (
	ImportStatusQueued    ImportStatus = "queued"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusSucceeded ImportStatus = "succeeded"
	ImportStatusPartial   ImportStatus = "partial"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportCounts summarizes row outcomes of a finished import.
type ImportCounts struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RowError reports a failure scoped to a single imported record. Field is
// empty when the whole row failed rather than one coerced value.
type RowError struct {
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportJob tracks a bulk import request through its lifecycle.
type ImportJob struct {
	ID          string       `json:"id"`
	Entity      EntityType   `json:"entity"`
	Status      ImportStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	Counts      ImportCounts `json:"counts"`
	RowErrors   []RowError   `json:"row_errors,omitempty"`
	CreatedIDs  []string     `json:"created_ids,omitempty"`
	RequestedBy string       `json:"requested_by"`
	Source      string       `json:"source,omitempty"`
	DryRun      bool         `json:"dry_run"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ImportInput represents an enqueue request for the worker. Records are a
// snapshot of the included records of a mapping session; the worker applies
// the mapping itself so a job stays valid after the session moves on.
type ImportInput struct {
	Entity       EntityType
	Records      []mapping.Record
	SourceFields []string
	Mapping      map[string]string
	RequestedBy  string
	Source       string
	DryRun       bool
}

// ImportScheduler queues bulk import requests and exposes status.
type ImportScheduler interface {
	EnqueueImport(ctx context.Context, input ImportInput) (ImportJob, error)
	GetImport(id string) (ImportJob, bool)
}

// ImportAuditLogger records import audit entries.
type ImportAuditLogger interface {
	Record(ctx context.Context, entry ImportAuditEntry)
}

// ImportAuditEntry captures audit trail metadata for bulk imports.
type ImportAuditEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	Entity     EntityType     `json:"entity"`
	Status     ImportStatus   `json:"status"`
	Source     string         `json:"source,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ImportWorker executes bulk imports asynchronously. Each record passes
// through the mapping applier, catalog coercion, and a typed decode before
// being created in its own store transaction, so one bad row never rolls back
// its neighbours.
type ImportWorker struct {
	service *Service
	archive blob.Store
	audit   ImportAuditLogger

	queue chan importTask
	mu    sync.RWMutex
	jobs  map[string]*ImportJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type importTask struct {
	id    string
	input ImportInput
}

// NewImportWorker constructs an import worker. The archive store and audit
// logger may be nil.
func NewImportWorker(service *Service, archive blob.Store, audit ImportAuditLogger) *ImportWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &ImportWorker{
		service: service,
		archive: archive,
		audit:   audit,
		queue:   make(chan importTask, 32),
		jobs:    make(map[string]*ImportJob),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing import requests.
func (w *ImportWorker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *ImportWorker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ImportWorker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueImport schedules an import job and returns the queued record.
func (w *ImportWorker) EnqueueImport(ctx context.Context, input ImportInput) (ImportJob, error) {
	if w.service == nil {
		return ImportJob{}, fmt.Errorf("import service not configured")
	}
	if len(domain.Catalog(input.Entity)) == 0 {
		return ImportJob{}, fmt.Errorf("unknown import entity %s", input.Entity)
	}
	if len(input.Records) == 0 {
		return ImportJob{}, fmt.Errorf("no records to import")
	}
	if len(input.Mapping) == 0 {
		return ImportJob{}, fmt.Errorf("no field mapping configured")
	}

	id := newImportID()
	now := time.Now().UTC()
	job := ImportJob{
		ID:          id,
		Entity:      input.Entity,
		Status:      ImportStatusQueued,
		Counts:      ImportCounts{Total: len(input.Records)},
		RequestedBy: input.RequestedBy,
		Source:      input.Source,
		DryRun:      input.DryRun,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &job
	queuedSnapshot := job.copy()
	w.mu.Unlock()

	if w.audit != nil {
		w.audit.Record(ctx, ImportAuditEntry{
			ID:         newImportID(),
			Action:     "bulk_import",
			Actor:      input.RequestedBy,
			Entity:     input.Entity,
			Status:     ImportStatusQueued,
			Source:     input.Source,
			OccurredAt: now,
		})
	}

	select {
	case w.queue <- importTask{id: id, input: input}:
	default:
		return ImportJob{}, fmt.Errorf("import queue full")
	}

	return queuedSnapshot, nil
}

// GetImport returns a snapshot of the import job.
func (w *ImportWorker) GetImport(id string) (ImportJob, bool) {
	w.mu.RLock()
	job, ok := w.jobs[id]
	if !ok {
		w.mu.RUnlock()
		return ImportJob{}, false
	}
	snapshot := job.copy()
	w.mu.RUnlock()
	return snapshot, true
}

func (w *ImportWorker) process(task importTask) {
	w.mu.RLock()
	_, ok := w.jobs[task.id]
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.updateStatus(task.id, ImportStatusRunning, "")

	if w.archive != nil && !task.input.DryRun {
		if err := w.archivePayload(task); err != nil {
			w.fail(task.id, fmt.Sprintf("archive payload failed: %v", err))
			return
		}
	}

	target := w.service
	if task.input.DryRun {
		target = w.dryRunService()
	}

	counts := ImportCounts{Total: len(task.input.Records)}
	var rowErrors []RowError
	var createdIDs []string

	for i, rec := range task.input.Records {
		mapped := mapping.Apply(rec, task.input.SourceFields, task.input.Mapping)
		payload, fieldErrs := coerceFields(task.input.Entity, mapped)
		if len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				rowErrors = append(rowErrors, RowError{Index: i, Field: fe.field, Message: fe.message})
			}
			counts.Failed++
			continue
		}
		if len(payload) == 0 {
			counts.Skipped++
			continue
		}
		createdID, err := createImportEntity(w.ctx, target, task.input.Entity, payload)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Index: i, Message: importErrorMessage(err)})
			counts.Failed++
			continue
		}
		counts.Created++
		if !task.input.DryRun {
			createdIDs = append(createdIDs, createdID)
		}
	}

	w.complete(task.id, counts, rowErrors, createdIDs)
}

// dryRunService builds a throwaway service over a clone of the live state so
// validation sees real references without persisting anything.
func (w *ImportWorker) dryRunService() *Service {
	scratch := NewMemoryStore(w.service.RulesEngine())
	if exporter, ok := w.service.Store().(interface{ ExportState() memory.Snapshot }); ok {
		scratch.ImportState(exporter.ExportState())
	}
	return NewService(scratch)
}

func (w *ImportWorker) archivePayload(task importTask) error {
	records := make([]any, 0, len(task.input.Records))
	for _, rec := range task.input.Records {
		if rec.Shape() == mapping.ShapePositional {
			records = append(records, rec.Values())
			continue
		}
		fields := make(map[string]any, rec.Len())
		for _, field := range rec.Fields() {
			fields[field.Name] = field.Value
		}
		records = append(records, fields)
	}
	payload, err := json.Marshal(map[string]any{
		"entity":        task.input.Entity,
		"source_fields": task.input.SourceFields,
		"mapping":       task.input.Mapping,
		"records":       records,
	})
	if err != nil {
		return fmt.Errorf("encode archive payload: %w", err)
	}
	_, err = w.archive.Put(w.ctx, "imports/"+task.id, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"entity":       string(task.input.Entity),
			"requested_by": task.input.RequestedBy,
			"source":       task.input.Source,
		},
	})
	return err
}

func (w *ImportWorker) updateStatus(id string, status ImportStatus, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.Status = status
		job.Error = message
		job.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(id, status, nil)
}

func (w *ImportWorker) complete(id string, counts ImportCounts, rowErrors []RowError, createdIDs []string) {
	status := ImportStatusSucceeded
	switch {
	case counts.Created > 0 && counts.Failed > 0:
		status = ImportStatusPartial
	case counts.Created == 0 && counts.Failed > 0:
		status = ImportStatusFailed
	}

	now := time.Now().UTC()
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.Status = status
		job.Counts = counts
		job.RowErrors = rowErrors
		job.CreatedIDs = createdIDs
		job.UpdatedAt = now
		job.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(id, status, map[string]any{
		"created": counts.Created,
		"skipped": counts.Skipped,
		"failed":  counts.Failed,
	})
}

func (w *ImportWorker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if job, ok := w.jobs[id]; ok {
		job.Status = ImportStatusFailed
		job.Error = reason
		job.UpdatedAt = now
		job.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(id, ImportStatusFailed, map[string]any{"error": reason})
}

func (w *ImportWorker) recordAudit(id string, status ImportStatus, metadata map[string]any) {
	if w.audit == nil {
		return
	}
	w.mu.RLock()
	var actor, source string
	var entity EntityType
	if job, ok := w.jobs[id]; ok {
		actor = job.RequestedBy
		source = job.Source
		entity = job.Entity
	}
	w.mu.RUnlock()
	w.audit.Record(w.ctx, ImportAuditEntry{
		ID:         newImportID(),
		Action:     "bulk_import",
		Actor:      actor,
		Entity:     entity,
		Status:     status,
		Source:     source,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
}

// createImportEntity decodes the coerced payload into its typed entity and
// creates it through the instrumented service.
func createImportEntity(ctx context.Context, svc *Service, entity EntityType, payload map[string]any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	switch entity {
	case EntityLeague:
		var league League
		if err := json.Unmarshal(raw, &league); err != nil {
			return "", fmt.Errorf("decode league: %w", err)
		}
		created, _, err := svc.CreateLeague(ctx, league)
		return created.ID, err
	case EntitySeason:
		var season Season
		if err := json.Unmarshal(raw, &season); err != nil {
			return "", fmt.Errorf("decode season: %w", err)
		}
		created, _, err := svc.CreateSeason(ctx, season)
		return created.ID, err
	case EntityTeam:
		var team Team
		if err := json.Unmarshal(raw, &team); err != nil {
			return "", fmt.Errorf("decode team: %w", err)
		}
		created, _, err := svc.CreateTeam(ctx, team)
		return created.ID, err
	case EntityPlayer:
		var player Player
		if err := json.Unmarshal(raw, &player); err != nil {
			return "", fmt.Errorf("decode player: %w", err)
		}
		created, _, err := svc.CreatePlayer(ctx, player)
		return created.ID, err
	case EntityGame:
		var game Game
		if err := json.Unmarshal(raw, &game); err != nil {
			return "", fmt.Errorf("decode game: %w", err)
		}
		created, _, err := svc.CreateGame(ctx, game)
		return created.ID, err
	case EntityVenue:
		var venue Venue
		if err := json.Unmarshal(raw, &venue); err != nil {
			return "", fmt.Errorf("decode venue: %w", err)
		}
		created, _, err := svc.CreateVenue(ctx, venue)
		return created.ID, err
	default:
		return "", fmt.Errorf("unknown import entity %s", entity)
	}
}

// importErrorMessage flattens creation errors into a row message, surfacing
// the first violation when the transaction was blocked by rules.
func importErrorMessage(err error) string {
	var violation domain.RuleViolationError
	if AsRuleViolation(err, &violation) && len(violation.Result.Violations) > 0 {
		v := violation.Result.Violations[0]
		return fmt.Sprintf("rule %s: %s", v.Rule, v.Message)
	}
	return err.Error()
}

func (j ImportJob) copy() ImportJob {
	dup := j
	if len(j.RowErrors) > 0 {
		dup.RowErrors = append([]RowError(nil), j.RowErrors...)
	}
	if len(j.CreatedIDs) > 0 {
		dup.CreatedIDs = append([]string(nil), j.CreatedIDs...)
	}
	return dup
}

func newImportID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures import audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []ImportAuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry ImportAuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []ImportAuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ImportAuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

var _ ImportScheduler = (*ImportWorker)(nil)
