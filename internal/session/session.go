package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"naskahlokal/internal/document/model"
	"naskahlokal/pkg/logger"
)

const (
	DefaultDebounce = 1500 * time.Millisecond

	DefaultTitle = "Primeiro Documento"
	NewTitle     = "Novo Documento"
)

var (
	ErrNoTitle          = errors.New("no title given")
	ErrNoActiveDocument = errors.New("no active document")
	ErrClosed           = errors.New("session closed")
)

type DocumentStore interface {
	ListAll(ctx context.Context) ([]model.Document, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	Put(ctx context.Context, doc model.Document) error
	Delete(ctx context.Context, id string) error
}

// PreferenceStore remembers the last active document across restarts.
type PreferenceStore interface {
	LastDocID(ctx context.Context) (string, error)
	SetLastDocID(ctx context.Context, id string) error
}

// Buffer is the editing surface the session reads from and populates.
type Buffer interface {
	Text() string
	SetText(text string)
}

type Phase int

const (
	Idle Phase = iota
	PendingSave
	Saving
)

func (p Phase) String() string {
	switch p {
	case PendingSave:
		return "pending_save"
	case Saving:
		return "saving"
	}
	return "idle"
}

type Options struct {
	Debounce time.Duration
	Now      func() time.Time
	NewID    func() string
	Notifier Notifier
}

type saveJob struct {
	docID   string
	content string
}

// Session tracks the active document and turns edits into debounced saves.
//
// At most one save runs at a time. A debounce timer firing during a save
// does not start another one; it marks the session to re-arm the timer
// once the running save completes. Saves of a document that stopped being
// active are queued behind the running one with a snapshot of its text.
type Session struct {
	docs     DocumentStore
	prefs    PreferenceStore
	buf      Buffer
	notifier Notifier
	debounce time.Duration
	now      func() time.Time
	newID    func() string

	mu        sync.Mutex
	currentID string
	ready     bool
	timer     *time.Timer
	gen       uint64
	saving    bool
	inFlight  string // document of the save being written
	saveDone  *sync.Cond
	rearm     bool
	queue     []saveJob
	list      []model.Document
	closed    bool
	wg        sync.WaitGroup
}

func New(docs DocumentStore, prefs PreferenceStore, buf Buffer, opts Options) *Session {
	s := &Session{
		docs:     docs,
		prefs:    prefs,
		buf:      buf,
		notifier: opts.Notifier,
		debounce: opts.Debounce,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.debounce <= 0 {
		s.debounce = DefaultDebounce
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{}
	}
	s.saveDone = sync.NewCond(&s.mu)
	return s
}

func (s *Session) emit(st Status) {
	s.notifier.Notify(st)
}

// Start loads the document list, provisioning a default document when the
// store is empty, and activates the last used one.
func (s *Session) Start(ctx context.Context) error {
	_, err := s.LoadDocuments(ctx)
	return err
}

// Close stops the debounce timer and waits for running saves.
// Edits that were still waiting for their debounce window are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Ready reports whether the buffer holds a fully loaded document.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.saving:
		return Saving
	case s.timer != nil:
		return PendingSave
	}
	return Idle
}

// Documents returns the list as of the last load, newest first.
func (s *Session) Documents() []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Document, len(s.list))
	copy(out, s.list)
	return out
}

// CurrentTitle returns the display title of the active document.
func (s *Session) CurrentTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.list {
		if d.ID == s.currentID {
			return d.DisplayTitle()
		}
	}
	return ""
}

// RefreshDocuments reloads the list without changing the active document.
func (s *Session) RefreshDocuments(ctx context.Context) ([]model.Document, error) {
	return s.refreshList(ctx)
}

func (s *Session) refreshList(ctx context.Context) ([]model.Document, error) {
	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].UpdatedAt != docs[j].UpdatedAt {
			return docs[i].UpdatedAt > docs[j].UpdatedAt
		}
		return docs[i].ID < docs[j].ID
	})
	s.mu.Lock()
	s.list = docs
	s.mu.Unlock()
	return docs, nil
}

// LoadDocuments reloads the list and activates a document: the remembered
// one if it still exists, otherwise the most recently updated. An empty
// store gets a fresh default document.
func (s *Session) LoadDocuments(ctx context.Context) ([]model.Document, error) {
	docs, err := s.refreshList(ctx)
	if err != nil {
		s.emit(Status{Kind: StatusError, Message: "Erro ao carregar documentos."})
		return nil, err
	}

	if len(docs) == 0 {
		if _, err := s.CreateDocument(ctx, DefaultTitle); err != nil {
			return nil, err
		}
		return s.Documents(), nil
	}

	target := docs[0].ID
	last, err := s.prefs.LastDocID(ctx)
	if err != nil {
		logger.Sugar.Warnf("Could not read last document id: %v", err)
	}
	for _, d := range docs {
		if last != "" && d.ID == last {
			target = last
			break
		}
	}

	if err := s.SwitchDocument(ctx, target); err != nil {
		return docs, err
	}
	return docs, nil
}

// SwitchDocument makes id the active document and loads it into the buffer.
// Switching to the active document does nothing. A save still pending for
// the previous document is not cancelled; it is saved with the text it had.
func (s *Session) SwitchDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.currentID == id {
		s.mu.Unlock()
		return nil
	}
	s.detachPendingLocked()
	s.currentID = id
	s.ready = false
	s.mu.Unlock()

	if err := s.prefs.SetLastDocID(ctx, id); err != nil {
		logger.Sugar.Warnf("Could not remember last document %s: %v", id, err)
	}

	doc, err := s.docs.Get(ctx, id)

	s.mu.Lock()
	if s.currentID != id {
		// a later switch won
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		// forget the id so the same switch can be retried
		s.currentID = ""
		s.mu.Unlock()
		s.emit(Status{Kind: StatusError, Message: "Erro ao abrir documento.", DocID: id})
		return fmt.Errorf("switch to %s: %w", id, err)
	}
	if doc != nil {
		s.buf.SetText(doc.Content)
	} else {
		s.buf.SetText("")
	}
	s.ready = true
	s.mu.Unlock()
	return nil
}

// CreateDocument stores a new empty document and switches to it.
// A blank title aborts without creating anything.
func (s *Session) CreateDocument(ctx context.Context, title string) (model.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Document{}, ErrNoTitle
	}

	now := model.Millis(s.now())
	doc := model.Document{
		ID:        s.newID(),
		Title:     title,
		Content:   "",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docs.Put(ctx, doc); err != nil {
		s.emit(Status{Kind: StatusError, Message: "Erro ao criar documento."})
		return model.Document{}, err
	}
	s.emit(Status{Kind: StatusCreated, Message: fmt.Sprintf("Documento %q criado!", title), DocID: doc.ID})

	if _, err := s.refreshList(ctx); err != nil {
		logger.Sugar.Warnf("Could not refresh document list: %v", err)
	}
	return doc, s.SwitchDocument(ctx, doc.ID)
}

// DeleteActiveDocument removes the active document and activates another,
// provisioning a default one when none is left. Saves of the document not
// yet started are dropped, and a running one is waited for so it cannot
// write the record back after the delete.
func (s *Session) DeleteActiveDocument(ctx context.Context) error {
	s.mu.Lock()
	id := s.currentID
	if id == "" {
		s.mu.Unlock()
		return ErrNoActiveDocument
	}
	s.ready = false
	dropped := s.dropQueuedLocked(id)
	pending := dropped || s.timer != nil || s.rearm
	s.stopTimerLocked()
	s.rearm = false
	for s.inFlight == id {
		s.saveDone.Wait()
	}
	s.mu.Unlock()

	if err := s.docs.Delete(ctx, id); err != nil {
		s.mu.Lock()
		if s.currentID == id {
			s.ready = true
			if pending && !s.closed {
				// the record survived, so its edits still need saving
				s.armLocked()
			}
		}
		s.mu.Unlock()
		s.emit(Status{Kind: StatusError, Message: "Erro ao excluir documento.", DocID: id})
		return err
	}

	s.mu.Lock()
	if s.currentID == id {
		// pending edits belonged to the deleted record
		s.stopTimerLocked()
		s.rearm = false
		s.currentID = ""
	}
	s.mu.Unlock()
	s.emit(Status{Kind: StatusDeleted, Message: "Documento excluído.", DocID: id})

	_, err := s.LoadDocuments(ctx)
	return err
}

// Edit replaces the buffer text and schedules a save.
// It is ignored while the session is not ready.
func (s *Session) Edit(text string) bool {
	return s.Mutate(func() bool {
		s.buf.SetText(text)
		return true
	})
}

// Mutate runs fn against the buffer while the session is ready and
// schedules a save when fn reports a change. It reports whether fn ran.
func (s *Session) Mutate(fn func() bool) bool {
	s.mu.Lock()
	if !s.ready || s.closed {
		s.mu.Unlock()
		return false
	}
	notify := false
	if fn() {
		notify = s.scheduleLocked()
	}
	s.mu.Unlock()
	if notify {
		s.emit(Status{Kind: StatusSaving, Message: "Salvando..."})
	}
	return true
}

// ScheduleSave restarts the debounce window. Only the last of a burst of
// calls leads to a save.
func (s *Session) ScheduleSave() {
	s.mu.Lock()
	notify := s.scheduleLocked()
	s.mu.Unlock()
	if notify {
		s.emit(Status{Kind: StatusSaving, Message: "Salvando..."})
	}
}

func (s *Session) scheduleLocked() bool {
	s.stopTimerLocked()
	if !s.ready || s.closed {
		return false
	}
	s.armLocked()
	return true
}

func (s *Session) armLocked() {
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	if s.currentID == "" {
		s.mu.Unlock()
		s.emit(Status{Kind: StatusNothingToSave, Message: "Nenhum documento ativo para salvar."})
		return
	}
	if s.saving {
		s.rearm = true
		s.mu.Unlock()
		return
	}

	job := saveJob{docID: s.currentID, content: s.buf.Text()}
	s.saving = true
	s.inFlight = job.docID
	s.wg.Add(1)
	s.mu.Unlock()

	s.runSaves(job)
}

// detachPendingLocked turns a save pending for the active document into a
// queued job carrying the current text.
func (s *Session) detachPendingLocked() {
	if s.currentID == "" || (s.timer == nil && !s.rearm) {
		return
	}
	s.stopTimerLocked()
	s.rearm = false
	job := saveJob{docID: s.currentID, content: s.buf.Text()}
	if s.saving {
		s.queue = append(s.queue, job)
		return
	}
	s.saving = true
	s.inFlight = job.docID
	s.wg.Add(1)
	go s.runSaves(job)
}

// dropQueuedLocked removes queued saves of docID and reports whether any
// were removed.
func (s *Session) dropQueuedLocked(docID string) bool {
	kept := s.queue[:0]
	for _, job := range s.queue {
		if job.docID != docID {
			kept = append(kept, job)
		}
	}
	dropped := len(kept) != len(s.queue)
	s.queue = kept
	return dropped
}

func (s *Session) runSaves(job saveJob) {
	defer s.wg.Done()
	for {
		s.emit(s.persist(context.Background(), job))

		s.mu.Lock()
		s.inFlight = ""
		s.saveDone.Broadcast()
		if len(s.queue) > 0 {
			job = s.queue[0]
			s.queue = s.queue[1:]
			s.inFlight = job.docID
			s.mu.Unlock()
			continue
		}
		s.saving = false
		if s.rearm && !s.closed && s.timer == nil {
			s.armLocked()
		}
		s.rearm = false
		s.mu.Unlock()
		return
	}
}

// persist re-reads the record and writes it back with the new content, so
// fields changed elsewhere are kept.
func (s *Session) persist(ctx context.Context, job saveJob) Status {
	doc, err := s.docs.Get(ctx, job.docID)
	if err != nil {
		return Status{Kind: StatusNotSaved, Message: "Não foi possível salvar.", DocID: job.docID}
	}
	if doc == nil {
		logger.Sugar.Infof("Document %s vanished before save", job.docID)
		return Status{Kind: StatusNotSaved, Message: "Documento não encontrado.", DocID: job.docID}
	}

	doc.Content = job.content
	doc.UpdatedAt = model.Millis(s.now())
	if doc.UpdatedAt < doc.CreatedAt {
		doc.UpdatedAt = doc.CreatedAt
	}
	if err := s.docs.Put(ctx, *doc); err != nil {
		return Status{Kind: StatusNotSaved, Message: "Não foi possível salvar.", DocID: job.docID}
	}
	logger.Sugar.Debugf("Auto-saved document: %s", job.docID)
	return Status{Kind: StatusSaved, Message: "Salvo localmente", DocID: job.docID}
}
