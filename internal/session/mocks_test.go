package session

import (
	"context"
	"errors"
	"sync"

	"naskahlokal/internal/document/model"
)

var errDisk = errors.New("disk unavailable")

type fakeStore struct {
	mu   sync.Mutex
	docs map[string]model.Document

	gets    int
	puts    []model.Document
	inPut   int
	maxPut  int
	failPut bool
	failGet bool
	failAll bool

	gate       chan struct{}
	putStarted chan struct{}
}

func newFakeStore(docs ...model.Document) *fakeStore {
	s := &fakeStore{docs: map[string]model.Document{}, putStarted: make(chan struct{}, 64)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *fakeStore) ListAll(ctx context.Context) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errDisk
	}
	out := []model.Document{}
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.failGet {
		return nil, errDisk
	}
	d, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *fakeStore) Put(ctx context.Context, doc model.Document) error {
	s.mu.Lock()
	s.inPut++
	if s.inPut > s.maxPut {
		s.maxPut = s.inPut
	}
	gate := s.gate
	s.mu.Unlock()

	s.putStarted <- struct{}{}
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inPut--
	if s.failPut {
		return errDisk
	}
	s.puts = append(s.puts, doc)
	s.docs[doc.ID] = doc
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *fakeStore) doc(id string) (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	return d, ok
}

func (s *fakeStore) all() []model.Document {
	docs, _ := s.ListAll(context.Background())
	return docs
}

func (s *fakeStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

func (s *fakeStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *fakeStore) resetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets = 0
	s.puts = nil
}

type fakePrefs struct {
	mu   sync.Mutex
	last string
}

func (p *fakePrefs) LastDocID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, nil
}

func (p *fakePrefs) SetLastDocID(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = id
	return nil
}

type countingBuffer struct {
	mu   sync.Mutex
	text string
	sets int
}

func (b *countingBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *countingBuffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.sets++
}

func (b *countingBuffer) setCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sets
}

type recorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *recorder) Notify(st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, st)
}

func (r *recorder) has(kind StatusKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.statuses {
		if st.Kind == kind {
			return true
		}
	}
	return false
}
