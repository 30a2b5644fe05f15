package session

import "naskahlokal/pkg/logger"

type StatusKind string

const (
	StatusSaving        StatusKind = "saving"
	StatusSaved         StatusKind = "saved"
	StatusNotSaved      StatusKind = "not_saved"
	StatusNothingToSave StatusKind = "nothing_to_save"
	StatusCreated       StatusKind = "created"
	StatusDeleted       StatusKind = "deleted"
	StatusError         StatusKind = "error"

	// find and replace feedback
	StatusEndOfDocument StatusKind = "end_of_document"
	StatusReplacedAll   StatusKind = "replaced_all"
	StatusNoMatches     StatusKind = "no_matches"
)

// Status is a transient, user-visible message about the session.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
	DocID   string     `json:"document_id,omitempty"`
}

// Notifier receives status messages. It is never called with the session
// lock held, so it may call back into the session.
type Notifier interface {
	Notify(Status)
}

type NotifierFunc func(Status)

func (f NotifierFunc) Notify(st Status) { f(st) }

// LogNotifier writes status messages to the global logger.
type LogNotifier struct{}

func (LogNotifier) Notify(st Status) {
	switch st.Kind {
	case StatusNotSaved, StatusError:
		logger.Sugar.Warnw(st.Message, "kind", st.Kind, "document_id", st.DocID)
	default:
		logger.Sugar.Debugw(st.Message, "kind", st.Kind, "document_id", st.DocID)
	}
}
