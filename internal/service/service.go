// Package service orchestrates the document store, the audit log, and
// the subscriber registry for the four protocol actions.
//
// Ordering owned here: every accepted action appends its audit record
// before the store is touched, and a set broadcasts its change event
// only after the merge has been persisted, carrying the same timestamp
// as the set's audit record. Audit faults are logged and counted but
// never fail the response already owed to the caller; a broadcast
// failure likewise never reaches the writer.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/docstore-core/internal/audit"
	"github.com/nerrad567/docstore-core/internal/document"
	"github.com/nerrad567/docstore-core/internal/infrastructure/logging"
	"github.com/nerrad567/docstore-core/internal/metrics"
	"github.com/nerrad567/docstore-core/internal/protocol"
	"github.com/nerrad567/docstore-core/internal/subscriber"
)

// Service implements the four protocol operations over the shared store,
// log, and registry instances constructed at startup.
type Service struct {
	store    document.Store
	audit    audit.Log
	registry *subscriber.Registry
	metrics  *metrics.Metrics
	logger   *logging.Logger

	// now and newSession are injectable for tests.
	now        func() time.Time
	newSession func() string
}

// New creates a Service over the given collaborators.
func New(store document.Store, log audit.Log, registry *subscriber.Registry, m *metrics.Metrics, logger *logging.Logger) *Service {
	return &Service{
		store:      store,
		audit:      log,
		registry:   registry,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
		newSession: uuid.NewString,
	}
}

// Get audits the request (keeping the requested id) and fetches the
// document. An absent id is a normal "NotFound" failure response, not an
// error path.
func (s *Service) Get(ctx context.Context, identity, id string) protocol.Response {
	s.appendAudit(ctx, identity, protocol.ActionGet, id)

	doc, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return protocol.Failure(protocol.MsgNotFound)
		}
		return s.storeFault("get", id, err)
	}
	return protocol.OKData(doc)
}

// List audits the request (without an id) and returns every document.
func (s *Service) List(ctx context.Context, identity string) protocol.Response {
	s.appendAudit(ctx, identity, protocol.ActionList, "")

	docs, err := s.store.List(ctx)
	if err != nil {
		return s.storeFault("list", "", err)
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return protocol.OKData(docs)
}

// Set merges data into the document with the given id and broadcasts the
// result to every live subscriber.
//
// The audit record deliberately omits the item id; the only way to
// correlate a set with its document is the broadcast event's payload.
func (s *Service) Set(ctx context.Context, identity, id string, data map[string]any) protocol.Response {
	payload := document.Document(data).Clone()
	payload[document.KeyField] = id
	delete(payload, "ID")

	ts := s.appendAudit(ctx, identity, protocol.ActionSet, "")

	merged, err := s.store.Upsert(ctx, payload)
	if err != nil {
		return s.storeFault("set", id, err)
	}

	event := protocol.NewChangeEvent(merged, ts)
	s.registry.Broadcast(event)
	s.logger.Debug("change broadcast", "id", id, "subscribers", s.registry.Count())

	return protocol.OKData(merged)
}

// Subscribe audits the subscription through the exact append path and
// returns the acknowledgement. Registering the connection is the
// dispatcher's job, after the acknowledgement has been written, so a
// subscriber can never see a change event before its ack.
func (s *Service) Subscribe(ctx context.Context, identity string) protocol.Response {
	rec := audit.Record{
		Identity: identity,
		Session:  s.newSession(),
		Action:   string(protocol.ActionSubscribe),
		TS:       s.now().UnixMilli(),
	}
	if err := s.audit.AppendExact(ctx, rec); err != nil {
		s.auditFault(protocol.ActionSubscribe, err)
	}
	return protocol.SubscribeAck()
}

// appendAudit writes the record for one accepted action and returns the
// timestamp it carried. Faults are logged and counted, never surfaced.
func (s *Service) appendAudit(ctx context.Context, identity string, action protocol.Action, itemID string) int64 {
	ts := s.now().UnixMilli()
	rec := audit.Record{
		Identity: identity,
		Session:  s.newSession(),
		Action:   string(action),
		TS:       ts,
		ItemID:   itemID,
	}
	if err := s.audit.Append(ctx, rec); err != nil {
		s.auditFault(action, err)
	}
	return ts
}

func (s *Service) auditFault(action protocol.Action, err error) {
	s.metrics.PersistenceFaults.WithLabelValues(metrics.ComponentAudit).Inc()
	s.logger.Error("audit append failed", "action", string(action), "error", err)
}

func (s *Service) storeFault(op, id string, err error) protocol.Response {
	s.metrics.PersistenceFaults.WithLabelValues(metrics.ComponentDocuments).Inc()
	s.logger.Error("document store failure", "op", op, "id", id, "error", err)
	return protocol.Failure(err.Error())
}
