package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"vibez-studio/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/patrickmn/go-cache"
)

// ViewSender pushes a typed message to a user's live connections.
type ViewSender interface {
	Send(ctx context.Context, userID, msgType string, data interface{}) error
}

type IViewRelay interface {
	Run(ctx context.Context) error
}

// cursor orders views of one user: by workspace session, then by version.
type cursor struct {
	session uint64
	version uint64
}

func (c cursor) after(prev cursor) bool {
	if c.session != prev.session {
		return c.session > prev.session
	}
	return c.version > prev.version
}

// viewRelay moves views from the in-process bus to websocket clients. The bus
// does not preserve publish order, so a view older than the last one sent to
// the same user is dropped.
//
// Cursors expire after idleTTL without a view, matching the workspace idle
// timeout. A workspace created after that starts a higher session.
type viewRelay struct {
	sub    message.Subscriber
	sender ViewSender
	logger logger.ILogger

	mu   sync.Mutex
	last *cache.Cache
}

func NewViewRelay(sub message.Subscriber, sender ViewSender, idleTTL time.Duration, log logger.ILogger) IViewRelay {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &viewRelay{
		sub:    sub,
		sender: sender,
		logger: log,
		last:   cache.New(idleTTL, idleTTL),
	}
}

// Run consumes views until ctx is done.
func (r *viewRelay) Run(ctx context.Context) error {
	messages, err := r.sub.Subscribe(ctx, ViewTopic)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.process(ctx, msg)
		}
	}
}

func (r *viewRelay) process(ctx context.Context, msg *message.Message) {
	// Views are snapshots; a lost one is replaced by the next.
	defer msg.Ack()

	userID := msg.Metadata.Get(MetaUserID)
	session, serr := strconv.ParseUint(msg.Metadata.Get(MetaSession), 10, 64)
	version, verr := strconv.ParseUint(msg.Metadata.Get(MetaVersion), 10, 64)
	if userID == "" || serr != nil || verr != nil {
		r.logger.Warn("ViewRelay", "Dropping malformed view message", map[string]interface{}{"uuid": msg.UUID})
		return
	}

	if !r.advance(userID, cursor{session: session, version: version}) {
		r.logger.Debug("ViewRelay", "Dropping stale view", map[string]interface{}{
			"user_id": userID,
			"version": version,
		})
		return
	}

	if err := r.sender.Send(ctx, userID, "view", json.RawMessage(msg.Payload)); err != nil {
		r.logger.Warn("ViewRelay", "Failed to push view", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// advance records c as the newest view for userID unless an equal or newer
// one was already sent.
func (r *viewRelay) advance(userID string, c cursor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.last.Get(userID); ok && !c.after(prev.(cursor)) {
		return false
	}
	r.last.Set(userID, c, cache.DefaultExpiration)
	return true
}
