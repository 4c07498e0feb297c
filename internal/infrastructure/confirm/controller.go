// Package confirm holds the per-session pending-confirmation state machine:
//
//	NONE → AWAITING_CONFIRMATION → {CONFIRMED | CANCELLED | EXPIRED} → NONE
//
// A session owns at most one pending confirmation. Arming while one is
// pending replaces it (cancel-then-create). Each slot carries its own
// cancellable timer; whichever of explicit resolution and expiry runs first
// wins and the other becomes a no-op.
package confirm

import (
	"sync"
	"time"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/ports"
)

// DefaultTimeout applies when configuration gives no expiry.
const DefaultTimeout = 30 * time.Second

type slot struct {
	pending domain.PendingConfirmation
	timer   *time.Timer
}

// Controller implements ports.ConfirmationController.
type Controller struct {
	mu      sync.Mutex
	slots   map[string]*slot
	timeout time.Duration
	logger  ports.Logger
	expiry  func(sessionID string, pending domain.PendingConfirmation)
}

// New builds a controller with the given expiry timeout.
func New(timeout time.Duration, logger ports.Logger) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		slots:   make(map[string]*slot),
		timeout: timeout,
		logger:  logger,
	}
}

// SetExpiryHook registers the callback invoked when a pending confirmation
// times out. Must be called before the first Arm.
func (c *Controller) SetExpiryHook(hook func(sessionID string, pending domain.PendingConfirmation)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiry = hook
}

// Timeout reports the configured expiry duration.
func (c *Controller) Timeout() time.Duration {
	return c.timeout
}

// Arm parks a command awaiting yes/no. Any previous pending confirmation
// for the session is cancelled first; pending confirmations never stack.
func (c *Controller) Arm(sessionID string, pending domain.PendingConfirmation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.slots[sessionID]; ok {
		prev.timer.Stop()
		delete(c.slots, sessionID)
		if c.logger != nil {
			c.logger.Info("pending confirmation replaced", map[string]interface{}{
				"session":     sessionID,
				"replaced":    prev.pending.Command.Preview,
				"correlation": prev.pending.CorrelationID,
			})
		}
	}

	if pending.Timeout <= 0 {
		pending.Timeout = c.timeout
	}
	s := &slot{pending: pending}
	s.timer = time.AfterFunc(pending.Timeout, func() {
		c.expire(sessionID, s)
	})
	c.slots[sessionID] = s
}

// expire fires on the slot's own timer. The identity check under the mutex
// makes expiry and explicit resolution mutually exclusive.
func (c *Controller) expire(sessionID string, expired *slot) {
	c.mu.Lock()
	current, ok := c.slots[sessionID]
	if !ok || current != expired {
		c.mu.Unlock()
		return
	}
	delete(c.slots, sessionID)
	hook := c.expiry
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("pending confirmation expired", map[string]interface{}{
			"session":     sessionID,
			"command":     expired.pending.Command.Preview,
			"correlation": expired.pending.CorrelationID,
		})
	}
	if hook != nil {
		hook(sessionID, expired.pending)
	}
}

// Resolve settles the session's pending slot with an explicit yes/no.
// ok is false when nothing was pending, including when the timeout already
// fired: a late confirm is indistinguishable from never having had a
// pending command.
func (c *Controller) Resolve(sessionID string, confirmed bool) (domain.PendingConfirmation, domain.ConfirmationOutcome, bool) {
	c.mu.Lock()
	s, ok := c.slots[sessionID]
	if !ok {
		c.mu.Unlock()
		return domain.PendingConfirmation{}, "", false
	}
	s.timer.Stop()
	delete(c.slots, sessionID)
	c.mu.Unlock()

	outcome := domain.OutcomeCancelled
	if confirmed {
		outcome = domain.OutcomeConfirmed
	}
	return s.pending, outcome, true
}

// Pending peeks at the live slot without consuming it.
func (c *Controller) Pending(sessionID string) (domain.PendingConfirmation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots[sessionID]; ok {
		return s.pending, true
	}
	return domain.PendingConfirmation{}, false
}

var _ ports.ConfirmationController = (*Controller)(nil)
