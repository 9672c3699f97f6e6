// Package gate decides whether a sender may deliver a message to a
// receiver, or must first wait for the receiver's approval. It owns the
// message-request and block state machine.
package gate

import (
	"context"
	"fmt"
)

// Decision is the outcome of evaluating a send attempt.
type Decision int

const (
	// Deliver: the pair has history and no block; persist and route.
	Deliver Decision = iota
	// QueueAsRequest: first contact; the sender was added to the
	// receiver's pending requests and nothing is persisted.
	QueueAsRequest
	// RejectBlocked: the receiver has blocked the sender.
	RejectBlocked
)

func (d Decision) String() string {
	switch d {
	case Deliver:
		return "deliver"
	case QueueAsRequest:
		return "queue_as_request"
	case RejectBlocked:
		return "reject_blocked"
	default:
		return "unknown"
	}
}

type BlockStore interface {
	Add(ctx context.Context, userID, blockedUserID string) error
	Exists(ctx context.Context, userID, blockedUserID string) (bool, error)
}

type RequestStore interface {
	Add(ctx context.Context, ownerID, requesterID string) error
	Remove(ctx context.Context, ownerID, requesterID string) error
	Exists(ctx context.Context, ownerID, requesterID string) (bool, error)
	List(ctx context.Context, ownerID string) ([]string, error)
}

// HistoryStore answers whether any message already exists between a pair.
type HistoryStore interface {
	ExistsBetween(ctx context.Context, userA, userB string) (bool, error)
}

// Gate gates who may message whom. All state lives in the stores; the
// gate itself is stateless and safe for concurrent use.
type Gate struct {
	blocks   BlockStore
	requests RequestStore
	history  HistoryStore
}

func New(blocks BlockStore, requests RequestStore, history HistoryStore) *Gate {
	return &Gate{
		blocks:   blocks,
		requests: requests,
		history:  history,
	}
}

// EvaluateSend applies the gating rules in order:
//  1. receiver blocked sender -> RejectBlocked, regardless of history
//  2. any message exists between the pair -> Deliver
//  3. otherwise record a pending request (idempotent) -> QueueAsRequest
func (g *Gate) EvaluateSend(ctx context.Context, senderID, receiverID string) (Decision, error) {
	blocked, err := g.blocks.Exists(ctx, receiverID, senderID)
	if err != nil {
		return 0, fmt.Errorf("gate: check block: %w", err)
	}
	if blocked {
		return RejectBlocked, nil
	}

	seen, err := g.history.ExistsBetween(ctx, senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("gate: check history: %w", err)
	}
	if seen {
		return Deliver, nil
	}

	if err := g.requests.Add(ctx, receiverID, senderID); err != nil {
		return 0, fmt.Errorf("gate: queue request: %w", err)
	}
	return QueueAsRequest, nil
}

// AcceptRequest removes senderID from ownerID's pending requests.
// Acceptance is advisory: it does not create history, so the next send
// from the original sender is still gated until the owner replies first.
func (g *Gate) AcceptRequest(ctx context.Context, ownerID, senderID string) error {
	if err := g.requests.Remove(ctx, ownerID, senderID); err != nil {
		return fmt.Errorf("gate: accept request: %w", err)
	}
	return nil
}

// Block adds targetID to ownerID's block list and clears any pending
// request from them. Blocking overrides history and is permanent: no
// unblock path exists.
func (g *Gate) Block(ctx context.Context, ownerID, targetID string) error {
	if err := g.blocks.Add(ctx, ownerID, targetID); err != nil {
		return fmt.Errorf("gate: add block: %w", err)
	}
	if err := g.requests.Remove(ctx, ownerID, targetID); err != nil {
		return fmt.Errorf("gate: clear request: %w", err)
	}
	return nil
}

// IsRequestPending reports whether requesterID is awaiting ownerID's approval.
func (g *Gate) IsRequestPending(ctx context.Context, ownerID, requesterID string) (bool, error) {
	return g.requests.Exists(ctx, ownerID, requesterID)
}

// PendingRequesters returns the senders awaiting ownerID's approval, oldest first.
func (g *Gate) PendingRequesters(ctx context.Context, ownerID string) ([]string, error) {
	return g.requests.List(ctx, ownerID)
}
