package mail

import (
	"context"
	"fmt"

	"budgettracker/budget"
)

// Notifier renders budget events and hands them to a Sender.
type Notifier struct {
	sender   Sender
	renderer *Renderer
}

func NewNotifier(s Sender, r *Renderer) *Notifier {
	return &Notifier{sender: s, renderer: r}
}

func (n *Notifier) SendAlert(ctx context.Context, a budget.Alert) error {
	if a.Project.OwnerEmail == "" {
		return fmt.Errorf("alert for project %s: %w", a.Project.ID, ErrNoRecipient)
	}
	msg, err := n.renderer.Alert(a)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

func (n *Notifier) SendDigest(ctx context.Context, r budget.DigestReport) error {
	if r.OwnerEmail == "" {
		return fmt.Errorf("digest for owner %s: %w", r.OwnerID, ErrNoRecipient)
	}
	msg, err := n.renderer.Digest(r)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}
