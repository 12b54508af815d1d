/*
notify.go - Notification sink

PURPOSE:
  Appends human-readable event records to a member's inbox whenever the
  engine performs a balance-affecting action. Purely additive: the engine
  never reads notifications back for any decision.

OWNERSHIP:
  Each notification belongs to exactly one member. Only that member flips
  read flags or clears read items; clearing preserves the original relative
  order of the unread ones.
*/
package core

import "context"

// notify appends an unread notification inside the caller's transaction so
// inbox writes commit atomically with the balance change they describe.
func (e *Engine) notify(ctx context.Context, s Store, memberID MemberID, message string) error {
	return s.AppendNotification(ctx, Notification{
		ID:       NotificationID(NewID("notif")),
		MemberID: memberID,
		Message:  message,
		At:       e.now(),
		Read:     false,
	})
}

// Notifications returns a member's inbox, oldest first.
func (e *Engine) Notifications(ctx context.Context, memberID MemberID) ([]Notification, error) {
	return e.store.ListNotifications(ctx, memberID)
}

// MarkNotificationRead flips the read flag. Unknown ids are a no-op.
func (e *Engine) MarkNotificationRead(ctx context.Context, memberID MemberID, id NotificationID) error {
	return e.store.WithTx(ctx, func(s Store) error {
		notifs, err := s.ListNotifications(ctx, memberID)
		if err != nil {
			return err
		}
		for _, n := range notifs {
			if n.ID == id {
				n.Read = true
				return s.SaveNotification(ctx, n)
			}
		}
		return nil
	})
}

// ClearReadNotifications removes all read notifications for a member,
// leaving unread ones untouched in their original order.
func (e *Engine) ClearReadNotifications(ctx context.Context, memberID MemberID) error {
	return e.store.DeleteReadNotifications(ctx, memberID)
}
