package backend

import (
	"context"

	"vetadmin/internal/records"
)

// SlotStore serves blocked-slot rows to the slot toggler.
type SlotStore struct {
	client *Client
}

func NewSlotStore(c *Client) *SlotStore {
	return &SlotStore{client: c}
}

// BlockedSlots always reads through to the backend; toggles decide on it.
func (s *SlotStore) BlockedSlots(ctx context.Context) ([]records.BlockedSlot, error) {
	return FetchEvery[records.BlockedSlot](WithoutCache(ctx), s.client)
}

func (s *SlotStore) BlockSlot(ctx context.Context, date string, tm *string) (records.BlockedSlot, error) {
	body := struct {
		Date string  `json:"date"`
		Time *string `json:"time"`
	}{Date: date, Time: tm}
	return Create[records.BlockedSlot](ctx, s.client, body)
}

func (s *SlotStore) UnblockSlots(ctx context.Context, ids []int64) error {
	_, err := s.client.Delete(ctx, records.TableBlockedSlots, ids)
	return err
}
