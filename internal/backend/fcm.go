package backend

import (
	"context"
	"fmt"
	"net/http"

	"vetadmin/internal/metrics"
	"vetadmin/internal/records"
)

// SendEventNotification asks the backend to push the reminder for one upcoming event.
func (c *Client) SendEventNotification(ctx context.Context, eventID int64) (*records.NotificationResult, error) {
	endpoint := fmt.Sprintf("%s/fcm/send/%d", c.baseURL, eventID)
	var out records.NotificationResult
	if err := c.doJSON(ctx, "fcm_send", http.MethodPost, endpoint, nil, &out); err != nil {
		metrics.IncNotification("event", "error")
		return nil, fmt.Errorf("send notification for event %d: %w", eventID, err)
	}
	metrics.IncNotification("event", "ok")
	return &out, nil
}

// SendBulk pushes a custom notification to every registered device.
func (c *Client) SendBulk(ctx context.Context, form records.BroadcastForm) (*records.NotificationResult, error) {
	if err := form.Check(); err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/fcm/send-bulk"
	var out records.NotificationResult
	if err := c.doJSON(ctx, "fcm_send_bulk", http.MethodPost, endpoint, form, &out); err != nil {
		metrics.IncNotification("bulk", "error")
		return nil, fmt.Errorf("send bulk notification: %w", err)
	}
	metrics.IncNotification("bulk", "ok")
	return &out, nil
}
