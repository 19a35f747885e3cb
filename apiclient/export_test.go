package apiclient

import "time"

// PendingRefreshes exposes the number of requests queued behind a refresh.
func (c *Client) PendingRefreshes() int {
	return c.coordinator.Pending()
}

// RequestTimeout exposes the timeout applied to the underlying http.Client.
func (c *Client) RequestTimeout() time.Duration {
	return c.httpClient.Timeout
}
