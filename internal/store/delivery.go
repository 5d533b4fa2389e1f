package store

// WebhookDelivery is one queued webhook POST. The worker fetches due rows,
// attempts the request, and reports the outcome via MarkWebhookDelivery or
// FailWebhookDelivery.
type WebhookDelivery struct {
    ID             string
    TenantID       string
    SubscriptionID string
    EventType      string
    URL            string
    Secret         string
    Payload        []byte
    Status         string
    Attempts       int
}
