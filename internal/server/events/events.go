// Package events defines the topics and message payloads exchanged over the
// event bus, plus a Kafka-backed publisher. Delivery is at-least-once;
// consumers must be idempotent.
package events

// Topic names shared between the upload server and its consumers.
const (
	// TopicMetadataRequests carries upload notifications for the downstream
	// metadata consumer. This event is the sole coupling between the upload
	// pipeline and enrichment.
	TopicMetadataRequests = "file-metadata-requests"

	// TopicBanNotifications carries ban announcements for the notification
	// service.
	TopicBanNotifications = "ban-notifications"

	// TopicMetadataReady is published by the consumer once a canonical
	// record exists; the search side uses it to index the file and
	// invalidate read caches keyed by user id.
	TopicMetadataReady = "file-metadata-ready"
)

// MetadataRequest asks the downstream consumer to enrich a stored object.
type MetadataRequest struct {
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	S3Location string `json:"s3Location"`
	UserID     string `json:"userId"`
	FileSize   int64  `json:"fileSize"`
	Email      string `json:"email"`
}

// BanNotification announces that a user has been banned.
type BanNotification struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	BanDuration string `json:"banDuration"`
	BanReason   string `json:"banReason"`
}

// IndexEvent announces a freshly persisted metadata record.
type IndexEvent struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	FileName string `json:"fileName"`
}
