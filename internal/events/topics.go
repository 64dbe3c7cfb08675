package events

// Topic constants for domain events emitted by the document service.
const (
	TopicDocumentCreated       = "document.created"
	TopicDocumentUpdated       = "document.updated"
	TopicDocumentDeleted       = "document.deleted"
	TopicDocumentStatusChanged = "document.status_changed"
	TopicQuoteConverted        = "quote.converted"
	TopicQuoteExpired          = "quote.expired"
)

// DefaultTopics lists every topic Bus accepts.
func DefaultTopics() []string {
	return []string{
		TopicDocumentCreated,
		TopicDocumentUpdated,
		TopicDocumentDeleted,
		TopicDocumentStatusChanged,
		TopicQuoteConverted,
		TopicQuoteExpired,
	}
}
