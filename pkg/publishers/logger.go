package publishers

// Logger is the structured logging surface publishers report deliveries on.
// It matches httpclient.Logger so the webhook sink can share it with resty.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// logDelivered records a successful send under publisher_<type>_delivery.
func logDelivered(log Logger, p Publisher, evt Event, extra map[string]any) {
	fields := map[string]any{
		"publisher_id": p.ID(),
		"event_kind":   evt.Kind,
		"digest":       evt.Digest,
	}
	for k, v := range extra {
		fields[k] = v
	}
	log.DebugObj(p.Type()+" publisher delivered event", "publisher_"+p.Type()+"_delivery", fields)
}

// logFailed records a failed send under publisher_<type>_error.
func logFailed(log Logger, p Publisher, evt Event, err error) {
	log.ErrorObj(p.Type()+" publisher send failed", "publisher_"+p.Type()+"_error", map[string]any{
		"publisher_id": p.ID(),
		"event_kind":   evt.Kind,
		"digest":       evt.Digest,
		"error":        err.Error(),
	})
}
