package audit

import "fmt"

// NewSplunkHECSink builds an HTTP sink shaped for Splunk's HTTP Event
// Collector: a bearer token in the Authorization header, POSTing to the
// collector's /services/collector/event endpoint.
func NewSplunkHECSink(collectorURL, hecToken string) *HTTPSinkBase {
	return NewHTTPSinkBase(collectorURL, map[string]string{
		"Authorization": fmt.Sprintf("Splunk %s", hecToken),
	})
}

// NewDatadogSink builds an HTTP sink shaped for Datadog's logs intake,
// authenticating via the DD-API-KEY header.
func NewDatadogSink(intakeURL, apiKey string) *HTTPSinkBase {
	return NewHTTPSinkBase(intakeURL, map[string]string{
		"DD-API-KEY": apiKey,
	})
}

// NewWebhookSink builds a generic HTTP sink for an arbitrary webhook
// receiver, with no authentication headers beyond whatever the caller
// supplies.
func NewWebhookSink(url string, headers map[string]string) *HTTPSinkBase {
	return NewHTTPSinkBase(url, headers)
}
