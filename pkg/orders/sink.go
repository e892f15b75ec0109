package orders

import "go.uber.org/zap"

// EventSink receives a record of every simulated exchange call together with
// the payload the exchange would have returned.
type EventSink interface {
	APICall(endpoint string, params map[string]any, response any)
}

type NopSink struct{}

func (NopSink) APICall(string, map[string]any, any) {}

// LogSink writes calls to a zap logger.
type LogSink struct {
	Logger *zap.SugaredLogger
}

func (s LogSink) APICall(endpoint string, params map[string]any, response any) {
	s.Logger.Infow("api_call", "endpoint", endpoint, "params", params, "response", response)
}

// MultiSink fans a call out to every sink in order.
type MultiSink []EventSink

func (m MultiSink) APICall(endpoint string, params map[string]any, response any) {
	for _, s := range m {
		s.APICall(endpoint, params, response)
	}
}
