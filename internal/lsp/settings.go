package lsp

import (
	"encoding/json"
	"time"
)

// maxDebounce caps debounceMs so a typo cannot stall diagnostics.
const maxDebounce = 5 * time.Second

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("ignoring malformed configuration: %v", err)
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings takes {"erlfix": {"trace": bool, "debounceMs": int}} from
// initializationOptions or didChangeConfiguration. Absent keys keep their
// current value.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logf("ignoring malformed settings: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := settings.Erlfix.Trace; v != nil {
		s.traceLSP = *v
	}
	if v := settings.Erlfix.DebounceMs; v != nil && *v >= 0 {
		s.debounce = min(time.Duration(*v)*time.Millisecond, maxDebounce)
	}
}
