package logging

import "fmt"

// Warning is a single recoverable condition recorded during a load or a
// derivation batch. Scope identifies the entity the warning belongs to,
// usually a recording basename or a modality name.
type Warning struct {
	Scope string
	Msg   string
	Err   error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s: %v", w.Scope, w.Msg, w.Err)
	}
	return fmt.Sprintf("%s: %s", w.Scope, w.Msg)
}

// Warnings collects recoverable conditions so that callers can inspect what
// degraded after a partial load or a derivation pass. A nil *Warnings is
// valid and records nothing.
type Warnings struct {
	logger Logger
	items  []Warning
}

// NewWarnings creates a collector that also forwards each warning to the
// given logger. A nil logger falls back to the global one.
func NewWarnings(logger Logger) *Warnings {
	if logger == nil {
		logger = GetGlobalLogger()
	}
	return &Warnings{logger: logger}
}

// Add records a warning.
func (w *Warnings) Add(scope, msg string, err error) {
	if w == nil {
		return
	}
	warning := Warning{Scope: scope, Msg: msg, Err: err}
	w.items = append(w.items, warning)
	if err != nil {
		w.logger.Warn(msg, Fields{"scope": scope, "error": err.Error()})
	} else {
		w.logger.Warn(msg, Fields{"scope": scope})
	}
}

// Addf records a warning with a formatted message and no wrapped error.
func (w *Warnings) Addf(scope, format string, args ...any) {
	w.Add(scope, fmt.Sprintf(format, args...), nil)
}

// Items returns the recorded warnings in order.
func (w *Warnings) Items() []Warning {
	if w == nil {
		return nil
	}
	return w.items
}

// ForScope returns the warnings recorded for one entity.
func (w *Warnings) ForScope(scope string) []Warning {
	if w == nil {
		return nil
	}
	var out []Warning
	for _, item := range w.items {
		if item.Scope == scope {
			out = append(out, item)
		}
	}
	return out
}

// Len reports the number of recorded warnings.
func (w *Warnings) Len() int {
	if w == nil {
		return 0
	}
	return len(w.items)
}
