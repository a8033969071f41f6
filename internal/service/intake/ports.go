// Package intake runs the slot-filling dialogue that routes a caller to a ward
// and collects their name, age and reason for visiting.
package intake

import (
	"context"
	"errors"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
)

// ErrNotConfigured is returned by sinks and notifiers that have no endpoint.
// The engine treats it as a soft skip.
var ErrNotConfigured = errors.New("not configured")

// Record is a completed intake.
type Record struct {
	Name     string          `json:"patient_name"`
	Age      int             `json:"patient_age"`
	Reason   string          `json:"patient_query"`
	Category intent.Category `json:"-"`
}

// Ward returns the ward slug stored with the record.
func (r Record) Ward() string {
	return r.Category.Ward()
}

// Sink persists completed intakes. The returned id is opaque and may be empty.
type Sink interface {
	Save(ctx context.Context, rec Record) (string, error)
}

// Notifier fires a best-effort alert for a completed intake.
type Notifier interface {
	Notify(ctx context.Context, rec Record) error
}
