package batch

import (
	"strings"

	"places-workers/internal/models"
)

const (
	StatusComplete  = "Automation Complete."
	StatusCancelled = "Automation Cancelled."
	MessageCleared  = "Results cleared."
)

// Accumulator collects the outcome of a batch run. It has a single writer,
// the Runner driving it.
type Accumulator struct {
	records  []models.TourRecord
	messages []string
	warnings []models.Warning
	status   string
	progress float64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Append(records ...models.TourRecord) {
	a.records = append(a.records, records...)
}

func (a *Accumulator) AddMessage(msg string) {
	a.messages = append(a.messages, msg)
}

func (a *Accumulator) AddWarnings(warnings ...models.Warning) {
	a.warnings = append(a.warnings, warnings...)
}

func (a *Accumulator) SetStatus(status string) {
	a.status = status
}

func (a *Accumulator) SetProgress(pct float64) {
	a.progress = pct
}

// Clear drops the collected records and leaves a single cleared message.
func (a *Accumulator) Clear() {
	a.records = nil
	a.warnings = nil
	a.messages = []string{MessageCleared}
}

func (a *Accumulator) Records() []models.TourRecord {
	return append([]models.TourRecord(nil), a.records...)
}

func (a *Accumulator) Messages() []string {
	return append([]string(nil), a.messages...)
}

func (a *Accumulator) Warnings() []models.Warning {
	return append([]models.Warning(nil), a.warnings...)
}

// Message renders the message lines as one newline-separated block.
func (a *Accumulator) Message() string {
	return strings.Join(a.messages, "\n")
}

func (a *Accumulator) Status() string    { return a.status }
func (a *Accumulator) Progress() float64 { return a.progress }
func (a *Accumulator) Len() int          { return len(a.records) }
