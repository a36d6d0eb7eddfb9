package importer

import "time"

// Phase import döngüsünün anlık durumu:
// idle → fetching → reconciling ⇄ notifying → sleeping → ...
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseReconciling Phase = "reconciling"
	PhaseNotifying   Phase = "notifying"
	PhaseSleeping    Phase = "sleeping"
)

type Status struct {
	Phase      Phase      `json:"phase"`
	RunID      string     `json:"run_id,omitempty"`
	Runs       int        `json:"runs"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	LastResult Result     `json:"last_result"`
}

// Status son döngünün kopyasını döner.
func (im *Importer) Status() Status {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.status
}

func (im *Importer) setPhase(p Phase) {
	im.mu.Lock()
	im.status.Phase = p
	im.mu.Unlock()
}

func (im *Importer) start() {
	now := time.Now().UTC()
	im.mu.Lock()
	im.status.RunID = newRunID()
	im.status.Runs++
	im.status.StartedAt = &now
	im.status.FinishedAt = nil
	im.mu.Unlock()
}

func (im *Importer) finish(res Result, err error) {
	now := time.Now().UTC()
	im.mu.Lock()
	defer im.mu.Unlock()
	im.status.Phase = PhaseIdle
	im.status.FinishedAt = &now
	im.status.LastResult = res
	im.status.LastError = ""
	if err != nil {
		im.status.LastError = err.Error()
	}
}
