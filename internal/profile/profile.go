package profile

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/runtime"
)

var (
	// ErrNotFound is returned when no stored profile has the requested ID.
	ErrNotFound = errors.New("L151")
)

// Profile is the record of one run.
type Profile struct {
	ID         string                     `json:"id"`
	Scenario   string                     `json:"scenario"`
	Started    time.Time                  `json:"started"`
	Ended      time.Time                  `json:"ended"`
	Frames     int                        `json:"frames"`
	Commits    []Commit                   `json:"commits"`
	Components map[string]*ComponentStats `json:"components"`
	Drops      map[string]int             `json:"drops,omitempty"`
	Errors     []ErrorRecord              `json:"errors,omitempty"`
}

// Commit is one completed root fiber.
type Commit struct {
	Component string        `json:"component"`
	NodeID    uint64        `json:"node"`
	Mount     bool          `json:"mount"`
	Start     time.Time     `json:"start"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// ComponentStats aggregates the renders of one component.
type ComponentStats struct {
	Renders    int           `json:"renders"`
	DeepRender int           `json:"deepRenders"`
	Errors     int           `json:"errors"`
	Total      time.Duration `json:"total"`
	Max        time.Duration `json:"max"`
}

// Mean returns the mean render duration.
func (s *ComponentStats) Mean() time.Duration {
	if s.Renders == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Renders)
}

// ErrorRecord is one error raised in a component.
type ErrorRecord struct {
	Component string `json:"component"`
	Error     string `json:"error"`
	Handled   bool   `json:"handled"`
}

// Renders returns the total number of render invocations.
func (p *Profile) Renders() int {
	n := 0
	for _, s := range p.Components {
		n += s.Renders
	}
	return n
}

// ComponentNames returns the profiled components sorted by total render
// time, slowest first.
func (p *Profile) ComponentNames() []string {
	names := make([]string, 0, len(p.Components))
	for name := range p.Components {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := p.Components[names[i]], p.Components[names[j]]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return names[i] < names[j]
	})
	return names
}

// Recorder is a runtime.Observer that builds a Profile.
type Recorder struct {
	mu      sync.Mutex
	profile *Profile
	now     func() time.Time
}

var _ runtime.Observer = (*Recorder)(nil)

// NewRecorder starts a profile for the named scenario.
func NewRecorder(scenario string) *Recorder {
	r := &Recorder{now: time.Now}
	r.profile = &Profile{
		ID:         uuid.NewString(),
		Scenario:   scenario,
		Started:    r.now(),
		Components: make(map[string]*ComponentStats),
		Drops:      make(map[string]int),
	}
	return r
}

// ID returns the ID of the profile being recorded.
func (r *Recorder) ID() string {
	return r.profile.ID
}

// Finish stamps the end time and returns the profile. Events observed
// afterwards are still recorded into the same profile.
func (r *Recorder) Finish() *Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile.Ended = r.now()
	return r.profile
}

// FiberRendered implements runtime.Observer.
func (r *Recorder) FiberRendered(info runtime.RenderInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats(info.Component)
	s.Renders++
	if info.Deep {
		s.DeepRender++
	}
	if info.Err != nil {
		s.Errors++
	}
	s.Total += info.Duration
	if info.Duration > s.Max {
		s.Max = info.Duration
	}
}

// RootCompleted implements runtime.Observer.
func (r *Recorder) RootCompleted(info runtime.CommitInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := Commit{
		Component: info.Component,
		NodeID:    info.NodeID,
		Mount:     info.Mount,
		Start:     info.Start,
		Duration:  info.Duration,
	}
	if info.Err != nil {
		c.Error = info.Err.Error()
	}
	r.profile.Commits = append(r.profile.Commits, c)
}

// RootDropped implements runtime.Observer.
func (r *Recorder) RootDropped(_ string, reason runtime.DropReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile.Drops[reason.String()]++
}

// ErrorRaised implements runtime.Observer.
func (r *Recorder) ErrorRaised(component string, err error, handled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile.Errors = append(r.profile.Errors, ErrorRecord{
		Component: component,
		Error:     err.Error(),
		Handled:   handled,
	})
}

// Flushed implements runtime.Observer.
func (r *Recorder) Flushed(int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile.Frames++
}

func (r *Recorder) stats(component string) *ComponentStats {
	s, ok := r.profile.Components[component]
	if !ok {
		s = &ComponentStats{}
		r.profile.Components[component] = s
	}
	return s
}

// validID rejects anything that is not a profile ID, so IDs can be used
// as file names and object keys.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
