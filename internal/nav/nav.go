// Package nav models page navigation as an explicit effect. The client never
// navigates directly; it asks a Navigator to go somewhere, so tests can
// assert on the intent and the CLI can translate it into instructions.
package nav

import "sync"

// Page identifies a navigation target
type Page string

const (
	PageLogin     Page = "login"
	PageCourses   Page = "courses"
	PageMyCourses Page = "my-courses"
	PageSettings  Page = "settings"
)

// Navigator performs a full-page redirect to the given target
type Navigator interface {
	Navigate(target Page)
}

// Func adapts a function to the Navigator interface
type Func func(target Page)

// Navigate implements Navigator
func (f Func) Navigate(target Page) {
	f(target)
}

// Deduped wraps a navigator so that only the first redirect wins. Several
// in-flight requests can all hit a 401 and each trigger the forced-logout
// sequence; the session clear is idempotent but the user should only be sent
// to the login page once.
type Deduped struct {
	next Navigator
	once sync.Once
}

// Dedupe wraps a navigator with single-shot semantics
func Dedupe(next Navigator) *Deduped {
	return &Deduped{next: next}
}

// Navigate forwards the first call and drops the rest
func (d *Deduped) Navigate(target Page) {
	d.once.Do(func() {
		d.next.Navigate(target)
	})
}

// Recorder is a Navigator for tests: it records every target it receives
type Recorder struct {
	mu      sync.Mutex
	targets []Page
}

// Navigate records the target
func (r *Recorder) Navigate(target Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, target)
}

// Targets returns a copy of the recorded targets in order
func (r *Recorder) Targets() []Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Page, len(r.targets))
	copy(out, r.targets)
	return out
}
