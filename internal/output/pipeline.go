package output

// Pipeline records the failures in a group's output and renders it.
type Pipeline struct {
	tracker *ErrorTracker
	filters []Filter
}

// NewPipeline returns a pipeline feeding tracker and applying filters in order.
func NewPipeline(tracker *ErrorTracker, filters ...Filter) *Pipeline {
	return &Pipeline{tracker: tracker, filters: filters}
}

// DefaultPipeline strips modulePath, aligns results and colors them with f.
func DefaultPipeline(tracker *ErrorTracker, modulePath string, f Formatter) *Pipeline {
	return NewPipeline(tracker, StripModule(modulePath), AlignResults, Colorize(f))
}

// Process records the failures in raw and returns the rendered text. It
// returns the number of records added as well.
func (p *Pipeline) Process(group, target, raw string) (string, int) {
	records := ExtractErrors(group, target, raw)
	p.tracker.Record(records...)
	return Apply(raw, p.filters...), len(records)
}

// Tracker returns the tracker the pipeline records into.
func (p *Pipeline) Tracker() *ErrorTracker {
	return p.tracker
}
