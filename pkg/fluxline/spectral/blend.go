package spectral

// BlendState tracks whether the most recent window is still open for merging.
type BlendState int

const (
	// Standalone means the last window holds a single reference line.
	Standalone BlendState = iota
	// MergedOpen means the last window already absorbed its predecessor and
	// keeps its left bound if the next line overlaps too.
	MergedOpen
)

func (s BlendState) String() string {
	if s == MergedOpen {
		return "merged-open"
	}
	return "standalone"
}

// Window is the wavelength interval a line (or blend of lines) is fit over.
// Bounds are exclusive.
type Window struct {
	Line     ReferenceLine // most recent member; names the entry
	Members  []ReferenceLine
	Observed float64
	Lower    float64
	Upper    float64
	Blended  bool
}

// WindowParams configure the window fold.
type WindowParams struct {
	FluxRange   float64 // half-width around an observed wavelength, Å
	BlendFactor float64 // lines closer than BlendFactor*FluxRange are merged
	LowerCutoff float64 // rest wavelengths at or below this are skipped
}

// WindowBuilder folds an ordered line list into fit windows. Entries are only
// ever appended or replaced as a whole by MergeWithLast; an earlier window is
// never edited in place.
type WindowBuilder struct {
	params       WindowParams
	windows      []Window
	state        BlendState
	prevObserved float64
	leftBound    float64
	started      bool
}

func NewWindowBuilder(p WindowParams) *WindowBuilder {
	return &WindowBuilder{params: p}
}

// Overlaps reports whether a line observed at obs would overlap the window of
// the previous line. The first line never overlaps.
func (b *WindowBuilder) Overlaps(obs float64) bool {
	if !b.started {
		return false
	}
	return obs-b.prevObserved <= b.params.BlendFactor*b.params.FluxRange
}

// Add consumes the next reference line at its observed wavelength.
func (b *WindowBuilder) Add(line ReferenceLine, obs float64) {
	fr := b.params.FluxRange

	switch {
	case b.Overlaps(obs) && b.state == MergedOpen:
		b.MergeWithLast(line, obs, b.leftBound, obs+fr)
	case b.Overlaps(obs):
		b.leftBound = b.prevObserved - fr
		b.MergeWithLast(line, obs, b.leftBound, obs+fr)
		b.state = MergedOpen
	default:
		b.windows = append(b.windows, Window{
			Line:     line,
			Members:  []ReferenceLine{line},
			Observed: obs,
			Lower:    obs - fr,
			Upper:    obs + fr,
		})
		b.state = Standalone
	}

	b.prevObserved = obs
	b.started = true
}

// MergeWithLast replaces the last window with one spanning (lower, upper) that
// also contains line.
func (b *WindowBuilder) MergeWithLast(line ReferenceLine, obs, lower, upper float64) {
	last := len(b.windows) - 1
	if last < 0 {
		b.windows = append(b.windows, Window{
			Line: line, Members: []ReferenceLine{line}, Observed: obs, Lower: lower, Upper: upper,
		})
		return
	}

	prev := b.windows[last]
	members := make([]ReferenceLine, 0, len(prev.Members)+1)
	members = append(members, prev.Members...)
	members = append(members, line)

	b.windows[last] = Window{
		Line:     line,
		Members:  members,
		Observed: obs,
		Lower:    lower,
		Upper:    upper,
		Blended:  true,
	}
}

// State is the blend state after the last Add.
func (b *WindowBuilder) State() BlendState {
	return b.state
}

// Windows returns a copy of the windows built so far.
func (b *WindowBuilder) Windows() []Window {
	out := make([]Window, len(b.windows))
	copy(out, b.windows)
	return out
}

// BuildWindows folds the reference list, in the given order, into fit windows
// for a star moving at velocity km/s.
func BuildWindows(lines []ReferenceLine, velocity float64, p WindowParams) []Window {
	b := NewWindowBuilder(p)
	for _, line := range lines {
		if line.Wavelength <= p.LowerCutoff {
			continue
		}
		b.Add(line, Shift(line.Wavelength, velocity))
	}
	return b.Windows()
}
