package dataset

// Annotation is one labeled element of a tier: a time point, or an
// interval when EndTime > Time. Properties carries whatever the annotation
// editor attaches; the library preserves it verbatim across save and load
// without interpreting it.
type Annotation struct {
	Label      string            `yaml:"label"`
	Time       float64           `yaml:"time"`
	EndTime    float64           `yaml:"end_time,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// IsInterval reports whether the annotation spans a duration.
func (a Annotation) IsInterval() bool {
	return a.EndTime > a.Time
}

// Tier is a named ordered sequence of annotations.
type Tier struct {
	Name        string       `yaml:"name"`
	Annotations []Annotation `yaml:"annotations"`
}

// TierSet is the annotation-tier structure attached to a Recording or a
// Modality: tier name to annotation sequence, tier insertion order
// preserved for display.
type TierSet struct {
	order []string
	tiers map[string]*Tier
}

// NewTierSet creates an empty tier set.
func NewTierSet() *TierSet {
	return &TierSet{tiers: make(map[string]*Tier)}
}

// AddTier appends a new empty tier and returns it. An existing tier with
// the same name is returned instead.
func (ts *TierSet) AddTier(name string) *Tier {
	if tier, ok := ts.tiers[name]; ok {
		return tier
	}
	tier := &Tier{Name: name}
	ts.tiers[name] = tier
	ts.order = append(ts.order, name)
	return tier
}

// Tier looks a tier up by name.
func (ts *TierSet) Tier(name string) (*Tier, bool) {
	tier, ok := ts.tiers[name]
	return tier, ok
}

// Annotate appends annotations to the named tier, creating it if needed.
func (ts *TierSet) Annotate(tierName string, annotations ...Annotation) {
	tier := ts.AddTier(tierName)
	tier.Annotations = append(tier.Annotations, annotations...)
}

// Names returns tier names in insertion order.
func (ts *TierSet) Names() []string {
	out := make([]string, len(ts.order))
	copy(out, ts.order)
	return out
}

// Len reports the number of tiers.
func (ts *TierSet) Len() int {
	return len(ts.order)
}

// Tiers returns the tiers in insertion order, for serialization.
func (ts *TierSet) Tiers() []*Tier {
	out := make([]*Tier, 0, len(ts.order))
	for _, name := range ts.order {
		out = append(out, ts.tiers[name])
	}
	return out
}

// SetTiers replaces the content from a serialized tier sequence.
func (ts *TierSet) SetTiers(tiers []*Tier) {
	ts.order = ts.order[:0]
	ts.tiers = make(map[string]*Tier, len(tiers))
	for _, tier := range tiers {
		ts.tiers[tier.Name] = tier
		ts.order = append(ts.order, tier.Name)
	}
}
