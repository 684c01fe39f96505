package itinerary

// DateRange is a trip's start and end date
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// DateConflict describes a disagreement between confirmed and newly derived
// dates
type DateConflict struct {
	Old   DateRange `json:"old"`
	New   DateRange `json:"new"`
	Start bool      `json:"start"`
	End   bool      `json:"end"`
}

// ConflictResolver decides whether newly derived dates may replace the
// confirmed ones
type ConflictResolver interface {
	ResolveDateConflict(old, new DateRange) bool
}

// ResolverFunc adapts a function to ConflictResolver
type ResolverFunc func(old, new DateRange) bool

func (f ResolverFunc) ResolveDateConflict(old, new DateRange) bool {
	return f(old, new)
}

var (
	// AcceptAll applies every new date
	AcceptAll = ResolverFunc(func(DateRange, DateRange) bool { return true })
	// DeclineAll keeps every confirmed date
	DeclineAll = ResolverFunc(func(DateRange, DateRange) bool { return false })
)

// DetectDateConflict reports whether old and new disagree. A field only
// conflicts when both sides are set and differ after normalization.
func DetectDateConflict(old, new DateRange) (DateConflict, bool) {
	c := DateConflict{
		Old: DateRange{StartDate: NormalizeDate(old.StartDate), EndDate: NormalizeDate(old.EndDate)},
		New: DateRange{StartDate: NormalizeDate(new.StartDate), EndDate: NormalizeDate(new.EndDate)},
	}
	c.Start = differs(c.Old.StartDate, c.New.StartDate)
	c.End = differs(c.Old.EndDate, c.New.EndDate)
	return c, c.Start || c.End
}

func differs(a, b string) bool {
	return a != "" && b != "" && a != b
}

// resolveDates gates the date fields of working against base. Declined or
// unresolved conflicts restore the confirmed value of each conflicting field.
func resolveDates(base, working Itinerary, resolver ConflictResolver) (Itinerary, *DateConflict, bool) {
	c, ok := DetectDateConflict(
		DateRange{StartDate: base.StartDate, EndDate: base.EndDate},
		DateRange{StartDate: working.StartDate, EndDate: working.EndDate},
	)
	if !ok {
		return working, nil, false
	}

	accepted := resolver != nil && resolver.ResolveDateConflict(c.Old, c.New)
	if !accepted {
		if c.Start {
			working.StartDate = base.StartDate
		}
		if c.End {
			working.EndDate = base.EndDate
		}
	}
	return working, &c, accepted
}
