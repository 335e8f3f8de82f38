package entity

// ElementRef is a handle into the live document. It is only valid for the
// page generation it was produced in; any navigation invalidates it.
type ElementRef struct {
	ID         string
	Generation uint64
}

func (r ElementRef) IsZero() bool {
	return r.ID == ""
}

type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

type ClickOptions struct {
	// Force skips the receives-events check and dispatches the click directly.
	Force bool
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

type Download struct {
	Name        string
	ContentType string
	Data        []byte
}
