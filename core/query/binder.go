package query

import "strconv"

// Binder collects statement parameters and hands out dialect placeholders
// in bind order.
type Binder struct {
	placeholder func(n int) string
	quote       func(ident string) string
	params      []Param
}

// NewBinder returns a Binder that numbers parameters from 1 using the
// dialect's placeholder style.
func NewBinder(d Dialect) *Binder {
	return &Binder{placeholder: d.Placeholder, quote: d.Quote}
}

// Quote quotes ident the way the binder's dialect does.
func (b *Binder) Quote(ident string) string {
	return b.quote(ident)
}

// Bind records v and returns its placeholder.
func (b *Binder) Bind(v any) string {
	b.params = append(b.params, Param{Name: "p" + strconv.Itoa(len(b.params)+1), Value: v})
	return b.placeholder(len(b.params))
}

// Len returns the number of bound parameters.
func (b *Binder) Len() int {
	return len(b.params)
}

// Params returns the bound parameters.
func (b *Binder) Params() []Param {
	return b.params
}
