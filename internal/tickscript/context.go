package tickscript

import (
	"github.com/arijanluiken/tickscript/pkg/market"
)

// StudyInfo is the descriptive header of a script.
type StudyInfo struct {
	Title      string
	ShortTitle string
	Overlay    bool
}

// Context is the state of one evaluation run. It is created per run and
// never shared.
type Context struct {
	Bars      []market.Bar
	Params    map[string]Value
	Variables map[string]Value
	Series    map[string][]float64
	Study     StudyInfo
}

// NewContext prepares a fresh context for bars and caller parameters.
func NewContext(bars []market.Bar, params map[string]interface{}) (*Context, error) {
	ctx := &Context{
		Bars:      bars,
		Params:    make(map[string]Value, len(params)),
		Variables: make(map[string]Value),
		Series:    make(map[string][]float64),
	}

	for name, raw := range params {
		v, err := ValueOf(raw)
		if err != nil {
			if e, ok := err.(*Error); ok {
				e.Name = name
			}
			return nil, err
		}
		ctx.Params[name] = v
	}

	return ctx, nil
}

// SetVariable binds a scalar, replacing any series of the same name.
func (c *Context) SetVariable(name string, v Value) {
	delete(c.Series, name)
	c.Variables[name] = v
}

// SetSeries binds a series, replacing any scalar of the same name.
func (c *Context) SetSeries(name string, s []float64) {
	delete(c.Variables, name)
	c.Series[name] = s
}

// Lookup resolves name against scalars, series and then parameters.
func (c *Context) Lookup(name string) (Value, bool) {
	if v, ok := c.Variables[name]; ok {
		return v, true
	}
	if s, ok := c.Series[name]; ok {
		return SeriesValue(s), true
	}
	if v, ok := c.Params[name]; ok {
		return v, true
	}
	return Value{}, false
}

// Field projects one bar component across all bars.
func (c *Context) Field(field market.Field) ([]float64, error) {
	return market.Project(c.Bars, field)
}
