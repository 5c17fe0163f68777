package deck

import (
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
)

func newFuncMap() template.FuncMap {
	fm := sprig.TxtFuncMap()

	extra := map[string]any{
		"whenName": arc.WhenName,
		"glob": func(value, pattern string) bool {
			ok, err := doublestar.Match(pattern, value)
			return err == nil && ok
		},
		"pinState": pinState,
	}

	for name, fn := range extra {
		fm[name] = fn
	}

	return fm
}

// pinState returns the vector character of pin, or "x" when the arc does
// not list it.
func pinState(a *arc.Info, pin string) string {
	for i, p := range a.Pins {
		if p == pin && i < len(a.Vector) {
			return a.Vector[i : i+1]
		}
	}
	return "x"
}
