package canon

import "strings"

// Path is a key path into a decoded document, e.g. "weather.tonight.summary".
type Path []string

// P splits a dot-separated key path.
func P(dotted string) Path {
	return Path(strings.Split(dotted, "."))
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Lookup walks doc along p through nested objects. The second result is false when any
// segment is missing or an intermediate value is not an object.
func Lookup(doc any, p Path) (any, bool) {
	cur := doc
	for _, key := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Chain is an ordered list of candidate source paths for one canonical field.
// Earlier paths win.
type Chain []Path

// C builds a Chain from dot-separated paths.
func C(paths ...string) Chain {
	c := make(Chain, 0, len(paths))
	for _, p := range paths {
		c = append(c, P(p))
	}
	return c
}

// Scalar returns the first value along the chain that is present, not null, not an
// object or array, and not a blank string.
func (c Chain) Scalar(doc any) (any, bool) {
	for _, p := range c {
		v, ok := Lookup(doc, p)
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case map[string]any, []any:
			continue
		case string:
			if strings.TrimSpace(x) == "" {
				continue
			}
		}
		return v, true
	}
	return nil, false
}

// Any returns the first value along the chain that is present and not null, of any kind.
func (c Chain) Any(doc any) (any, bool) {
	for _, p := range c {
		if v, ok := Lookup(doc, p); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func hasObject(doc any, dotted string) bool {
	v, ok := Lookup(doc, P(dotted))
	if !ok {
		return false
	}
	_, isMap := v.(map[string]any)
	return isMap
}

func hasAny(doc any, dotted ...string) bool {
	for _, d := range dotted {
		if v, ok := Lookup(doc, P(d)); ok && v != nil {
			return true
		}
	}
	return false
}

// hasKey reports whether the path exists, even when its value is null.
func hasKey(doc any, dotted string) bool {
	_, ok := Lookup(doc, P(dotted))
	return ok
}

func hasString(doc any, dotted string) bool {
	v, ok := Lookup(doc, P(dotted))
	if !ok {
		return false
	}
	_, isString := v.(string)
	return isString
}

func hasArray(doc any, dotted string) bool {
	v, ok := Lookup(doc, P(dotted))
	if !ok {
		return false
	}
	_, isArray := v.([]any)
	return isArray
}

func (c Chain) has(p Path) bool {
	for _, q := range c {
		if q.String() == p.String() {
			return true
		}
	}
	return false
}
