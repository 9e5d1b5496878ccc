package extract

// Card is a snapshot of one rendered item container, taken by a Surface at
// scan time. Extraction never goes back to the live page.
type Card struct {
	// Tag is the lower-cased element name.
	Tag string `json:"tag"`

	// Attrs holds the container's own attributes.
	Attrs map[string]string `json:"attrs"`

	// HasShadow is false when the container exposes no shadow root, which
	// usually means the custom element has not been upgraded yet.
	HasShadow bool `json:"shadow"`

	// ShadowHTML is the serialized content of the shadow root.
	ShadowHTML string `json:"html"`
}

// Attr returns the named attribute and whether it is present.
func (c Card) Attr(name string) (string, bool) {
	v, ok := c.Attrs[name]
	return v, ok
}

// shape is the variant of markup a card was rendered with.
type shape int

const (
	// shapeNested keeps everything inside the shadow tree: an <a> with
	// href/title and an activity label element.
	shapeNested shape = iota

	// shapeAttrs carries path, title and type directly on the container.
	shapeAttrs
)

func (s shape) String() string {
	switch s {
	case shapeAttrs:
		return "attrs"
	default:
		return "nested"
	}
}

// probe picks the shape by testing for the path attribute.
func probe(c Card) shape {
	if _, ok := c.Attr("path"); ok {
		return shapeAttrs
	}
	return shapeNested
}
