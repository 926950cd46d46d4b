package models

// TagCatalog resolves tag ids and normalized tag names to catalog tags. One
// catalog is built per fetch and passed down to aggregation read-only.
type TagCatalog struct {
	byKey map[string]Tag
}

func NewTagCatalog() *TagCatalog {
	return &TagCatalog{byKey: make(map[string]Tag)}
}

func (c *TagCatalog) Put(key string, t Tag) {
	if key == "" {
		return
	}
	c.byKey[key] = t
}

func (c *TagCatalog) Get(key string) (Tag, bool) {
	if c == nil {
		return Tag{}, false
	}
	t, ok := c.byKey[key]
	return t, ok
}

func (c *TagCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byKey)
}
