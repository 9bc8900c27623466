package permissions

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

type decisionKey struct {
	doctype string
	op      Operation
}

// decisionCache memoizes doctype-level booleans. Field- and document-level
// results are never cached; they depend on a variable field or subject
// document.
type decisionCache struct {
	entries *lru.Cache[decisionKey, bool]
}

func newDecisionCache(size int) *decisionCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[decisionKey, bool](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &decisionCache{entries: entries}
}

func (c *decisionCache) get(doctype string, op Operation) (bool, bool) {
	return c.entries.Get(decisionKey{doctype: doctype, op: op})
}

func (c *decisionCache) set(doctype string, op Operation, allowed bool) {
	c.entries.Add(decisionKey{doctype: doctype, op: op}, allowed)
}

func (c *decisionCache) purge() {
	c.entries.Purge()
}

func (c *decisionCache) purgeDoctype(doctype string) {
	for _, key := range c.entries.Keys() {
		if key.doctype == doctype {
			c.entries.Remove(key)
		}
	}
}

func (c *decisionCache) len() int {
	return c.entries.Len()
}
