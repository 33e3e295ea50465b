// ABOUTME: Row selection for the paged controller
// ABOUTME: Selection only ever holds keys present on the current page

package paging

import (
	"slices"
)

// Toggle flips membership of key. Keys not on the current page are ignored.
func (c *Controller[T]) Toggle(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.selection[key]; ok {
		delete(c.selection, key)
		return false
	}
	if !c.visibleLocked(key) {
		return false
	}
	c.selection[key] = struct{}{}
	return true
}

// SelectAllVisible selects exactly the current page, or clears the
// selection if the whole page is already selected.
func (c *Controller[T]) SelectAllVisible() {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.visibleKeysLocked()
	all := len(keys) > 0
	for _, k := range keys {
		if _, ok := c.selection[k]; !ok {
			all = false
			break
		}
	}

	c.selection = make(map[string]struct{}, len(keys))
	if all {
		return
	}
	for _, k := range keys {
		c.selection[k] = struct{}{}
	}
}

// ClearSelection empties the selection.
func (c *Controller[T]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = make(map[string]struct{})
}

// IsSelected reports whether key is selected.
func (c *Controller[T]) IsSelected(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selection[key]
	return ok
}

// Selected returns the selected keys in page order.
func (c *Controller[T]) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *Controller[T]) selectedLocked() []string {
	out := make([]string, 0, len(c.selection))
	for _, k := range c.visibleKeysLocked() {
		if _, ok := c.selection[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func (c *Controller[T]) visibleKeysLocked() []string {
	keys := make([]string, 0, len(c.result.Items))
	for _, item := range c.result.Items {
		keys = append(keys, c.desc.KeyOf(item))
	}
	return keys
}

func (c *Controller[T]) visibleLocked(key string) bool {
	return slices.Contains(c.visibleKeysLocked(), key)
}

// pruneSelectionLocked drops selected keys that left the page.
func (c *Controller[T]) pruneSelectionLocked() {
	visible := c.visibleKeysLocked()
	for k := range c.selection {
		if !slices.Contains(visible, k) {
			delete(c.selection, k)
		}
	}
}
