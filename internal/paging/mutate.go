// ABOUTME: Confirmed, guarded create/update/delete/bulk-delete for the paged controller
// ABOUTME: Validates locally first and refetches the current page after every success

package paging

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389/registrar/internal/confirm"
	"github.com/2389/registrar/internal/notify"
)

// Create validates item, sends it and refetches the current page.
func (c *Controller[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if err := c.desc.Validate(&item); err != nil {
		return zero, err
	}

	release, err := c.claim(c.desc.KeyOf(item))
	if err != nil {
		return zero, err
	}
	defer release()

	created, err := c.coll.Create(ctx, item)
	if err != nil {
		c.fail(ctx, err, err.Error())
		return zero, err
	}

	c.push(c.singularTitle()+" created successfully", notify.KindSuccess)
	c.refresh(ctx)
	return created, nil
}

// Update validates item and replaces the record stored under key. Changing
// the natural key asks for confirmation first; declining returns false.
// A key change claims both the old and the new key.
func (c *Controller[T]) Update(ctx context.Context, key string, item T) (T, bool, error) {
	var zero T
	if err := c.desc.Validate(&item); err != nil {
		return zero, false, err
	}

	newKey := c.desc.KeyOf(item)
	if newKey != key {
		keyName := c.singularTitle() + " " + c.desc.KeyLabel
		ok, err := c.ask(ctx, confirm.Params{
			Title:    "Update " + keyName,
			Message:  fmt.Sprintf("Are you sure you want to change the %s from %s to %s?", keyName, key, newKey),
			Severity: confirm.SeverityWarning,
		})
		if err != nil || !ok {
			return zero, false, err
		}
	}

	claimed := []string{key}
	if newKey != key {
		claimed = append(claimed, newKey)
	}
	release, err := c.claim(claimed...)
	if err != nil {
		return zero, false, err
	}
	defer release()

	updated, err := c.coll.Update(ctx, key, item)
	if err != nil {
		c.fail(ctx, err, err.Error())
		return zero, false, err
	}

	c.push(c.singularTitle()+" updated successfully", notify.KindSuccess)
	c.refresh(ctx)
	return updated, true, nil
}

// Delete removes the record under key after confirmation. It reports
// whether the delete was performed; declining is not an error.
func (c *Controller[T]) Delete(ctx context.Context, key string) (bool, error) {
	ok, err := c.ask(ctx, confirm.Params{
		Title:   "Delete " + c.singularTitle(),
		Message: c.desc.DeleteMessage,
	})
	if err != nil || !ok {
		return false, err
	}

	release, err := c.claim(key)
	if err != nil {
		return false, err
	}
	defer release()

	if err := c.coll.Delete(ctx, key); err != nil {
		c.fail(ctx, err, err.Error())
		return false, err
	}

	c.mu.Lock()
	delete(c.selection, key)
	c.mu.Unlock()

	c.push(c.singularTitle()+" deleted successfully", notify.KindSuccess)
	c.refresh(ctx)
	return true, nil
}

// BulkDelete removes every selected record after confirmation and clears
// the selection. An empty selection does nothing.
func (c *Controller[T]) BulkDelete(ctx context.Context) (bool, error) {
	keys := c.Selected()
	if len(keys) == 0 {
		return false, nil
	}

	ok, err := c.ask(ctx, confirm.Params{
		Title:   "Bulk Delete " + c.desc.Title,
		Message: c.desc.BulkDeleteMessage(len(keys)),
	})
	if err != nil || !ok {
		return false, err
	}

	release, err := c.claim(keys...)
	if err != nil {
		return false, err
	}
	defer release()

	if err := c.coll.BulkDelete(ctx, keys); err != nil {
		c.fail(ctx, err, err.Error())
		return false, err
	}

	c.ClearSelection()
	c.push(fmt.Sprintf("%d %s deleted successfully", len(keys), c.desc.Endpoint.Plural), notify.KindSuccess)
	c.refresh(ctx)
	return true, nil
}

// ask blocks on the confirmer. Without one, destructive actions are declined.
func (c *Controller[T]) ask(ctx context.Context, p confirm.Params) (bool, error) {
	if c.confirm == nil {
		c.logger.Debug("no confirmer configured, declining", "title", p.Title)
		return false, nil
	}
	return c.confirm.Request(ctx, p)
}

// claim marks keys as mutating. Either all keys are claimed or none are.
func (c *Controller[T]) claim(keys ...string) (func(), error) {
	if c.guard == nil {
		return func() {}, nil
	}

	claimed := make([]string, 0, len(keys))
	release := func() {
		for _, k := range claimed {
			c.guard.Release(k)
		}
	}
	for _, k := range keys {
		gk := c.desc.Endpoint.Path + "/" + k
		if !c.guard.TryAcquire(gk) {
			release()
			return nil, ErrBusy
		}
		claimed = append(claimed, gk)
	}
	return release, nil
}

// refresh refetches after a mutation. Fetch failures are already reported
// through the notifier.
func (c *Controller[T]) refresh(ctx context.Context) {
	if err := c.fetch(ctx); err != nil {
		c.logger.Debug("refresh after mutation failed", "error", err)
	}
}

func (c *Controller[T]) singularTitle() string {
	s := c.desc.Endpoint.Singular
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
