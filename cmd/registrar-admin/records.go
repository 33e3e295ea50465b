// ABOUTME: list/create/update/delete/bulk-delete/export for colleges, programs and students
// ABOUTME: One generic implementation driven by each collection's descriptor

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/export"
	"github.com/2389/registrar/internal/paging"
	"github.com/2389/registrar/internal/resource"
	"github.com/2389/registrar/internal/storage"
)

// listFlags are accepted by every subcommand that reads a page.
var listFlags = []string{"search", "sort", "page", "per_page"}

// recordCommands binds one collection to the CLI.
type recordCommands[T any] struct {
	desc *resource.Descriptor[T]
	coll *api.Resource[T]
	// fields are the writable flags, applied by set.
	fields []string
	set    func(fs flagSet, item *T) error
	// prepare runs after set and before the record is sent.
	prepare func(ctx context.Context, fs flagSet, item *T) error
}

func collegeCommands(a *app) recordCommands[resource.College] {
	return recordCommands[resource.College]{
		desc:   resource.Colleges,
		coll:   api.NewResource[resource.College](a.client, resource.Colleges.Endpoint),
		fields: []string{"code", "name"},
		set: func(fs flagSet, c *resource.College) error {
			setString(fs, "code", &c.Code)
			setString(fs, "name", &c.Name)
			return nil
		},
	}
}

func programCommands(a *app) recordCommands[resource.Program] {
	return recordCommands[resource.Program]{
		desc:   resource.Programs,
		coll:   api.NewResource[resource.Program](a.client, resource.Programs.Endpoint),
		fields: []string{"code", "name", "college", "college_code"},
		set: func(fs flagSet, p *resource.Program) error {
			setString(fs, "code", &p.Code)
			setString(fs, "name", &p.Name)
			setString(fs, "college", &p.CollegeCode)
			setString(fs, "college_code", &p.CollegeCode)
			return nil
		},
	}
}

func studentCommands(a *app) recordCommands[resource.Student] {
	return recordCommands[resource.Student]{
		desc: resource.Students,
		coll: api.NewResource[resource.Student](a.client, resource.Students.Endpoint),
		fields: []string{
			"id", "first_name", "last_name", "year_level", "year",
			"gender", "program", "program_code", "photo",
		},
		set: func(fs flagSet, s *resource.Student) error {
			setString(fs, "id", &s.ID)
			setString(fs, "first_name", &s.FirstName)
			setString(fs, "last_name", &s.LastName)
			setString(fs, "gender", &s.Gender)
			setString(fs, "program", &s.ProgramCode)
			setString(fs, "program_code", &s.ProgramCode)
			for _, name := range []string{"year", "year_level"} {
				n, err := fs.intValue(name, s.YearLevel)
				if err != nil {
					return err
				}
				s.YearLevel = n
			}
			return nil
		},
		prepare: func(ctx context.Context, fs flagSet, s *resource.Student) error {
			path := fs.get("photo")
			if path == "" {
				return nil
			}
			return attachPhoto(ctx, a, s, path)
		},
	}
}

func setString(fs flagSet, name string, dst *string) {
	if fs.has(name) {
		*dst = fs.get(name)
	}
}

// attachPhoto uploads the image at path to Cloudinary and records its URL.
func attachPhoto(ctx context.Context, a *app, s *resource.Student, path string) error {
	cld := a.cfg.Storage.Cloudinary
	up, err := storage.NewCloudinary(storage.CloudinaryConfig{
		CloudName: cld.CloudName,
		APIKey:    cld.APIKey,
		APISecret: cld.APISecret,
		Folder:    cld.Folder,
	}, a.logger)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening photo: %w", err)
	}
	defer f.Close()

	return s.AttachPhoto(ctx, up, f, filepath.Base(path))
}

func (rc recordCommands[T]) controller(a *app) *paging.Controller[T] {
	return paging.New(rc.desc, rc.coll, paging.Options{
		PageSize:  a.cfg.Paging.PageSize,
		Confirmer: a.confirms,
		Notifier:  a.notes,
		Guard:     a.guard,
		Logouter:  a.session,
		Logger:    a.logger,
	})
}

func runRecords[T any](ctx context.Context, a *app, rc recordCommands[T], args []string) error {
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}

	subcmd := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		subcmd = args[0]
		args = args[1:]
	}
	fs := parseFlags(args, map[string]string{"-o": "output", "-s": "search"})
	ctl := rc.controller(a)

	switch subcmd {
	case "list", "ls":
		return rc.list(ctx, a, ctl, fs)
	case "create", "add":
		return rc.create(ctx, ctl, fs)
	case "update", "edit":
		return rc.update(ctx, ctl, fs)
	case "delete", "rm", "remove":
		return rc.delete(ctx, ctl, fs)
	case "bulk-delete":
		return rc.bulkDelete(ctx, a, ctl, fs)
	case "export":
		return rc.export(ctx, ctl, fs)
	default:
		return fmt.Errorf("unknown %s subcommand: %s (use list, create, update, delete, bulk-delete, export)",
			rc.desc.Endpoint.Plural, subcmd)
	}
}

// queryFromFlags builds a list query. --sort takes key or key:desc.
func (rc recordCommands[T]) queryFromFlags(fs flagSet, defaultPageSize int) (api.Query, error) {
	if err := fs.unknown(append(append([]string{"output"}, listFlags...), rc.desc.FilterKeys...)...); err != nil {
		return api.Query{}, err
	}

	q := api.Query{Search: fs.get("search"), Filters: map[string]string{}}

	var err error
	if q.Page, err = fs.intValue("page", 1); err != nil {
		return api.Query{}, err
	}
	if q.PageSize, err = fs.intValue("per_page", defaultPageSize); err != nil {
		return api.Query{}, err
	}

	if s := fs.get("sort"); s != "" {
		key, dir, _ := strings.Cut(s, ":")
		sort := api.Sort{Key: key, Direction: api.SortAsc}
		if strings.EqualFold(dir, "desc") {
			sort.Direction = api.SortDesc
		}
		q.Sort = &sort
	}

	for _, key := range rc.desc.FilterKeys {
		if v := fs.get(key); v != "" {
			q.Filters[key] = v
		}
	}
	return q, nil
}

func (rc recordCommands[T]) list(ctx context.Context, a *app, ctl *paging.Controller[T], fs flagSet) error {
	q, err := rc.queryFromFlags(fs, a.cfg.Paging.PageSize)
	if err != nil {
		return err
	}
	if err := ctl.Apply(ctx, q); err != nil {
		return err
	}
	printPage(rc.desc, ctl.Snapshot())
	return nil
}

// printPage renders the current page as a table with a paging footer.
func printPage[T any](desc *resource.Descriptor[T], st paging.State[T]) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	fmt.Println()
	cyan.Printf("  %s\n", desc.Title)
	cyan.Printf("  %s\n", strings.Repeat("-", len(desc.Title)))

	if len(st.Items) == 0 {
		fmt.Printf("  (no %s)\n\n", desc.Endpoint.Plural)
		return
	}

	selected := make(map[string]bool, len(st.Selected))
	for _, k := range st.Selected {
		selected[k] = true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "    %s\n", strings.Join(desc.Columns, "\t"))
	for _, item := range st.Items {
		mark := "  "
		if selected[desc.KeyOf(item)] {
			mark = "* "
		}
		row := desc.Row(item)
		for i, cell := range row {
			row[i] = truncate(cell, 40)
		}
		fmt.Fprintf(w, "  %s%s\n", mark, strings.Join(row, "\t"))
	}
	w.Flush()

	footer := fmt.Sprintf("  Page %d of %d (%d %s)", st.Query.Page, max(st.TotalPages, 1), st.TotalItems, desc.Endpoint.Plural)
	if st.Query.Sort != nil {
		footer += fmt.Sprintf("  sorted by %s %s", st.Query.Sort.Key, st.Query.Sort.Direction)
	}
	if st.Query.Search != "" {
		footer += fmt.Sprintf("  search %q", st.Query.Search)
	}
	for _, k := range desc.FilterKeys {
		if v := st.Query.Filters[k]; v != "" {
			footer += fmt.Sprintf("  %s=%s", k, v)
		}
	}
	fmt.Println()
	gray.Println(footer)
	fmt.Println()
}

func (rc recordCommands[T]) create(ctx context.Context, ctl *paging.Controller[T], fs flagSet) error {
	if err := fs.unknown(rc.fields...); err != nil {
		return err
	}

	var item T
	if err := rc.set(fs, &item); err != nil {
		return err
	}
	// Surface field errors before any upload happens
	if err := rc.desc.Validate(&item); err != nil {
		return err
	}
	if rc.prepare != nil {
		if err := rc.prepare(ctx, fs, &item); err != nil {
			return err
		}
	}

	created, err := ctl.Create(ctx, item)
	if err != nil {
		return err
	}
	printRecord(rc.desc, created)
	return nil
}

func (rc recordCommands[T]) update(ctx context.Context, ctl *paging.Controller[T], fs flagSet) error {
	if len(fs.positional) < 1 {
		return fmt.Errorf("usage: %s update <%s> --field value ...", rc.desc.Endpoint.Plural, strings.ToLower(rc.desc.KeyLabel))
	}
	if err := fs.unknown(rc.fields...); err != nil {
		return err
	}
	key := strings.ToUpper(strings.TrimSpace(fs.positional[0]))

	item, err := rc.find(ctx, key)
	if err != nil {
		return err
	}
	if err := rc.set(fs, &item); err != nil {
		return err
	}
	if err := rc.desc.Validate(&item); err != nil {
		return err
	}
	if rc.prepare != nil {
		if err := rc.prepare(ctx, fs, &item); err != nil {
			return err
		}
	}

	updated, ok, err := ctl.Update(ctx, key, item)
	if err != nil {
		return err
	}
	if !ok {
		color.Yellow("Update cancelled")
		return nil
	}
	printRecord(rc.desc, updated)
	return nil
}

// find loads the record stored under key so an update only needs the
// changed fields. The list endpoint searches the key column.
func (rc recordCommands[T]) find(ctx context.Context, key string) (T, error) {
	var zero T
	page, err := rc.coll.List(ctx, api.Query{Search: key, Page: 1, PageSize: export.BatchSize})
	if err != nil {
		return zero, err
	}
	for _, item := range page.Items {
		if rc.desc.KeyOf(item) == key {
			return item, nil
		}
	}
	return zero, fmt.Errorf("%s %s not found", strings.ToLower(rc.desc.Endpoint.Singular), key)
}

func (rc recordCommands[T]) delete(ctx context.Context, ctl *paging.Controller[T], fs flagSet) error {
	if len(fs.positional) < 1 {
		return fmt.Errorf("usage: %s delete <%s>", rc.desc.Endpoint.Plural, strings.ToLower(rc.desc.KeyLabel))
	}
	key := strings.ToUpper(strings.TrimSpace(fs.positional[0]))

	ok, err := ctl.Delete(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		color.Yellow("Delete cancelled")
	}
	return nil
}

// bulkDelete selects keys on one page and deletes them. Without keys it
// selects the whole page described by the list flags.
func (rc recordCommands[T]) bulkDelete(ctx context.Context, a *app, ctl *paging.Controller[T], fs flagSet) error {
	q, err := rc.queryFromFlags(fs, export.BatchSize)
	if err != nil {
		return err
	}
	if err := ctl.Apply(ctx, q); err != nil {
		return err
	}

	if len(fs.positional) == 0 {
		ctl.SelectAllVisible()
	} else {
		var missing []string
		for _, k := range fs.positional {
			key := strings.ToUpper(strings.TrimSpace(k))
			if ctl.IsSelected(key) {
				continue
			}
			if !ctl.Toggle(key) {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("not on the current page: %s (narrow the page with --search)", strings.Join(missing, ", "))
		}
	}

	if len(ctl.Selected()) == 0 {
		fmt.Printf("No %s selected\n", rc.desc.Endpoint.Plural)
		return nil
	}
	if !a.assumeYes {
		printPage(rc.desc, ctl.Snapshot())
	}

	ok, err := ctl.BulkDelete(ctx)
	if err != nil {
		return err
	}
	if !ok {
		color.Yellow("Delete cancelled")
	}
	return nil
}

func (rc recordCommands[T]) export(ctx context.Context, ctl *paging.Controller[T], fs flagSet) error {
	q, err := rc.queryFromFlags(fs, export.BatchSize)
	if err != nil {
		return err
	}
	// Validates sort and filters the same way list does
	if err := ctl.Apply(ctx, q); err != nil {
		return err
	}

	rows, err := export.Collect[T](ctx, rc.coll, ctl.Snapshot().Query)
	if err != nil {
		return err
	}

	path := fs.get("output")
	if path == "" {
		path = export.Filename(rc.desc, time.Now())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.WriteXLSX(f, rc.desc, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	color.New(color.FgGreen).Printf("✓ Exported %d %s to %s\n", len(rows), rc.desc.Endpoint.Plural, path)
	return nil
}

// printRecord shows one record as label/value pairs.
func printRecord[T any](desc *resource.Descriptor[T], item T) {
	row := desc.Row(item)
	for i, col := range desc.Columns {
		if i < len(row) {
			fmt.Printf("  %-10s %s\n", col+":", row[i])
		}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
