// Package library scans a directory tree of preloaded documents organized
// by category and exposes it as a paginated, selectable catalog.
package library

import (
	"os"
	"path/filepath"
)

// Item is one selectable document within a category.
type Item struct {
	Filename string
	Index    int
	Path     string
}

// PageView is one rendered page of a category listing.
type PageView struct {
	Items      []Item
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Catalog is an immutable snapshot of the library directory. Rebuild with
// Scan whenever a fresh view is needed; there is no shared mutable cache.
type Catalog struct {
	root       string
	categories []string
	books      map[string][]string
}

// Scan walks the immediate subdirectories of root in lexicographic order.
// Files are filtered through isSupported; categories with zero valid files
// are omitted. A missing root is created and yields an empty catalog.
func Scan(root string, isSupported func(filename string) bool) (*Catalog, error) {
	catalog := &Catalog{root: root, books: make(map[string][]string)}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, err
		}
		return catalog, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		category := entry.Name()
		files, err := os.ReadDir(filepath.Join(root, category))
		if err != nil {
			continue
		}
		var books []string
		for _, file := range files {
			if !file.IsDir() && isSupported(file.Name()) {
				books = append(books, file.Name())
			}
		}
		if len(books) > 0 {
			catalog.categories = append(catalog.categories, category)
			catalog.books[category] = books
		}
	}
	return catalog, nil
}

// IsEmpty reports whether no category holds any valid document.
func (c *Catalog) IsEmpty() bool {
	return len(c.categories) == 0
}

// Categories returns category names in lexicographic order.
func (c *Catalog) Categories() []string {
	return c.categories
}

// Size returns the number of documents in a category.
func (c *Catalog) Size(category string) int {
	return len(c.books[category])
}

// Book resolves a category document by index, returning its on-disk path.
func (c *Catalog) Book(category string, index int) (Item, bool) {
	books, ok := c.books[category]
	if !ok || index < 0 || index >= len(books) {
		return Item{}, false
	}
	return Item{
		Filename: books[index],
		Index:    index,
		Path:     filepath.Join(c.root, category, books[index]),
	}, true
}

// Page returns the zero-based page of a category listing. A page beyond the
// last index yields an empty item slice; callers should navigate via the
// HasPrev/HasNext flags rather than trusting page arithmetic.
func (c *Catalog) Page(category string, page, pageSize int) PageView {
	books := c.books[category]
	total := len(books)
	if pageSize <= 0 || total == 0 {
		return PageView{Page: page}
	}

	view := PageView{
		Page:       page,
		TotalPages: (total + pageSize - 1) / pageSize,
		HasPrev:    page > 0,
		HasNext:    (page+1)*pageSize < total,
	}

	start := page * pageSize
	if start < 0 || start >= total {
		return view
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	for i := start; i < end; i++ {
		view.Items = append(view.Items, Item{
			Filename: books[i],
			Index:    i,
			Path:     filepath.Join(c.root, category, books[i]),
		})
	}
	return view
}
