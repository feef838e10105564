package tablespec

import (
	"net/url"
	"strconv"
)

// Row is one rendered row, keyed by column name.
type Row map[string]any

// Link is one entry of the length aware paginator's navigation.
type Link struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// LengthAwarePage is the page shape of offset pagination.
type LengthAwarePage struct {
	CurrentPage  int     `json:"current_page"`
	Data         []Row   `json:"data"`
	FirstPageURL string  `json:"first_page_url"`
	From         *int    `json:"from"`
	LastPage     int     `json:"last_page"`
	LastPageURL  string  `json:"last_page_url"`
	Links        []Link  `json:"links"`
	NextPageURL  *string `json:"next_page_url"`
	Path         string  `json:"path"`
	PerPage      int     `json:"per_page"`
	PrevPageURL  *string `json:"prev_page_url"`
	To           *int    `json:"to"`
	Total        int     `json:"total"`
}

// SimplePage is the page shape of simple pagination; it has no total.
type SimplePage struct {
	CurrentPage  int     `json:"current_page"`
	Data         []Row   `json:"data"`
	FirstPageURL string  `json:"first_page_url"`
	From         *int    `json:"from"`
	NextPageURL  *string `json:"next_page_url"`
	Path         string  `json:"path"`
	PerPage      int     `json:"per_page"`
	PrevPageURL  *string `json:"prev_page_url"`
	To           *int    `json:"to"`
}

// CursorPage is the page shape of cursor pagination.
type CursorPage struct {
	Data        []Row   `json:"data"`
	Path        string  `json:"path"`
	PerPage     int     `json:"per_page"`
	NextCursor  *string `json:"next_cursor"`
	NextPageURL *string `json:"next_page_url"`
	PrevCursor  *string `json:"prev_cursor"`
	PrevPageURL *string `json:"prev_page_url"`
}

// pager builds page URLs that keep the inbound query string.
type pager struct {
	path      string
	params    url.Values
	pageParam string
}

func (p pager) url(page string) string {
	values := url.Values{}
	for k, v := range p.params {
		values[k] = append([]string(nil), v...)
	}
	values.Set(p.pageParam, page)
	return p.path + "?" + values.Encode()
}

func (p pager) pageURL(page int) string {
	return p.url(strconv.Itoa(page))
}

func (p pager) pageURLPtr(page int) *string {
	u := p.pageURL(page)
	return &u
}

// rangeBounds returns the 1-based from/to of a page, nil when it is empty.
func rangeBounds(offset, count int) (from, to *int) {
	if count == 0 {
		return nil, nil
	}
	f, t := offset+1, offset+count
	return &f, &t
}

const linkWindow = 3

// pageLinks builds previous, numbered and next links. Long page lists keep
// the first and last two pages plus a window around the current one, with
// "..." gaps in between.
func (p pager) pageLinks(current, last int) []Link {
	links := []Link{{Label: "&laquo; Previous"}}
	if current > 1 {
		links[0].URL = p.pageURLPtr(current - 1)
	}

	add := func(page int) {
		links = append(links, Link{URL: p.pageURLPtr(page), Label: strconv.Itoa(page), Active: page == current})
	}
	gap := func() { links = append(links, Link{Label: "..."}) }

	if last <= linkWindow*2+4 {
		for i := 1; i <= last; i++ {
			add(i)
		}
	} else {
		start, end := current-linkWindow, current+linkWindow
		if start < 1 {
			start = 1
		}
		if end > last {
			end = last
		}
		for i := 1; i <= 2 && i < start; i++ {
			add(i)
		}
		if start > 3 {
			gap()
		}
		for i := start; i <= end; i++ {
			add(i)
		}
		if end < last-2 {
			gap()
		}
		for i := last - 1; i <= last; i++ {
			if i > end {
				add(i)
			}
		}
	}

	next := Link{Label: "Next &raquo;"}
	if current < last {
		next.URL = p.pageURLPtr(current + 1)
	}
	return append(links, next)
}

// parsePage reads a positive page number, 1 otherwise.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
