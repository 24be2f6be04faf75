package source

import (
	"context"
	"net/http"
)

// Page is the raw markup of one fetched listing page.
type Page struct {
	Number int
	URL    string
	Markup []byte
}

// FetchPage fetches url with the adapter's fetcher and headers.
func FetchPage(ctx context.Context, opts Options, url string, number int) (Page, error) {
	headers := opts.Headers
	if headers == nil {
		headers = http.Header{}
	}
	body, err := opts.Fetcher.Fetch(ctx, url, headers)
	if err != nil {
		if !IsNetworkError(err) {
			err = &NetworkError{URL: url, Err: err}
		}
		return Page{}, err
	}
	return Page{Number: number, URL: url, Markup: body}, nil
}
