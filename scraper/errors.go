package scraper

import (
	"errors"
	"fmt"
)

// FetchError indicates the HTTP retrieval of a page failed, collapsing
// network errors and non-success statuses into one kind.
type FetchError struct {
	URL string
	Err error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e FetchError) Unwrap() error {
	return e.Err
}

// ParseError indicates a page body could not be parsed as HTML.
type ParseError struct {
	URL string
	Err error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// StructureError indicates an expected structural landmark is absent: the
// page layout changed out from under us.
type StructureError struct {
	Landmark string
}

func (e StructureError) Error() string {
	return fmt.Sprintf("structure: missing landmark %q", e.Landmark)
}

// DateFormatError indicates a release date did not match the fixed
// YYYY-MM-DD layout.
type DateFormatError struct {
	Value string
	Err   error
}

func (e DateFormatError) Error() string {
	return fmt.Sprintf("date format: %q: %v", e.Value, e.Err)
}

func (e DateFormatError) Unwrap() error {
	return e.Err
}

// UnrecognizedLinkError indicates an anchor inside a description fragment
// that matches no known citation pattern.
type UnrecognizedLinkError struct {
	Href string
	Text string
}

func (e UnrecognizedLinkError) Error() string {
	return fmt.Sprintf("unrecognized link to %s with text %q", e.Href, e.Text)
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var fetch FetchError
	if errors.As(err, &fetch) {
		return "fetch"
	}
	var parse ParseError
	if errors.As(err, &parse) {
		return "parse"
	}
	var structure StructureError
	if errors.As(err, &structure) {
		return "structure"
	}
	var date DateFormatError
	if errors.As(err, &date) {
		return "date_format"
	}
	var link UnrecognizedLinkError
	if errors.As(err, &link) {
		return "unrecognized_link"
	}
	return "other"
}
