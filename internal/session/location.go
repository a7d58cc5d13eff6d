package session

import (
	"fmt"
	"net/url"
	"sync"
)

// ReportIDParam is the query parameter that carries a share identifier
const ReportIDParam = "reportId"

// Location is the application's current address
type Location interface {
	// ReportID returns the share identifier in the address, or ""
	ReportID() string
	// SetReportID attaches a share identifier to the address
	SetReportID(id string)
	// ClearReportID removes the share identifier without touching the rest of the address
	ClearReportID()
	// ShareURL returns the address with id attached, leaving the current address unchanged
	ShareURL(id string) string
}

// URLLocation is a Location over a URL
type URLLocation struct {
	mu  sync.Mutex
	url *url.URL
}

// ParseLocation parses raw as the application's address
func ParseLocation(raw string) (*URLLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	return &URLLocation{url: u}, nil
}

// NewLocation returns a location at base carrying reportID when it is not empty
func NewLocation(base, reportID string) (*URLLocation, error) {
	loc, err := ParseLocation(base)
	if err != nil {
		return nil, err
	}
	if reportID != "" {
		loc.SetReportID(reportID)
	}
	return loc, nil
}

// ReportID implements Location
func (l *URLLocation) ReportID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.Query().Get(ReportIDParam)
}

// SetReportID implements Location
func (l *URLLocation) SetReportID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.url.Query()
	q.Set(ReportIDParam, id)
	l.url.RawQuery = q.Encode()
}

// ClearReportID implements Location
func (l *URLLocation) ClearReportID() {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.url.Query()
	q.Del(ReportIDParam)
	l.url.RawQuery = q.Encode()
}

// ShareURL implements Location
func (l *URLLocation) ShareURL(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := *l.url
	q := u.Query()
	q.Set(ReportIDParam, id)
	u.RawQuery = q.Encode()
	return u.String()
}

// String returns the current address
func (l *URLLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.String()
}

// ReportIDFromURL extracts the share identifier from a share link
func ReportIDFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid share link %q: %w", raw, err)
	}
	id := u.Query().Get(ReportIDParam)
	if id == "" {
		return "", fmt.Errorf("share link %q has no %s parameter", raw, ReportIDParam)
	}
	return id, nil
}
