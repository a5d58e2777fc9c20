package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"chatcal/internal/models"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "chatcal/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVPublisher uploads each announced event as its own .ics object in a
// named calendar collection.
type CalDAVPublisher struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	endpoint     string
	calendarURL  string
}

// NewCalDAVPublisher connects to the CalDAV endpoint and locates the target
// calendar by its display name.
func NewCalDAVPublisher(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string) (*CalDAVPublisher, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	p := &CalDAVPublisher{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		endpoint:     endpoint,
	}

	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarURL, err := p.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	p.calendarURL = calendarURL
	logger.Info("Successfully found CalDAV calendar", "url", calendarURL)

	return p, nil
}

func (p *CalDAVPublisher) Name() string { return "caldav" }

// Publish uploads the already-encoded record under <uid>.ics.
func (p *CalDAVPublisher) Publish(ctx context.Context, rec models.Record) error {
	p.logger.Debug("Publishing event to CalDAV", "summary", rec.Summary, "uid", rec.UID)

	// The object path must be relative to the endpoint for the webdav client.
	eventPath := path.Join(strings.TrimPrefix(p.calendarURL, p.endpoint), fmt.Sprintf("%s.ics", rec.UID))

	writer, err := p.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	defer writer.Close()

	if _, err := io.WriteString(writer, rec.ICS); err != nil {
		return fmt.Errorf("failed to upload calendar record: %w", err)
	}

	p.logger.Info("Successfully published event to CalDAV", "summary", rec.Summary)
	return nil
}

// findCalendar discovers the user's calendars and returns the URL for the one with the matching name.
func (p *CalDAVPublisher) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := p.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := p.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := p.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return fmt.Sprintf("%s%s", strings.TrimSuffix(p.endpoint, "/"), cal.Path), nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
