package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"chatcal/internal/models"
)

const credentialsFile = "credentials.json"

// GooglePublisher inserts announced events into a Google Calendar.
type GooglePublisher struct {
	service    *calendar.Service
	calendarID string
	logger     *slog.Logger
}

// NewGooglePublisher creates a Google Calendar publisher for a previously
// authenticated account (see the 'auth' command). The token is read from
// token-<accountName>.json.
func NewGooglePublisher(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName, calendarID string) (*GooglePublisher, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := fmt.Sprintf("token-%s.json", accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	return &GooglePublisher{service: service, calendarID: calendarID, logger: logger}, nil
}

func (p *GooglePublisher) Name() string { return "google" }

// Publish inserts the event. Google builds its own serialization, so the
// structured fields are used here rather than the encoded record.
func (p *GooglePublisher) Publish(ctx context.Context, rec models.Record) error {
	p.logger.Debug("Inserting event into Google Calendar", "summary", rec.Summary, "calendarID", p.calendarID)

	event := &calendar.Event{
		ICalUID:     rec.UID,
		Summary:     rec.Summary,
		Description: rec.Description,
		Location:    rec.Location,
		Start:       &calendar.EventDateTime{DateTime: rec.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: rec.End.Format(time.RFC3339)},
	}

	if _, err := p.service.Events.Insert(p.calendarID, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	p.logger.Info("Successfully inserted event into Google Calendar", "summary", rec.Summary)
	return nil
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(context.Background(), authCode)
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
