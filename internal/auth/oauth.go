package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// GitHubUser is the slice of a GitHub profile the account is built from.
type GitHubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider runs the OAuth authorization-code flow against GitHub. It is
// an alternative way in: a successful exchange ends with the same bearer
// token a password login issues.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
	// emailsURL lists the user's addresses; used when the profile hides its
	// email.
	emailsURL string
}

// NewGitHubProvider configures the flow for an OAuth App registered at
// https://github.com/settings/developers. callbackURL must equal the App's
// "Authorization callback URL".
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userURL:   githubAPI + "/user",
		emailsURL: githubAPI + "/user/emails",
	}
}

// WithEndpoints points the provider somewhere other than github.com
// (GitHub Enterprise, or an httptest server). apiURL replaces
// https://api.github.com.
func (p *GitHubProvider) WithEndpoints(authURL, tokenURL, apiURL string) *GitHubProvider {
	p.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
	p.userURL = apiURL + "/user"
	p.emailsURL = apiURL + "/user/emails"
	return p
}

// AuthURL is where the browser is sent to approve the login. state is echoed
// back to the callback and must match the value stored in the state cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback's code for the GitHub profile. When the
// profile's email is private, the primary verified address is used instead;
// an account with none is still accepted with an empty email.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	client := p.config.Client(ctx, token)

	var user GitHubUser
	if err := getJSON(ctx, client, p.userURL, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, errors.New("auth: GitHub returned a user without an ID")
	}

	if user.Email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, client, p.emailsURL, &emails); err == nil {
			user.Email = primaryEmail(emails)
		}
	}
	return &user, nil
}

func primaryEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("auth: %s returned status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(dst); err != nil {
		return fmt.Errorf("auth: decoding %s: %w", url, err)
	}
	return nil
}
