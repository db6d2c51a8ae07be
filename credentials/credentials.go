// Package credentials builds the Google service account identity used by the
// spreadsheet and document adapters.
package credentials

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gobridge/reviewbot/apperr"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Credentials identifies a Google service account.
type Credentials struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string
}

// New returns Credentials for a service account. Literal "\n" sequences in
// privateKey, as found in single-line environment values, become newlines.
func New(projectID, clientEmail, privateKey string) Credentials {
	return Credentials{
		ProjectID:   strings.TrimSpace(projectID),
		ClientEmail: strings.TrimSpace(clientEmail),
		PrivateKey:  strings.ReplaceAll(privateKey, `\n`, "\n"),
	}
}

// Validate returns an adapter error naming the missing fields.
func (c Credentials) Validate() error {
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "project id")
	}
	if c.ClientEmail == "" {
		missing = append(missing, "client email")
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		missing = append(missing, "private key")
	}
	if len(missing) == 0 {
		return nil
	}
	return apperr.New(apperr.Adapter, "credentials.Validate",
		"service account credentials incomplete: missing "+strings.Join(missing, ", "))
}

// Summary describes which fields are present without revealing them.
func (c Credentials) Summary() string {
	return "hasProjectId=" + yesNo(c.ProjectID != "") +
		" hasClientEmail=" + yesNo(c.ClientEmail != "") +
		" hasPrivateKey=" + yesNo(strings.TrimSpace(c.PrivateKey) != "")
}

// TokenSource returns a token source for the service account limited to scopes.
func (c Credentials) TokenSource(ctx context.Context, scopes ...string) (oauth2.TokenSource, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	conf, err := google.JWTConfigFromJSON(c.json(), scopes...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Adapter, "credentials.TokenSource", err, "invalid service account credentials")
	}
	return conf.TokenSource(ctx), nil
}

// ClientOptions returns google.golang.org/api options authenticating as the
// service account.
func (c Credentials) ClientOptions(ctx context.Context, scopes ...string) ([]option.ClientOption, error) {
	ts, err := c.TokenSource(ctx, scopes...)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(ts)}, nil
}

type serviceAccountFile struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

func (c Credentials) json() []byte {
	b, _ := json.Marshal(serviceAccountFile{
		Type:        "service_account",
		ProjectID:   c.ProjectID,
		ClientEmail: c.ClientEmail,
		PrivateKey:  c.PrivateKey,
		TokenURI:    google.JWTTokenURL,
	})
	return b
}

func yesNo(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
