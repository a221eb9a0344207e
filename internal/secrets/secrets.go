// Package secrets resolves credentials for repository backends. A GitHub
// token can come from configuration directly or from Google Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

// Accessor reads secret versions. *secretmanager.Client satisfies it.
type Accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Resolver looks up tokens, opening a Secret Manager client on first use.
type Resolver struct {
	accessor Accessor
	closer   func() error
}

// NewResolver creates a Resolver. accessor may be nil; a Secret Manager
// client using application default credentials is then created lazily.
func NewResolver(accessor Accessor) *Resolver {
	return &Resolver{accessor: accessor}
}

// GitHubToken returns token when set, otherwise the payload of secretName.
// Both empty yields "" for anonymous access.
func (r *Resolver) GitHubToken(ctx context.Context, token, secretName string) (string, error) {
	if token != "" {
		return token, nil
	}
	if secretName == "" {
		return "", nil
	}

	if r.accessor == nil {
		client, err := secretmanager.NewClient(ctx)
		if err != nil {
			return "", fmt.Errorf("creating secret manager client: %w", err)
		}
		r.accessor = client
		r.closer = client.Close
	}

	name := normalize(secretName)
	resp, err := r.accessor.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("accessing secret %s: %w", name, err)
	}
	value := strings.TrimSpace(string(resp.GetPayload().GetData()))
	if value == "" {
		return "", fmt.Errorf("secret %s is empty", name)
	}
	return value, nil
}

// Close releases a client opened by the Resolver.
func (r *Resolver) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// normalize appends "/versions/latest" to a bare secret resource name.
func normalize(name string) string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, "/versions/") {
		return name
	}
	return strings.TrimSuffix(name, "/") + "/versions/latest"
}
