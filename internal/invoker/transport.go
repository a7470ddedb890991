// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package invoker

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// newTransport returns a transport authenticating with the client credentials flow when
// both clientID and clientSecret are set, the default transport otherwise.
func newTransport(ctx context.Context, tokenURL, clientID, clientSecret string) http.RoundTripper {
	if len(clientID) == 0 || len(clientSecret) == 0 {
		return http.DefaultTransport
	}

	config := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &oauth2.Transport{
		Source: config.TokenSource(ctx),
		Base:   http.DefaultTransport,
	}
}
