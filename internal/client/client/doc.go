// Package client is the CLI's connection to the portal server.
//
// It provides:
//  1. Client, an HTTP client for the /v1 API. Requests carry the stored
//     access token; when the server answers token_expired the pair is rotated
//     with the refresh token and the request is replayed once.
//  2. Realtime subscriptions over WebSocket (Client.Subscribe).
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite state file, and MetadataTokens, the TokenStore kept in it.
//
// API errors come back as *APIError, which unwraps to the sentinels of
// package common (errors.Is(err, common.ErrorForbidden) and so on).
// Transport failures wrap ErrUnavailable.
package client
