// Package models defines the data shapes shared by the tracklist client.
//
// The package contains two categories of types:
//
// 1. Remote entities: mirror the playlist API's JSON (Mongo-style "_id" keys)
//   - [Playlist] : A named, server-owned collection of songs
//   - [Song] : A track persisted in a playlist, keyed by its provider id
//   - [UserSummary] : Identity returned by the auth endpoints
//
// 2. Client state: values that never leave the process except through the session store
//   - [Session] : Current identity and bearer token
//   - [SearchResult] : Ephemeral provider record, only consumed by the song normalizer
//
// Playlists and songs are owned by the view controller that fetched them; nothing here is cached.
package models
