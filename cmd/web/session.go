package main

import (
	"context"
	"slices"
)

const shortlistSessionKey = "shortlist"

// maxShortlistSize keeps the call list and its export at a size a consultant
// can work through in a session.
const maxShortlistSize = 15

func (app *application) shortlistURNs(ctx context.Context) []string {
	urns, ok := app.sessionManager.Get(ctx, shortlistSessionKey).([]string)
	if !ok {
		return nil
	}
	return urns
}

// addShortlistURN appends a URN to the session shortlist. Reports whether
// the URN was added; duplicates count as added without growing the list.
func (app *application) addShortlistURN(ctx context.Context, urn string) bool {
	urns := app.shortlistURNs(ctx)
	if slices.Contains(urns, urn) {
		return true
	}
	if len(urns) >= maxShortlistSize {
		return false
	}
	app.sessionManager.Put(ctx, shortlistSessionKey, append(urns, urn))
	return true
}

// removeShortlistURN deletes a URN from the session shortlist. Reports
// whether it was present.
func (app *application) removeShortlistURN(ctx context.Context, urn string) bool {
	urns := app.shortlistURNs(ctx)
	index := slices.Index(urns, urn)
	if index == -1 {
		return false
	}
	app.sessionManager.Put(ctx, shortlistSessionKey, slices.Delete(urns, index, index+1))
	return true
}
