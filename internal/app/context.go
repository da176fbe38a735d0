package app

import (
	"context"
	"errors"
	"fmt"

	"techco/internal/engine"
	"techco/internal/repo"
)

// ResolveGame picks the game CLI commands operate on. It prefers the
// explicit override, then falls back to the single game in the workspace.
func ResolveGame(ctx context.Context, r repo.Repo, override string) (string, error) {
	if override != "" {
		if _, err := r.GetGame(ctx, override); err != nil {
			return "", err
		}
		return override, nil
	}
	g, err := r.SingleGame(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", fmt.Errorf("no game exists; create one with tc game create")
		}
		return "", err
	}
	return g.ID, nil
}

// ResolveOrCreateGame is ResolveGame plus first-run bootstrapping: an empty
// workspace gets a fresh game seeded so the first command just works.
func ResolveOrCreateGame(ctx context.Context, eng engine.Engine, override, ownerID, name string) (string, error) {
	if override != "" {
		return ResolveGame(ctx, eng.Repo, override)
	}
	g, err := eng.Repo.SingleGame(ctx)
	if err == nil {
		return g.ID, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return "", err
	}
	created, err := eng.CreateGame(ctx, engine.CreateGameOptions{OwnerID: ownerID, Name: name})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}
