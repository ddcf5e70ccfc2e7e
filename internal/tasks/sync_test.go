package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/tracklist/internal/shared"
)

func TestSyncApply(t *testing.T) {
	ctx := context.Background()

	t.Run("RefreshRunsAfterSuccessfulMutation", func(t *testing.T) {
		var order []string
		s := Sync[int]{
			Refresh: func(context.Context) (int, error) {
				order = append(order, "refresh")
				return 42, nil
			},
			OnMutated: func() { order = append(order, "mutated") },
		}

		got, err := s.Apply(ctx, "create playlist", func(context.Context) error {
			order = append(order, "mutate")
			return nil
		})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if got != 42 {
			t.Errorf("expected refreshed value 42, got %d", got)
		}

		want := []string{"mutate", "mutated", "refresh"}
		if len(order) != len(want) {
			t.Fatalf("expected %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("step %d: expected %s, got %s", i, want[i], order[i])
			}
		}
	})

	t.Run("FailedMutationSkipsRefresh", func(t *testing.T) {
		mutateErr := errors.New("boom")
		refreshed := false
		mutated := false
		s := Sync[int]{
			Refresh: func(context.Context) (int, error) {
				refreshed = true
				return 1, nil
			},
			OnMutated: func() { mutated = true },
		}

		_, err := s.Apply(ctx, "delete playlist", func(context.Context) error { return mutateErr })
		if !errors.Is(err, mutateErr) {
			t.Errorf("expected mutation error, got %v", err)
		}
		if errors.Is(err, shared.ErrRefreshAfterMutation) {
			t.Error("mutation failure must not be reported as a refresh failure")
		}
		if refreshed || mutated {
			t.Error("refresh and OnMutated must not run after a failed mutation")
		}
	})

	t.Run("RefreshFailureIsWrapped", func(t *testing.T) {
		refreshErr := errors.New("offline")
		s := Sync[string]{
			Refresh: func(context.Context) (string, error) { return "", refreshErr },
		}

		_, err := s.Apply(ctx, "rename playlist", func(context.Context) error { return nil })
		if !errors.Is(err, shared.ErrRefreshAfterMutation) {
			t.Errorf("expected ErrRefreshAfterMutation, got %v", err)
		}
		if !errors.Is(err, refreshErr) {
			t.Errorf("expected the refresh cause to be kept, got %v", err)
		}
	})

	t.Run("NoRefresh", func(t *testing.T) {
		var s Sync[[]string]
		got, err := s.Apply(ctx, "logout", func(context.Context) error { return nil })
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected zero value, got %v", got)
		}
	})

	t.Run("ProgressNeverBlocks", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 1)
		s := Sync[int]{
			Refresh:  func(context.Context) (int, error) { return 1, nil },
			Progress: progress,
		}

		if _, err := s.Apply(ctx, "add song", func(context.Context) error { return nil }); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}

		update := <-progress
		if update.Phase != Mutate {
			t.Errorf("expected first update to be %s, got %s", Mutate, update.Phase)
		}
		if update.Message != "add song..." {
			t.Errorf("unexpected message %q", update.Message)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		Mutate:         "mutate",
		Refresh:        "refresh",
		FetchPlaylists: "fetch_playlists",
		FetchPlaylist:  "fetch_playlist",
		ExportPlaylist: "export_playlist",
		UploadExport:   "upload_export",
		WriteManifest:  "write_manifest",
		Phase(99):      "",
	}
	for phase, want := range tests {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}
