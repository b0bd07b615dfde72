package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	assetport "github.com/Ahmed3656/iChat/internal/infrastructure/assets/port"
	qport "github.com/Ahmed3656/iChat/internal/infrastructure/queue/port"
)

// ReleaseAssetTaskType is the queue task name for releasing a replaced asset
// (e.g. the previous group avatar after a changepfp call).
const ReleaseAssetTaskType = "assets:release"

type ReleaseAssetPayload struct {
	Locator string `json:"locator"`
}

// NewReleaseAssetTask shapes an enqueueable release task for the locator.
func NewReleaseAssetTask(locator string) (qport.Task, error) {
	raw, err := json.Marshal(ReleaseAssetPayload{Locator: locator})
	if err != nil {
		return qport.Task{}, err
	}
	return qport.Task{Type: ReleaseAssetTaskType, Payload: raw}, nil
}

// RegisterReleaseAssetTask binds the release handler to the worker server.
// Removal is idempotent, so retries are safe.
func RegisterReleaseAssetTask(srv qport.Server, store assetport.Store, log *slog.Logger) {
	srv.Register(ReleaseAssetTaskType, func(ctx context.Context, t qport.Task) error {
		var p ReleaseAssetPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying cannot help
			log.Error("release task payload malformed", slog.Any("error", err))
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := store.Remove(ctx, p.Locator); err != nil {
			return err
		}
		log.Debug("asset released", slog.String("locator", p.Locator))
		return nil
	})
}
