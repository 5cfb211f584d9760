package main

import (
	"fmt"

	"github.com/briannabogos1157/threadtwin/internal/app"
	"github.com/urfave/cli/v2"
)

func saveSnapshot(c *cli.Context, deps *app.Deps) error {
	if _, err := deps.Embeddings.Warmup(c.Context); err != nil {
		return err
	}

	info, err := deps.Snapshots.Save(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("snapshot %s saved: %d records, %d bytes\n", info.Key, info.Records, info.Size)
	return nil
}

// restoreSnapshot восстанавливает снимок и записывает его записи в хранилище.
// Если в хранилище уже есть эмбеддинги, индекс после прогрева не пуст и восстановление отклоняется.
func restoreSnapshot(c *cli.Context, deps *app.Deps) error {
	if _, err := deps.Embeddings.Warmup(c.Context); err != nil {
		return err
	}

	info, err := deps.Snapshots.Restore(c.Context, c.String("key"))
	if err != nil {
		return err
	}
	fmt.Printf("snapshot %s loaded: %d records\n", info.Key, info.Records)

	summary, err := deps.Embeddings.PersistIndex(c.Context)
	if err != nil {
		return err
	}
	return report("snapshot restore", summary.Succeeded, summary.Failed)
}
