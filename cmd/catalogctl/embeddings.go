package main

import (
	"fmt"

	"github.com/briannabogos1157/threadtwin/internal/app"
	"github.com/urfave/cli/v2"
)

func validateEmbeddings(c *cli.Context, deps *app.Deps) error {
	report, err := deps.Embeddings.ValidateStored(c.Context, c.Int("dim"))
	if err != nil {
		return err
	}

	for _, inv := range report.Invalid {
		fmt.Printf("invalid: %s (length %d): %s\n", inv.ID, inv.Length, inv.Reason)
	}
	fmt.Printf("embeddings: %d total, %d valid, %d invalid\n", report.Total, report.Valid, len(report.Invalid))
	return nil
}

func purgeEmbeddings(c *cli.Context, deps *app.Deps) error {
	if _, err := deps.Embeddings.Warmup(c.Context); err != nil {
		return err
	}

	validation, summary, err := deps.Embeddings.PurgeInvalid(c.Context, c.Int("dim"))
	if err != nil {
		return err
	}

	for _, ie := range summary.Errors {
		fmt.Printf("failed to delete %s: %v\n", validation.Invalid[ie.Item].ID, ie.Err)
	}
	fmt.Printf("remaining embeddings: %d\n", validation.Total-summary.Succeeded)

	if len(validation.Invalid) == 0 {
		fmt.Println("no invalid embeddings found")
		return nil
	}
	return report("embeddings purge", summary.Succeeded, summary.Failed)
}
