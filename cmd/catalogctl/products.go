package main

import (
	"fmt"
	"os"

	"github.com/briannabogos1157/threadtwin/internal/app"
	"github.com/briannabogos1157/threadtwin/internal/infrastructure/csvimport"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/urfave/cli/v2"
)

const seedSource = "seed"

// seedProducts — демонстрационный каталог.
var seedProducts = []usecase.ProductDraft{
	{
		Title:         "AGOLDE '90s Pinch Waist High Waist Straight Leg Jeans",
		Name:          "90s Pinch Waist High Waist Straight Leg Jeans",
		Price:         "198.00",
		ImageURL:      "https://placehold.co/800x1000/png?text=AGOLDE+Jeans",
		AffiliateLink: "https://www.shopltk.com/explore/item/agolde-90s-pinch-waist-high-waist-straight-leg-jeans",
		Brand:         "AGOLDE",
		Category:      "Denim",
		Description:   "The perfect vintage-inspired high-rise straight leg jeans",
		Fabric:        "100% Cotton",
	},
	{
		Title:         "Lululemon Define Jacket",
		Name:          "Define Jacket",
		Price:         "118.00",
		ImageURL:      "https://placehold.co/800x1000/png?text=Lululemon+Jacket",
		AffiliateLink: "https://www.shopltk.com/explore/item/lululemon-define-jacket",
		Brand:         "Lululemon",
		Category:      "Activewear",
		Description:   "Slim-fit running jacket with thumbholes",
		Fabric:        "Luon fabric",
	},
	{
		Title:         "Olaplex No. 3 Hair Perfector",
		Name:          "No. 3 Hair Perfector",
		Price:         "30.00",
		ImageURL:      "https://placehold.co/800x1000/png?text=Olaplex+No.3",
		AffiliateLink: "https://www.shopltk.com/explore/item/olaplex-no-3-hair-perfector",
		Brand:         "Olaplex",
		Category:      "Beauty",
		Description:   "Weekly at-home treatment that reduces breakage and strengthens hair",
	},
	{
		Title:    "Logan 'Ab'Solution High Waist Ankle Slim Straight Leg Jeans",
		Price:    "78",
		Brand:    "Wit & Wisdom",
		Category: "Denim",
	},
	{
		Title:    "AG Tellis Cloud Soft Slim Fit Jeans",
		Price:    "198",
		Brand:    "AG",
		Category: "Denim",
	},
}

func importCSV(c *cli.Context, deps *app.Deps) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("import-csv: file path is required", 2)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	parsed, err := csvimport.Read(f, c.String("source"))
	if err != nil {
		return err
	}
	for _, ie := range parsed.Errors {
		fmt.Printf("row %d: skipped: %v\n", ie.Item, ie.Err)
	}

	summary, err := deps.Products.Import(c.Context, parsed.Drafts)
	if err != nil {
		return err
	}
	for _, ie := range summary.Errors {
		fmt.Printf("row %d: failed: %v\n", parsed.Rows[ie.Item], ie.Err)
	}

	return report("import-csv", summary.Succeeded, summary.Failed+len(parsed.Errors))
}

func seed(c *cli.Context, deps *app.Deps) error {
	deleted, err := deps.Products.DeleteBySource(c.Context, seedSource)
	if err != nil {
		return err
	}
	fmt.Printf("cleared %d existing seed products\n", deleted)

	drafts := make([]usecase.ProductDraft, len(seedProducts))
	for i, d := range seedProducts {
		d.Source = seedSource
		drafts[i] = d
	}

	summary, err := deps.Products.Import(c.Context, drafts)
	if err != nil {
		return err
	}
	for _, ie := range summary.Errors {
		fmt.Printf("%s: failed: %v\n", drafts[ie.Item].Title, ie.Err)
	}

	return report("seed", summary.Succeeded, summary.Failed)
}

func deleteProducts(c *cli.Context, deps *app.Deps) error {
	source, all := c.String("source"), c.Bool("all")

	var (
		deleted int64
		err     error
	)
	switch {
	case all && source != "":
		return cli.Exit("delete-products: use either --source or --all", 2)
	case all:
		deleted, err = deps.Products.DeleteAll(c.Context)
	case source != "":
		deleted, err = deps.Products.DeleteBySource(c.Context, source)
	default:
		return cli.Exit("delete-products: --source or --all is required", 2)
	}
	if err != nil {
		return err
	}

	fmt.Printf("deleted %d products\n", deleted)
	return nil
}

// report печатает итог пакетной команды. Команда завершается с ошибкой, только если не удалось ничего.
func report(cmd string, succeeded, failed int) error {
	fmt.Printf("%s: %d succeeded, %d failed\n", cmd, succeeded, failed)
	if succeeded == 0 && failed > 0 {
		return cli.Exit(fmt.Sprintf("%s: every item failed", cmd), 1)
	}
	return nil
}
