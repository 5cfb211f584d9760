package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/briannabogos1157/threadtwin/internal/app"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/urfave/cli/v2"
)

type extractionOutput struct {
	Source      string                    `json:"source"`
	Product     *usecase.ExtractedProduct `json:"product,omitempty"`
	EmbeddingID string                    `json:"embedding_id,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

func extract(c *cli.Context, deps *app.Deps) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("extract: descriptions file is required", 2)
	}

	descriptions, err := readLines(path)
	if err != nil {
		return err
	}

	store := c.Bool("store")
	if store {
		if _, err := deps.Embeddings.Warmup(c.Context); err != nil {
			return err
		}
	}

	res, err := deps.Extraction.ExtractBatch(c.Context, descriptions, store)
	if err != nil {
		return err
	}

	out := make([]extractionOutput, len(res.Results))
	for i, r := range res.Results {
		out[i] = extractionOutput{Source: r.Source, Product: r.Product, EmbeddingID: r.EmbeddingID}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			fmt.Printf("failed: %.60s: %v\n", r.Source, r.Err)
			continue
		}
		fmt.Printf("processed: %s\n", nonEmpty(r.Product.ProductName, "Unknown product"))
	}

	if dst := c.String("out"); dst != "" {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("results saved to: %s\n", dst)
	}

	return report("extract", res.Summary.Succeeded, res.Summary.Failed)
}

func findDupes(c *cli.Context, deps *app.Deps) error {
	item := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if item == "" {
		return cli.Exit("find-dupes: item name is required", 2)
	}

	dupes, err := deps.Extraction.FindDupes(c.Context, item, c.Int("n"))
	if err != nil {
		return err
	}

	fmt.Printf("found %d alternatives to %q\n", len(dupes), item)
	for i, d := range dupes {
		fmt.Printf("%d. %s\n   %s\n", i+1, d.Result.Title, d.Result.Link)
		if p := d.Product; p != nil {
			fmt.Printf("   brand: %s, price: %s, material: %s\n", p.Brand, p.Price, p.MaterialComposition)
		}
	}

	return nil
}

// readLines возвращает непустые строки файла.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
