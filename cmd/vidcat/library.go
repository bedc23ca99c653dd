package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/robertmeta/vidcat/model"
	"github.com/robertmeta/vidcat/source"
)

// fetchRecords pulls up to pages raw batches from src, following
// continuation tokens.
func fetchRecords(ctx context.Context, src source.Source, pages int) ([]model.RawRecord, int, error) {
	var (
		records []model.RawRecord
		token   string
		fetched int
	)

	for fetched < max(pages, 1) {
		batch, err := src.Fetch(ctx, token)
		if err != nil {
			return nil, fetched, err
		}
		fetched++
		records = append(records, batch.Records...)

		if batch.NextToken == "" {
			break
		}
		token = batch.NextToken
	}

	return records, fetched, nil
}

func importDataset(c *cli.Context) error {
	logger := getLogger(c)

	src, err := openSource(c, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	records, batches, err := fetchRecords(c.Context, src, c.Int("pages"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to fetch videos: %v", err), ExitDataError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	dataset, err := s.SaveDataset(c.Context, c.String("name"), src.name, records)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to save dataset: %v", err), ExitDataError)
	}

	logger.Info().
		Str("dataset", dataset.Name).
		Int("records", dataset.Records).
		Int("batches", batches).
		Msg("dataset imported")

	return outputJSON(map[string]any{
		"success": true,
		"dataset": dataset,
		"batches": batches,
	})
}

func listDatasets(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	datasets, err := s.ListDatasets(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get datasets: %v", err), ExitDataError)
	}

	return outputJSON(datasets)
}

func removeDataset(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: vidcat remove-dataset <name>", ExitUsageError)
	}
	name := c.Args().Get(0)

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	if err := s.DeleteDataset(c.Context, name); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to delete dataset: %v", err), ExitDataError)
	}

	return outputJSON(map[string]any{
		"success": true,
		"dataset": name,
	})
}
