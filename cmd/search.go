package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mimo/internal/formatter"
	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries both catalogs and prints the grouped results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	var source models.Source
	if s := cmd.String("source"); s != "" {
		if source, err = models.ParseSource(s); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
	}

	core, err := r.App(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("searching", "query", query, "source", source)

	result, err := core.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if source != "" {
		title := fmt.Sprintf("%s results for %q", source, query)
		return formatter.WriteTracks(r.output, format, title, result.For(source))
	}
	return formatter.WriteSearchResult(r.output, format, query, result)
}

// Trending prints a shuffled sample of both catalogs' trending tracks.
func (r *Runner) Trending(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	if limit < 0 {
		return fmt.Errorf("%w: limit cannot be negative", shared.ErrInvalidArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	core, err := r.App(ctx)
	if err != nil {
		return err
	}

	tracks, err := core.Trending(ctx, limit)
	if err != nil {
		return fmt.Errorf("trending failed: %w", err)
	}

	return formatter.WriteTracks(r.output, format, "Trending", tracks)
}
