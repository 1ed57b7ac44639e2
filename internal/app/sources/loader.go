// Package sources reads the per-season files written by the crawler.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/coursetable/ferry/internal/pkg/validation"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Config points the loader at the crawler output.
type Config struct {
	ListingsDir         string
	FallbackListingsDir string
	EvaluationsDir      string
	// Seasons restricts loading; empty means every season found on disk
	Seasons []string
}

// Loader reads <dir>/<season>.json files into a models.Corpus.
type Loader struct {
	cfg Config
	log zerolog.Logger
}

func NewLoader(cfg Config) *Loader {
	return &Loader{cfg: cfg, log: logger.Component("source_loader")}
}

// Seasons returns the configured seasons, or the season files present in
// the listing directories, sorted.
func (l *Loader) Seasons() ([]string, error) {
	if len(l.cfg.Seasons) > 0 {
		seasons := slices.Clone(l.cfg.Seasons)
		slices.Sort(seasons)
		return slices.Compact(seasons), nil
	}

	var seasons []string
	for _, dir := range []string{l.cfg.ListingsDir, l.cfg.FallbackListingsDir} {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing season files in %s: %w", dir, err)
		}
		for _, e := range entries {
			code, ok := strings.CutSuffix(e.Name(), ".json")
			if e.IsDir() || !ok || !validation.IsSeasonCode(code) {
				continue
			}
			seasons = append(seasons, code)
		}
	}
	slices.Sort(seasons)
	return slices.Compact(seasons), nil
}

// Load reads every season. Missing or unreadable listing files leave the
// season marked as not found; the pipeline decides what that means.
func (l *Loader) Load(ctx context.Context) (models.Corpus, error) {
	return l.LoadSeasons(ctx, nil)
}

// LoadSeasons reads the given seasons instead of the configured ones. An
// empty list falls back to Load.
func (l *Loader) LoadSeasons(ctx context.Context, seasons []string) (models.Corpus, error) {
	if len(seasons) == 0 {
		var err error
		if seasons, err = l.Seasons(); err != nil {
			return models.Corpus{}, err
		}
	} else {
		seasons = slices.Clone(seasons)
		slices.Sort(seasons)
		seasons = slices.Compact(seasons)
	}

	corpus := models.Corpus{Seasons: make([]models.SeasonInput, 0, len(seasons))}
	for _, code := range seasons {
		if err := ctx.Err(); err != nil {
			return models.Corpus{}, err
		}
		corpus.Seasons = append(corpus.Seasons, l.LoadSeason(code))
	}

	l.log.Info().Int("seasons", len(corpus.Seasons)).Msg("Loaded crawler output")
	return corpus, nil
}

// LoadSeason reads the listing and evaluation files of one season.
func (l *Loader) LoadSeason(code string) models.SeasonInput {
	in := models.SeasonInput{SeasonCode: code}

	for _, dir := range []string{l.cfg.ListingsDir, l.cfg.FallbackListingsDir} {
		if dir == "" {
			continue
		}
		var listings []models.RawListing
		found, err := readJSON(filepath.Join(dir, code+".json"), &listings)
		if err != nil {
			l.log.Error().Err(err).Str("season", code).Msg("Unreadable listing file")
			return in
		}
		if found {
			in.ListingsFound = true
			in.Listings = listings
			break
		}
	}
	if !in.ListingsFound {
		l.log.Warn().Str("season", code).Msg("No listing file for season")
		return in
	}

	if l.cfg.EvaluationsDir != "" {
		var evaluations []models.RawEvaluation
		found, err := readJSON(filepath.Join(l.cfg.EvaluationsDir, code+".json"), &evaluations)
		switch {
		case err != nil:
			l.log.Warn().Err(err).Str("season", code).Msg("Ignoring unreadable evaluation file")
		case found:
			in.Evaluations = evaluations
		}
	}

	l.log.Debug().Str("season", code).Int("listings", len(in.Listings)).Int("evaluations", len(in.Evaluations)).
		Msg("Loaded season")
	return in
}

// readJSON decodes path into v. A missing file is reported as found=false
// without an error.
func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return true, nil
}
