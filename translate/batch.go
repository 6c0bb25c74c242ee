package translate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/icase-intl/langkit/catalog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of entries sent per translation call.
const DefaultChunkSize = 100

// Report is the outcome of one locale.
type Report struct {
	Locale string
	Path   string
	// Entries is the number of entries written.
	Entries int
	// Kept counts entries of failed chunks carried over from the
	// existing catalog.
	Kept int
	// FailedChunks lists the indexes of chunks that were dropped.
	FailedChunks []int
	Err          error
}

// Batch translates the whole run's collected literals into every target
// locale and writes one catalog per locale. A Batch runs at most once.
// A locale whose every chunk failed keeps its catalog untouched.
type Batch struct {
	// Dir is the catalog directory.
	Dir string
	// Format is the catalog file extension ("json").
	Format string
	// Locales are the target locales.
	Locales []string
	// SourceLocale passes through untranslated.
	SourceLocale string
	// ChunkSize bounds the entries per call (default 100).
	ChunkSize int
	// Timeout bounds the whole run (0 = none).
	Timeout time.Duration
	// Translator handles every locale except SourceLocale.
	Translator Translator
	// OnProgress is called after each chunk of a locale.
	OnProgress func(locale string, done, total int)

	once    sync.Once
	reports []Report
	err     error
}

func (b *Batch) chunkSize() int {
	if b.ChunkSize > 0 {
		return b.ChunkSize
	}
	return DefaultChunkSize
}

// Run translates entries (checksum -> source text, in observation order).
// Locales run concurrently; the chunks of one locale run in sequence. A
// failed chunk is logged and left out of that locale's catalog without
// stopping the others. Later calls return the first call's result.
func (b *Batch) Run(ctx context.Context, entries *catalog.File) ([]Report, error) {
	b.once.Do(func() {
		b.reports, b.err = b.run(ctx, entries)
	})
	return b.reports, b.err
}

func (b *Batch) run(ctx context.Context, entries *catalog.File) ([]Report, error) {
	if entries == nil || entries.Len() == 0 {
		Logger.Debug().Msg("Nothing collected, skipping translation")
		return nil, nil
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	chunks := lo.Chunk(entries.Keys(), b.chunkSize())
	reports := make([]Report, len(b.Locales))

	g, gctx := errgroup.WithContext(ctx)
	for i, locale := range b.Locales {
		g.Go(func() error {
			reports[i] = b.runLocale(gctx, locale, entries, chunks)
			return nil
		})
	}
	_ = g.Wait()

	var errs *multierror.Error
	for _, r := range reports {
		if r.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", r.Locale, r.Err))
		}
	}
	return reports, errs.ErrorOrNil()
}

func (b *Batch) runLocale(ctx context.Context, locale string, entries *catalog.File, chunks [][]string) Report {
	rep := Report{Locale: locale, Path: catalog.Path(b.Dir, locale, b.Format)}
	log := Logger.With().Str("locale", locale).Logger()

	var errs *multierror.Error
	translated := make(map[string]string, entries.Len())
	failed := make(map[string]bool)
	done := 0

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(chunks); j++ {
				rep.FailedChunks = append(rep.FailedChunks, j)
				for _, k := range chunks[j] {
					failed[k] = true
				}
			}
			errs = multierror.Append(errs, err)
			break
		}

		record := make(map[string]string, len(chunk))
		for _, k := range chunk {
			record[k], _ = entries.Get(k)
		}

		result, err := b.translateChunk(ctx, record, locale)
		if err != nil {
			log.Error().Err(err).Int("chunk", i+1).Int("chunks", len(chunks)).Msg("Chunk translation failed")
			rep.FailedChunks = append(rep.FailedChunks, i)
			for _, k := range chunk {
				failed[k] = true
			}
			errs = multierror.Append(errs, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err))
			continue
		}

		for _, k := range chunk {
			if v, ok := result[k]; ok {
				translated[k] = v
			}
		}

		done += len(chunk)
		if b.OnProgress != nil {
			b.OnProgress(locale, done, entries.Len())
		}
	}

	if len(rep.FailedChunks) == len(chunks) {
		log.Warn().Str("path", rep.Path).Msg("No chunk translated, catalog left unchanged")
		rep.Err = errs.ErrorOrNil()
		return rep
	}

	// Keys of failed chunks keep the translation already on disk.
	previous := catalog.Load(rep.Path)
	out := catalog.New()
	for _, k := range entries.Keys() {
		if v, ok := translated[k]; ok {
			out.Set(k, v)
			continue
		}
		if !failed[k] {
			continue
		}
		if v, ok := previous.Get(k); ok {
			out.Set(k, v)
			rep.Kept++
		}
	}

	if err := out.WriteFile(rep.Path); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		rep.Entries = out.Len()
		log.Info().Str("path", rep.Path).Int("entries", rep.Entries).Int("kept", rep.Kept).Msg("Catalog written")
	}
	rep.Err = errs.ErrorOrNil()
	return rep
}

func (b *Batch) translateChunk(ctx context.Context, record map[string]string, locale string) (map[string]string, error) {
	if locale == b.SourceLocale {
		return record, nil
	}
	if b.Translator == nil {
		return nil, fmt.Errorf("no translator configured")
	}
	return b.Translator.Translate(ctx, record, locale)
}
