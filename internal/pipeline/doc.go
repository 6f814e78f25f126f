// Package pipeline runs a documentation crawl.
//
// A run moves through six phases in order: seeding fetches the entry page,
// discovering derives the page set from its navigation, dispatching starts
// a bounded worker pool, collecting consumes page results as they complete,
// indexing writes the manifest and reporting summarizes the run. Only the
// first three phases can abort a run.
//
// Each page is handled by a PageProcessor (fetch, extract, save). Every
// discovered URL ends up either indexed or failed, never both.
//
// Basic usage:
//
//	cfg := config.NewConfig()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	o, err := pipeline.FromConfig(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	run, err := o.Run(ctx)
package pipeline
