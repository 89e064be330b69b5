// Package importer loads loot template content from files and writes it to
// the configured template store.
package importer

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Importer orchestrates content import from a Source to a Sink.
type Importer struct {
	source Source
	sink   Sink
	out    io.Writer
}

// New constructs an Importer backed by the given Source and Sink, reporting
// progress to out.
//
// Precondition: source, sink and out must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, sink Sink, out io.Writer) *Importer {
	return &Importer{source: source, sink: sink, out: out}
}

// Run loads tables from sourceDir and replaces each one in the sink.
//
// Precondition: sourceDir must satisfy the source's layout requirements.
// Postcondition: every loaded table is replaced, or an error is returned;
// tables written before the error stay written.
func (imp *Importer) Run(ctx context.Context, sourceDir string) error {
	overall := time.Now()

	t0 := time.Now()
	tables, err := imp.source.Load(sourceDir)
	if err != nil {
		return fmt.Errorf("loading source: %w", err)
	}
	fmt.Fprintf(imp.out, "load    %d table(s) in %s\n", len(tables), time.Since(t0).Round(time.Millisecond))

	for _, td := range tables {
		t1 := time.Now()
		if err := imp.sink.Replace(ctx, td.Table, ToRows(td.Rows)); err != nil {
			return fmt.Errorf("writing table %q: %w", td.Table, err)
		}
		fmt.Fprintf(imp.out, "wrote   %s  (%d rows)  in %s\n",
			td.Table, len(td.Rows), time.Since(t1).Round(time.Millisecond))
	}

	fmt.Fprintf(imp.out, "total   %s\n", time.Since(overall).Round(time.Millisecond))
	return nil
}
