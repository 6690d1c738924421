// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/corpus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Reporter defines the interface for writing corpus statistics to an output.
type Reporter interface {
	// Write renders one statistics snapshot.
	Write(stats corpus.Stats) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
func New(format, outputPath string) (Reporter, error) {
	return NewWithStdout(format, outputPath, os.Stdout)
}

// NewWithStdout is New with an explicit writer standing in for standard output.
func NewWithStdout(format, outputPath string, stdout io.Writer) (Reporter, error) {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return &statsReporter{format: format, out: writer}, nil
}

type statsReporter struct {
	format string
	out    io.WriteCloser
}

// statsDocument is the serialized form. Every kind appears, in a stable order.
type statsDocument struct {
	Items       int            `json:"items" yaml:"items"`
	Failed      int            `json:"failed" yaml:"failed"`
	Total       int            `json:"totalAnnotations" yaml:"total_annotations"`
	Annotations []kindCountDoc `json:"annotations" yaml:"annotations"`
}

type kindCountDoc struct {
	Type  schemas.ErrorKind `json:"type" yaml:"type"`
	Count int               `json:"count" yaml:"count"`
}

func document(stats corpus.Stats) statsDocument {
	doc := statsDocument{Items: stats.Items, Failed: stats.Failed, Total: stats.Total()}
	for _, kind := range schemas.AllErrorKinds {
		doc.Annotations = append(doc.Annotations, kindCountDoc{Type: kind, Count: stats.Annotations[kind]})
	}
	return doc
}

func (r *statsReporter) Write(stats corpus.Stats) error {
	doc := document(stats)
	switch r.format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize statistics: %w", err)
		}
		_, err = fmt.Fprintln(r.out, string(data))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to serialize statistics: %w", err)
		}
		return enc.Close()
	default:
		return writeText(r.out, doc)
	}
}

func writeText(out io.Writer, doc statsDocument) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Items:\t%d\n", doc.Items)
	fmt.Fprintf(tw, "Failed:\t%d\n", doc.Failed)
	fmt.Fprintf(tw, "Annotations:\t%d\n", doc.Total)
	for _, kc := range doc.Annotations {
		share := 0.0
		if doc.Total > 0 {
			share = 100 * float64(kc.Count) / float64(doc.Total)
		}
		fmt.Fprintf(tw, "  %s\t%d\t%.1f%%\n", kc.Type, kc.Count, share)
	}
	return tw.Flush()
}

func (r *statsReporter) Close() error {
	return r.out.Close()
}
