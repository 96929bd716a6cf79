package bench

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"
)

// WriteText writes r as an aligned table.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSIZE\tREADS\tBYTES\tDURATION\tTHROUGHPUT")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s/s\n",
			res.Kind,
			humanize.IBytes(uint64(res.Size)),
			res.Reads,
			humanize.IBytes(uint64(res.Bytes)),
			res.Duration,
			humanize.IBytes(uint64(res.Throughput)))
	}
	return tw.Flush()
}

// WriteYAML writes r as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("bench: marshal report: %w", err)
	}
	_, err = w.Write(data)
	return err
}
