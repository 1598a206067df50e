package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goOnboard "github.com/MrEthical07/goOnboard"
	"github.com/MrEthical07/goOnboard/metrics/export/internaldefs"
)

// Source is what the exporter reads on every scrape. *goOnboard.Engine satisfies it.
type Source interface {
	MetricsSnapshot() goOnboard.MetricsSnapshot
	AuditDropped() uint64
}

// Gauge is an extra point-in-time value published next to the engine metrics,
// such as the number of open accounts held by the server.
type Gauge struct {
	Name  string
	Help  string
	Value func() uint64
}

type Exporter struct {
	source Source
	gauges []Gauge
}

func New(source Source, gauges ...Gauge) *Exporter {
	return &Exporter{source: source, gauges: gauges}
}

// Handler serves Render with the text exposition content type.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns every series. A disabled metrics set renders only the gauges.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) > 0 || len(snapshot.Histograms) > 0 || dropped > 0 {
		for _, def := range internaldefs.CounterDefs {
			writeSample(&b, def.Name, def.Help, "counter", snapshot.Counters[def.ID])
		}
		for _, def := range internaldefs.HistogramDefs {
			raw, ok := snapshot.Histograms[def.ID]
			if !ok {
				continue
			}
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
			writeHistogram(&b, def.Name, def.Help, cumulative)
		}
		writeSample(&b, "onboard_audit_dropped_total", "Audit events dropped under dispatcher backpressure.", "counter", dropped)
	}

	for _, g := range p.gauges {
		if g.Value == nil {
			continue
		}
		writeSample(&b, g.Name, g.Help, "gauge", g.Value())
	}

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name, help, kind string, value uint64) {
	writeHeader(b, name, help, kind)
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	b.WriteByte('\n')

	// bucket counts only; the snapshot carries no sum
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
