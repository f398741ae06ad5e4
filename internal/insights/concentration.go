package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vinodismyname/mcpcsv/internal/table"
)

// DefaultTopN is the number of groups reported when no Top-N is given.
const DefaultTopN = 5

// GroupShare is one group's share of the measure total.
type GroupShare struct {
	Name  string  `json:"name"`
	Share float64 `json:"share"`
	Total float64 `json:"total"`
}

// ConcentrationOutput provides HHI banding and Top-N share with breakdown.
type ConcentrationOutput struct {
	Dimension  string       `json:"dimension"`
	Measure    string       `json:"measure"`
	TopN       int          `json:"top_n"`
	Groups     []GroupShare `json:"groups"`
	OtherShare float64      `json:"other_share"`
	HHI        float64      `json:"hhi"`
	Band       string       `json:"band"`
	Meta       struct {
		ProcessedRows int `json:"processed_rows"`
		SkippedRows   int `json:"skipped_rows"`
	} `json:"meta"`
}

// Concentration sums measure per distinct dimension value and reports the
// Top-N shares and the Herfindahl-Hirschman index over all groups. Column
// names are resolved with policy. Rows whose measure is not numeric are
// skipped; an empty dimension value is grouped as "(empty)".
func Concentration(t *table.Table, dimension, measure string, topN int, policy table.MatchPolicy) (ConcentrationOutput, error) {
	var out ConcentrationOutput
	out.TopN = topN
	if out.TopN <= 0 {
		out.TopN = DefaultTopN
	}

	dim, err := t.ResolveColumn(strings.TrimSpace(dimension), policy)
	if err != nil {
		return out, err
	}
	meas, err := t.ResolveColumn(strings.TrimSpace(measure), policy)
	if err != nil {
		return out, err
	}
	out.Dimension, out.Measure = dim, meas

	acc := map[string]float64{}
	for i := 0; i < t.Len(); i++ {
		mv, _ := t.Cell(i, meas)
		v, ok := numeric(mv)
		if !ok {
			out.Meta.SkippedRows++
			continue
		}
		dv, _ := t.Cell(i, dim)
		key := strings.TrimSpace(table.Format(dv))
		if key == "" {
			key = "(empty)"
		}
		acc[key] += v
		out.Meta.ProcessedRows++
	}

	var total float64
	for _, v := range acc {
		total += v
	}
	if total == 0 {
		return out, table.Errorf(table.InvalidInput, "Column '%s' has no numeric total; cannot compute shares.", meas)
	}

	type kv struct {
		k string
		v float64
	}
	arr := make([]kv, 0, len(acc))
	for k, v := range acc {
		arr = append(arr, kv{k: k, v: v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].v != arr[j].v {
			return arr[i].v > arr[j].v
		}
		return arr[i].k < arr[j].k
	})

	keep := min(out.TopN, len(arr))
	var topShare float64
	for i := 0; i < keep; i++ {
		sh := arr[i].v / total
		out.Groups = append(out.Groups, GroupShare{Name: arr[i].k, Share: round3(sh), Total: arr[i].v})
		topShare += sh
	}
	out.OtherShare = round3(1.0 - topShare)

	// HHI: sum of squared shares over all groups
	var hhi float64
	for _, kvp := range arr {
		sh := kvp.v / total
		hhi += sh * sh
	}
	out.HHI = round3(hhi)
	// Bands based on common antitrust thresholds
	switch {
	case hhi < 0.15:
		out.Band = "unconcentrated"
	case hhi < 0.25:
		out.Band = "moderately_concentrated"
	default:
		out.Band = "highly_concentrated"
	}
	return out, nil
}

// Summary renders the result as one line per group.
func (c ConcentrationOutput) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s by %s: hhi=%.3f (%s)", c.Measure, c.Dimension, c.HHI, c.Band)
	for _, g := range c.Groups {
		fmt.Fprintf(&b, "\n- %s: %.1f%%", g.Name, g.Share*100)
	}
	if c.OtherShare > 0 {
		fmt.Fprintf(&b, "\n- other: %.1f%%", c.OtherShare*100)
	}
	return b.String()
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	}
	return 0, false
}

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
