package insights

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/vinodismyname/mcpcsv/internal/table"
)

// ColumnProfile summarizes inferred role, type, and quality for one column.
type ColumnProfile struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Type        string   `json:"type"`
	Missing     int      `json:"missing"`
	MissingPct  float64  `json:"missing_pct"`
	UniqueRatio float64  `json:"unique_ratio"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Mean        *float64 `json:"mean,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// ProfileOutput contains per-column profiles and clarifying questions.
type ProfileOutput struct {
	Rows      int             `json:"rows"`
	Columns   []ColumnProfile `json:"columns"`
	Questions []string        `json:"questions,omitempty"`
}

// Profile infers a type and role for every column of t and runs basic data
// quality checks. Types come from gota's record type detection; a column that
// gota cannot load is reported as string.
func Profile(t *table.Table) ProfileOutput {
	out := ProfileOutput{Rows: t.Len(), Columns: []ColumnProfile{}}
	if t.Width() == 0 {
		return out
	}
	types := detectTypes(t)

	var ids []string
	measures := 0
	for c, name := range t.Columns() {
		cp := ColumnProfile{Index: c, Name: name, Type: types[name]}
		if cp.Type == "" {
			cp.Type = string(series.String)
		}

		uniq := make(map[string]int)
		var nums []float64
		negatives, numeric, text := 0, 0, 0
		for i := 0; i < t.Len(); i++ {
			v, _ := t.Cell(i, name)
			s := table.Format(v)
			if strings.TrimSpace(s) == "" {
				cp.Missing++
				continue
			}
			uniq[s]++
			switch x := table.Coerce(s).(type) {
			case int64:
				nums = append(nums, float64(x))
			case float64:
				nums = append(nums, x)
			default:
				text++
				continue
			}
			numeric++
			if nums[len(nums)-1] < 0 {
				negatives++
			}
		}

		nonEmpty := t.Len() - cp.Missing
		if t.Len() > 0 {
			cp.MissingPct = round2(100 * float64(cp.Missing) / float64(t.Len()))
		}
		if nonEmpty > 0 {
			cp.UniqueRatio = round2(float64(len(uniq)) / float64(nonEmpty))
		}
		if len(nums) > 0 && text == 0 {
			lo, hi, mean := stats(nums)
			cp.Min, cp.Max, cp.Mean = &lo, &hi, &mean
		}

		cp.Role = inferRole(name, cp.Type, cp.UniqueRatio, nonEmpty)
		switch cp.Role {
		case "id":
			ids = append(ids, name)
		case "measure", "target":
			measures++
		}
		cp.Warnings = qualityChecks(name, uniq, negatives, numeric, text)
		out.Columns = append(out.Columns, cp)
	}

	if len(ids) > 1 {
		out.Questions = append(out.Questions, fmt.Sprintf("Multiple ID-like columns detected (%s). Which one is the primary ID?", strings.Join(ids, ", ")))
	}
	if measures == 0 && t.Len() > 0 {
		out.Questions = append(out.Questions, "Which column is the primary measure?")
	}
	return out
}

// Summary renders a compact text view of p for agents that ignore structured output.
func (p ProfileOutput) Summary() string {
	lines := []string{fmt.Sprintf("rows=%d cols=%d", p.Rows, len(p.Columns))}
	for _, c := range p.Columns {
		line := fmt.Sprintf("%q role=%s type=%s miss=%.1f%% uniq=%.2f", c.Name, c.Role, c.Type, c.MissingPct, c.UniqueRatio)
		if c.Mean != nil {
			line += fmt.Sprintf(" min=%g max=%g mean=%g", *c.Min, *c.Max, *c.Mean)
		}
		if len(c.Warnings) > 0 {
			line += " warnings=" + strings.Join(c.Warnings, "; ")
		}
		lines = append(lines, line)
	}
	lines = append(lines, p.Questions...)
	return strings.Join(lines, "\n")
}

func detectTypes(t *table.Table) map[string]string {
	df := dataframe.LoadRecords(t.Records(),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"", "NA", "NaN"}),
	)
	out := make(map[string]string, t.Width())
	if df.Err != nil {
		return out
	}
	for _, name := range df.Names() {
		out[name] = string(df.Col(name).Type())
	}
	return out
}

func inferRole(name, typ string, uniqueRatio float64, nonEmpty int) string {
	low := strings.ToLower(strings.TrimSpace(name))
	numeric := typ == string(series.Int) || typ == string(series.Float)
	if containsAny(low, []string{"id", "uuid", "key", "code", "sku"}) && uniqueRatio >= 0.9 && nonEmpty > 0 {
		return "id"
	}
	if numeric && containsAny(low, []string{"target", "plan", "budget", "goal", "quota"}) {
		return "target"
	}
	if numeric {
		return "measure"
	}
	return "dimension"
}

func qualityChecks(name string, uniq map[string]int, negatives, numeric, text int) []string {
	var warnings []string
	low := strings.ToLower(name)
	if negatives > 0 && containsAny(low, []string{"count", "qty", "quantity", "units", "age", "orders", "price"}) {
		warnings = append(warnings, fmt.Sprintf("negative values in nonnegative field: %d", negatives))
	}
	if numeric > 0 && text > 0 {
		warnings = append(warnings, "mixed types observed")
	}
	if containsAny(low, []string{"id", "uuid", "key"}) {
		dups := 0
		for _, c := range uniq {
			if c > 1 {
				dups += c - 1
			}
		}
		if dups > 0 {
			warnings = append(warnings, fmt.Sprintf("duplicate IDs detected: %d", dups))
		}
	}
	return warnings
}

func stats(xs []float64) (lo, hi, mean float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
		sum += x
	}
	return lo, hi, round2(sum / float64(len(xs)))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
