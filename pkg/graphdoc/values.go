package graphdoc

import (
	"sort"
	"strconv"
	"strings"
)

// Field aliases accepted on input. The first entry is the canonical name.
var (
	keysNodes    = []string{"nodes", "节点", "papers"}
	keysEdges    = []string{"edges", "边", "links"}
	keysClusters = []string{"clusters", "聚类"}

	keysNodeID      = []string{"id", "job_id", "paper_id"}
	keysNodeTitle   = []string{"title", "标题", "name"}
	keysNodeAuthors = []string{"authors", "作者"}
	keysNodeYear    = []string{"year", "年份"}
	keysNodeSummary = []string{"summary", "简介", "abstract"}

	keysEdgeSource = []string{"source", "from", "src", "源"}
	keysEdgeTarget = []string{"target", "to", "dst", "目标"}
	keysEdgeType   = []string{"type", "relation", "关系"}
	keysEdgeReason = []string{"reason", "desc", "解释"}
	keysEdgeWeight = []string{"weight", "score", "强度"}

	keysClusterID    = []string{"id", "cid", "cluster_id"}
	keysClusterName  = []string{"name", "主题", "title"}
	keysClusterNodes = []string{"node_ids", "nodes", "papers"}
)

// lookup returns the first present value among keys.
func lookup(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// pickString returns the first non-empty string form among keys.
func pickString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s := stringify(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// pickStrings returns a string list. A plain string is split on commas.
func pickStrings(m map[string]any, keys []string) []string {
	v, ok := lookup(m, keys)
	if !ok {
		return nil
	}
	return stringList(v)
}

// stringList flattens a list of scalars or a comma separated string.
func stringList(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// pickNumber returns the first value among keys that reads as a number.
func pickNumber(m map[string]any, keys []string) *float64 {
	for _, k := range keys {
		if f, ok := toFloat(m[k]); ok {
			return &f
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// stringify renders scalars and lists of scalars as trimmed text.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// asMap converts YAML-style maps with interface keys into string-keyed maps.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[stringify(k)] = val
		}
		return out, true
	}
	return nil, false
}

// sortedKeys returns map keys in a stable order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
