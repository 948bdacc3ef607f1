package dsl

// Collector reduces the results of a transition's outputs to the single value
// returned to the caller.
type Collector func(results []any) any

// CollectList returns the results unchanged. It is the default.
func CollectList(results []any) any { return results }

// CollectLast returns the last result, or nil when no output ran.
func CollectLast(results []any) any {
	if len(results) == 0 {
		return nil
	}
	return results[len(results)-1]
}

// CollectFirst returns the first result, or nil when no output ran.
func CollectFirst(results []any) any {
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

// CollectNone discards the results.
func CollectNone([]any) any { return nil }

// CollectorByName maps the names used in definition files to collectors.
// The empty name selects CollectList.
func CollectorByName(name string) (Collector, bool) {
	switch name {
	case "", "list":
		return CollectList, true
	case "last":
		return CollectLast, true
	case "first":
		return CollectFirst, true
	case "none":
		return CollectNone, true
	}
	return nil, false
}
