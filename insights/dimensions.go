// Copyright (c) 2025 GraphRAG Accelerator Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package insights

// dimensionSeparator joins parent and child keys when flattening.
const dimensionSeparator = "_"

// flatten recursively flattens a nested details map into a single level
// map: {"a": {"b": {"c": 1}}} flattens to {"a_b_c": 1}. Values that are
// not themselves a map[string]any are leaves.
func flatten(details map[string]any) map[string]any {
	flat := make(map[string]any, len(details))
	flattenInto(flat, "", details)
	return flat
}

func flattenInto(flat map[string]any, parent string, m map[string]any) {
	for k, v := range m {
		key := k
		if parent != "" {
			key = parent + dimensionSeparator + k
		}

		sub, ok := v.(map[string]any)
		if ok {
			flattenInto(flat, key, sub)
			continue
		}
		flat[key] = v
	}
}

// formatDimensions merges the adapter's fixed property bag with the
// flattened details; details win on key collision. Absent details yield
// no dimensions at all, even when fixed properties are set.
func (c *WorkflowCallbacks) formatDimensions(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}

	dims := make(map[string]any, len(c.properties)+len(details))
	for k, v := range c.properties {
		dims[k] = v
	}
	for k, v := range flatten(details) {
		dims[k] = v
	}
	return dims
}
