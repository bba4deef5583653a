package config

// mergeMaps returns a new mapping produced by layering overlay on top of base.
// When both sides hold a nested mapping for the same key, the merge recurses;
// in every other case the overlay's value replaces the base's value entirely.
// Lists are never concatenated and values are never coerced. Neither input is
// modified.
func mergeMaps(base, overlay map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, overlayValue := range overlay {
		baseValue, haveBase := merged[k]
		if haveBase {
			baseMap, baseIsMap := baseValue.(map[string]interface{})
			overlayMap, overlayIsMap := overlayValue.(map[string]interface{})
			if baseIsMap && overlayIsMap {
				merged[k] = mergeMaps(baseMap, overlayMap)
				continue
			}
		}
		merged[k] = overlayValue
	}
	return merged
}
