package autosave

// Data is a free-form JSON object payload, as decoded by encoding/json.
type Data = map[string]interface{}

// MergeSection folds updates into existing without dropping keys the update does not mention.
// Arrays replace, nested objects merge one level deep, everything else replaces.
// Neither argument is modified.
func MergeSection(existing, updates Data) Data {
	if existing == nil {
		return CloneData(updates)
	}
	merged := CloneData(existing)
	for k, uv := range updates {
		switch u := uv.(type) {
		case []interface{}:
			merged[k] = cloneValue(u)
		case map[string]interface{}:
			ev, ok := existing[k].(map[string]interface{})
			if !ok {
				merged[k] = cloneValue(u)
				continue
			}
			nested := CloneData(ev)
			for nk, nv := range u {
				nested[nk] = cloneValue(nv)
			}
			merged[k] = nested
		default:
			merged[k] = cloneValue(uv)
		}
	}
	return merged
}

// CloneData deep-copies a JSON object.
func CloneData(d Data) Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return CloneData(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
