package getsafe

// String pulls a string value out of a vector point payload, returning
// empty when the key is absent or holds another type.
func String(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Metadata pulls the nested metadata map out of a vector point
// payload, returning nil when the key is absent or holds another type.
func Metadata(payload map[string]any, key string) map[string]any {
	if v, ok := payload[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}
