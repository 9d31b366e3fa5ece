package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
)

// decodeLenient decodes a JSON document into out, matching object keys to
// json tags regardless of case, underscores or dashes, and converting scalar
// types where the payload disagrees with the declared field type.
func decodeLenient(data []byte, out any) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		MatchName:        matchName,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func matchName(key, field string) bool {
	return normalizeName(key) == normalizeName(field)
}

func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == '_' || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
