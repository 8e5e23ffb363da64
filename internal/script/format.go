package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
)

// placeholderRe matches $KEY$ placeholders. Templates use upper-case keys; a
// lower-case key still counts, so a mistyped one fails as missing.
var placeholderRe = regexp.MustCompile(`\$([A-Za-z][A-Za-z0-9_]*)\$`)

// literalEscaper keeps substituted values from ever containing a placeholder
// or a raw line separator.
var literalEscaper = strings.NewReplacer(
	"$", `\u0024`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// Format substitutes every $KEY$ in template with a script literal for params[KEY].
// Replacement is single-pass, so placeholder-like text inside values is never expanded.
// Any placeholder without a parameter is an error; nothing is left unreplaced.
func Format(template string, params map[string]any) (string, error) {
	var (
		missing  []string
		firstErr error
	)
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := params[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		lit, err := Literal(v)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("parameter %s: %w", key, err)
		}
		return lit
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		missing = dedupSorted(missing)
		return "", bridgeerr.Newf(bridgeerr.MissingTemplateParameter,
			"missing template parameter(s): %s", strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// MustFormat panics on error. Only for templates with static parameters.
func MustFormat(template string, params map[string]any) string {
	s, err := Format(template, params)
	if err != nil {
		panic(err)
	}
	return s
}

// Literal renders v as a JavaScript literal.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case float64:
		return floatLiteral(x)
	case float32:
		return floatLiteral(float64(x))
	case string:
		return jsonLiteral(x)
	case []string:
		if x == nil {
			return "[]", nil
		}
		return jsonLiteral(x)
	case json.RawMessage:
		if !json.Valid(x) {
			return "", bridgeerr.New(bridgeerr.UnsupportedParameterType, "raw parameter is not valid JSON")
		}
		return literalEscaper.Replace(string(x)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "null", nil
		}
		return Literal(rv.Elem().Interface())
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return jsonLiteral(v)
	}
	return "", bridgeerr.Newf(bridgeerr.UnsupportedParameterType, "unsupported parameter type %T", v)
}

func floatLiteral(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", bridgeerr.Newf(bridgeerr.UnsupportedParameterType, "non-finite number %v", f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func jsonLiteral(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return "", bridgeerr.Wrap(bridgeerr.UnsupportedParameterType, err, "encode parameter")
	}
	return literalEscaper.Replace(strings.TrimSuffix(buf.String(), "\n")), nil
}

func dedupSorted(s []string) []string {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// Placeholders lists the distinct placeholder keys in template, sorted.
func Placeholders(template string) []string {
	var keys []string
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		keys = append(keys, m[1])
	}
	sort.Strings(keys)
	return dedupSorted(keys)
}
