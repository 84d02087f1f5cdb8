package constraint

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func union(sets ...map[string]struct{}) map[string]struct{} {
	m := map[string]struct{}{}
	for _, s := range sets {
		for k := range s {
			m[k] = struct{}{}
		}
	}
	return m
}

var (
	strictSet    = set(KeyStrict)
	failFastSet  = set(KeyFailFast)
	lengthSet    = set(KeyMinLength, KeyMaxLength)
	inequality   = set(KeyLe, KeyGe, KeyLt, KeyGt)
	numericSet   = union(set(KeyMultipleOf), inequality)
	allowInfNaN  = set(KeyAllowInfNaN)
	strSet       = union(lengthSet, strictSet, set(KeyStripWhitespace, KeyToLower, KeyToUpper, KeyPattern, "coerce_numbers_to_str"))
	bytesSet     = union(lengthSet, strictSet)
	listSet      = union(lengthSet, strictSet, failFastSet)
	tupleSet     = union(lengthSet, strictSet, failFastSet)
	setSet       = union(lengthSet, strictSet, failFastSet)
	dictSet      = union(lengthSet, strictSet)
	generatorSet = union(lengthSet, strictSet)
	floatSet     = union(numericSet, allowInfNaN, strictSet)
	decimalSet   = union(set("max_digits", "decimal_places"), floatSet)
	intSet       = union(numericSet, allowInfNaN, strictSet)
	dateTimeSet  = union(numericSet, strictSet)
	timedeltaSet = union(numericSet, strictSet)
	timeSet      = union(numericSet, strictSet)
	unionSet     = set(KeyUnionMode)
	urlSet       = set(KeyMaxLength, "allowed_schemes", "host_required", "default_host", "default_port", "default_path")

	textSchemaTypes     = []string{"str", "bytes", "url", "multi-host-url"}
	sequenceSchemaTypes = append([]string{"list", "tuple", "set", "frozenset", "generator"}, textSchemaTypes...)
	numericSchemaTypes  = []string{"float", "int", "date", "time", "timedelta", "datetime"}
)

// allowedSchemas maps each constraint key to the node tags that hold it
// natively.
var allowedSchemas = func() map[string]map[string]struct{} {
	strictTypes := append(append(append(append([]string{}, textSchemaTypes...), sequenceSchemaTypes...), numericSchemaTypes...), "typed-dict", "model")
	pairings := []struct {
		keys  map[string]struct{}
		types []string
	}{
		{strSet, textSchemaTypes},
		{bytesSet, []string{"bytes"}},
		{listSet, []string{"list"}},
		{tupleSet, []string{"tuple"}},
		{setSet, []string{"set", "frozenset"}},
		{dictSet, []string{"dict"}},
		{generatorSet, []string{"generator"}},
		{floatSet, []string{"float"}},
		{intSet, []string{"int"}},
		{dateTimeSet, []string{"date", "time", "datetime"}},
		{timedeltaSet, []string{"timedelta"}},
		{timeSet, []string{"time"}},
		{strictSet, strictTypes},
		{unionSet, []string{"union"}},
		{urlSet, []string{"url", "multi-host-url"}},
		{strictSet, []string{"bool"}},
		{strictSet, []string{"uuid"}},
		{strictSet, []string{"lax-or-strict"}},
		{strictSet, []string{"enum"}},
		{decimalSet, []string{"decimal"}},
	}
	out := map[string]map[string]struct{}{}
	for _, p := range pairings {
		for k := range p.keys {
			if out[k] == nil {
				out[k] = map[string]struct{}{}
			}
			for _, t := range p.types {
				out[k][t] = struct{}{}
			}
		}
	}
	return out
}()

// chainConstraints are string transforms applied through a trailing str
// step when the node cannot hold them.
var chainConstraints = set(KeyPattern, KeyStripWhitespace, KeyToLower, KeyToUpper, "coerce_numbers_to_str")

// Allows reports whether nodes tagged schemaType hold key natively.
func Allows(key, schemaType string) bool {
	_, ok := allowedSchemas[key][schemaType]
	return ok
}

// Known reports whether key is a registered constraint.
func Known(key string) bool {
	_, ok := allowedSchemas[key]
	return ok
}

// IsNumeric reports whether key is a bound or multiple_of constraint.
func IsNumeric(key string) bool {
	_, ok := numericSet[key]
	return ok
}

// IsLength reports whether key is min_length or max_length.
func IsLength(key string) bool {
	_, ok := lengthSet[key]
	return ok
}
