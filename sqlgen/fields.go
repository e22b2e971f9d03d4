package sqlgen

// Field is a single column/value pair taken from a request
type Field struct {
	Key   string
	Value string
}

// Fields is an ordered set of column/value pairs.
// Keys are unique; setting an existing key replaces its value in place.
type Fields []Field

// Set stores value under key, keeping the position of the first write
func (f *Fields) Set(key, value string) {
	for i := range *f {
		if (*f)[i].Key == key {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Field{Key: key, Value: value})
}

// Keys returns the keys in insertion order
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for _, field := range f {
		keys = append(keys, field.Key)
	}
	return keys
}
