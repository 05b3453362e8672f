package pdf

// Kind identifies the kind of a PDF object.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindName
	KindArray
	KindDict
	KindStream
	KindRef
)

var kindNames = [...]string{"null", "bool", "int", "real", "string", "name", "array", "dict", "stream", "ref"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Object holds any PDF object value. Only the field matching Kind is set.
type Object struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Real  float64
	Bytes []byte // string payload
	Name  string
	Array []*Object
	Dict  Dict
	Raw   []byte // undecoded stream payload
	Ref   Ref
}

// Ref is an indirect object reference (N G R).
type Ref struct {
	Num int
	Gen int
}

var null = &Object{Kind: KindNull}

// Number returns the numeric value of an int or real object.
func (o *Object) Number() (float64, bool) {
	if o == nil {
		return 0, false
	}
	switch o.Kind {
	case KindInt:
		return float64(o.Int), true
	case KindReal:
		return o.Real, true
	}
	return 0, false
}

// num is Number without the ok flag.
func (o *Object) num() float64 {
	v, _ := o.Number()
	return v
}

// hasDict reports whether o carries a dictionary (plain or stream).
func (o *Object) hasDict() bool {
	return o != nil && (o.Kind == KindDict || o.Kind == KindStream)
}

// Dict is a PDF dictionary keyed by name without the leading slash.
type Dict map[string]*Object

// Int returns an integer entry. Reals are truncated.
func (d Dict) Int(key string) (int64, bool) {
	o, ok := d[key]
	if !ok {
		return 0, false
	}
	switch o.Kind {
	case KindInt:
		return o.Int, true
	case KindReal:
		return int64(o.Real), true
	}
	return 0, false
}

// Name returns a name entry. Strings are accepted as well.
func (d Dict) Name(key string) (string, bool) {
	o, ok := d[key]
	if !ok {
		return "", false
	}
	switch o.Kind {
	case KindName:
		return o.Name, true
	case KindString:
		return string(o.Bytes), true
	}
	return "", false
}

// Array returns an array entry. A single non-array value is returned as a
// one-element array.
func (d Dict) Array(key string) ([]*Object, bool) {
	o, ok := d[key]
	if !ok {
		return nil, false
	}
	if o.Kind == KindArray {
		return o.Array, true
	}
	return []*Object{o}, true
}

// Sub returns a nested dictionary entry.
func (d Dict) Sub(key string) (Dict, bool) {
	o, ok := d[key]
	if !ok || !o.hasDict() {
		return nil, false
	}
	return o.Dict, true
}
