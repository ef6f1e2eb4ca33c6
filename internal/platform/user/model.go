package user

// User is a directory record keyed by its username.
// Age and Location are nil when unset.
type User struct {
	Username string
	Age      *int
	Location *string
}

// Clone returns a deep copy so stores never hand out their own pointers.
func (u *User) Clone() *User {
	c := &User{Username: u.Username}
	if u.Age != nil {
		age := *u.Age
		c.Age = &age
	}
	if u.Location != nil {
		loc := *u.Location
		c.Location = &loc
	}
	return c
}

// Field is one attribute of a partial update. Present distinguishes a field
// that was not supplied from one explicitly supplied as null (Value == nil).
type Field[T any] struct {
	Present bool
	Value   *T
}

// Set returns a present field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: &v}
}

// Null returns a present field that clears the attribute.
func Null[T any]() Field[T] {
	return Field[T]{Present: true}
}

// Patch is a partial update addressed by username.
type Patch struct {
	Username string
	Age      Field[int]
	Location Field[string]
}

// Apply overwrites the fields present in p, leaving the rest of u untouched.
func (p *Patch) Apply(u *User) {
	if p.Age.Present {
		u.Age = nil
		if p.Age.Value != nil {
			age := *p.Age.Value
			u.Age = &age
		}
	}
	if p.Location.Present {
		u.Location = nil
		if p.Location.Value != nil {
			loc := *p.Location.Value
			u.Location = &loc
		}
	}
}
