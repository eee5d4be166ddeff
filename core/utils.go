package core

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to i.
func Int64Ptr(i int64) *int64 {
	return &i
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
