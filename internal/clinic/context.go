package clinic

import "context"

type ctxKey string

const clinicKey ctxKey = "voicebooking.clinic"

// WithClinic stores the resolved clinic in context.
func WithClinic(ctx context.Context, c *Clinic) context.Context {
	return context.WithValue(ctx, clinicKey, c)
}

// FromContext extracts the clinic if present.
func FromContext(ctx context.Context) (*Clinic, bool) {
	val := ctx.Value(clinicKey)
	if val == nil {
		return nil, false
	}
	c, ok := val.(*Clinic)
	return c, ok && c != nil
}
