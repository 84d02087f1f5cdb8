package codec

import "github.com/google/uuid"

// UUID converts the textual forms accepted by uuid.Parse to uuid.UUID and
// encodes the canonical hyphenated form.
func UUID() Codec[string, uuid.UUID] { return uuidCodec{} }

type uuidCodec struct{}

func (uuidCodec) Decode(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &FormatError{Format: "uuid", Input: s, Err: err}
	}
	return u, nil
}

func (uuidCodec) Encode(u uuid.UUID) (string, error) { return u.String(), nil }
