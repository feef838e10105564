package tablespec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
)

// CursorDirection is the paging direction a cursor token points to.
type CursorDirection string

const (
	CursorNext CursorDirection = "next"
	CursorPrev CursorDirection = "prev"
)

// cursorToken is the decoded form of an opaque cursor: the primary key of
// the boundary row and the direction to page in.
type cursorToken struct {
	Key       any             `json:"k"`
	Direction CursorDirection `json:"d"`
}

func encodeCursor(key any, dir CursorDirection) string {
	raw, err := json.Marshal(cursorToken{Key: key, Direction: dir})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (cursorToken, error) {
	var tok cursorToken
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return tok, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return tok, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if tok.Direction != CursorNext && tok.Direction != CursorPrev {
		return tok, fmt.Errorf("%w: unknown direction %q", ErrInvalidCursor, tok.Direction)
	}
	switch k := tok.Key.(type) {
	case float64:
		if k == math.Trunc(k) && math.Abs(k) < 1<<53 {
			tok.Key = int64(k)
		}
	case string:
	default:
		return tok, fmt.Errorf("%w: unsupported key %v", ErrInvalidCursor, tok.Key)
	}
	return tok, nil
}
